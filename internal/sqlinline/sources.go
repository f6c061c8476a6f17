package sqlinline

const QSourceMenuItemImage = `--sql 5ed151ac-780d-453c-beaa-4d43d0638b70
select id, name, coalesce(image_key, ''), coalesce(image_mime, 'image/png')
from menu_items
where tenant_id = $1::uuid and id = $2::uuid;
`

const QSourceMediaLibraryImage = `--sql 5ca6c032-2636-4148-b411-f130b4c4d6eb
select id, coalesce(title, ''), storage_key, mime_type, origin
from media_library
where tenant_id = $1::uuid and id = $2::uuid;
`

const QSourceRestaurantLogo = `--sql 4f69e067-8082-4a75-8fe4-b55cf9a3c0b3
select id, name, coalesce(logo_key, ''), coalesce(logo_mime, 'image/png')
from restaurants
where id = $1::uuid;
`
