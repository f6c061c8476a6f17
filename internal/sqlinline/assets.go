package sqlinline

const QAssetInsert = `--sql bc39d62b-43ac-4f9c-a215-86620cadd1f0
insert into generation_assets (
    id, job_id, tenant_id, variant, mime_type, size_bytes, storage_key, created_at
) values (
    $1::uuid, $2::uuid, $3::uuid, $4::text, $5::text, $6::bigint, $7::text, now()
);
`

const QAssetListByJob = `--sql 350837ac-8298-4845-bf49-cafa24e766bd
select id, job_id, tenant_id, variant, mime_type, size_bytes, storage_key, created_at
from generation_assets
where tenant_id = $1::uuid and job_id = $2::uuid
order by created_at asc;
`

const QAssetGet = `--sql cef30248-52f7-49ef-a174-517c9252a336
select id, job_id, tenant_id, variant, mime_type, size_bytes, storage_key, created_at
from generation_assets
where tenant_id = $1::uuid and id = $2::uuid;
`

const QAssetDeleteByJob = `--sql d8ec3123-3dee-49dc-9d57-3a67b11e28ad
delete from generation_assets
where tenant_id = $1::uuid and job_id = $2::uuid;
`
