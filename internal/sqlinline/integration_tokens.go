package sqlinline

const QSelectIntegrationToken = `--sql 0350cf0a-d4aa-402b-8a4e-0c062bd8c003
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 8316552a-c417-4d48-aab1-e37e227b9d67
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
