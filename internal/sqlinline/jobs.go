package sqlinline

const QJobInsert = `--sql 0c6a08f4-30e6-43ee-865d-ee534f1ba4d3
insert into generation_jobs (
    id, tenant_id, mode, status, prompt, secondary_prompt,
    source_refs, output_config, entity_id, created_at, updated_at
) values (
    $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::text,
    $7::jsonb, $8::jsonb, nullif($9, '')::uuid, now(), now()
);
`

const qJobColumns = `
    id, tenant_id, mode, status, prompt, secondary_prompt,
    source_refs, output_config, coalesce(entity_id::text, ''),
    coalesce(external_job_id, ''), progress, retry_count,
    coalesce(generated_asset_key, ''), coalesce(thumbnail_key, ''),
    coalesce(error_message, ''), created_at, updated_at, completed_at`

const QJobGet = `--sql 0010847e-fbce-408f-8462-6245b1dc6704
select` + qJobColumns + `
from generation_jobs
where tenant_id = $1::uuid and id = $2::uuid;
`

const QJobList = `--sql 197ca20b-9295-4ced-a6df-2a565573f992
select` + qJobColumns + `,
    count(*) over () as total
from generation_jobs
where tenant_id = $1::uuid
  and ($2 = '' or mode = any(string_to_array($2, ',')))
  and ($3 = '' or status = $3)
  and ($4 = '' or entity_id = $4::uuid)
order by created_at desc
limit $5 offset $6;
`

const QJobStart = `--sql 55ee7d97-0603-4210-a270-4d1966db1fe0
update generation_jobs
set status = 'in_progress', updated_at = now()
where tenant_id = $1::uuid and id = $2::uuid and status = 'queued';
`

const QJobSetExternalID = `--sql 8bbf49f8-45d3-43b9-b6ce-69be5c88932a
update generation_jobs
set external_job_id = $3::text, updated_at = now()
where tenant_id = $1::uuid and id = $2::uuid and status = 'in_progress';
`

const QJobUpdateProgress = `--sql 73326630-1b74-4ae3-bb13-64d83e2895c1
update generation_jobs
set progress = greatest(progress, least($3::int, 100)), updated_at = now()
where tenant_id = $1::uuid and id = $2::uuid and status = 'in_progress';
`

const QJobIncrementRetry = `--sql fba9060e-9d20-428a-ab3b-81d36c5172ad
update generation_jobs
set retry_count = retry_count + 1, updated_at = now()
where tenant_id = $1::uuid and id = $2::uuid and status = 'in_progress';
`

const QJobComplete = `--sql 471b6fd9-ea7b-4554-bfde-47d9f4ddc8d4
update generation_jobs
set status = 'completed',
    progress = 100,
    generated_asset_key = $3::text,
    thumbnail_key = nullif($4, '')::text,
    error_message = null,
    completed_at = now(),
    updated_at = now()
where tenant_id = $1::uuid and id = $2::uuid and status = 'in_progress';
`

const QJobFail = `--sql 1a4200f7-8cdd-41fb-b55e-30b6d9750145
update generation_jobs
set status = 'failed',
    error_message = $3::text,
    updated_at = now()
where tenant_id = $1::uuid and id = $2::uuid and status in ('queued', 'in_progress');
`

const QJobDelete = `--sql abb8eb5d-7187-445f-adc8-243161d397ce
delete from generation_jobs
where tenant_id = $1::uuid and id = $2::uuid;
`

const QJobListUnsettled = `--sql beec7774-acb5-45d5-a89b-d72c049c5d0f
select` + qJobColumns + `
from generation_jobs
where status in ('queued', 'in_progress')
order by created_at asc;
`
