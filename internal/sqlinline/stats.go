package sqlinline

const QStatsSummary = `--sql 314fc17e-3c96-44ce-bbd0-7d42bdf98e73
select
  count(*) as total_jobs,
  count(*) filter (where status = 'completed') as completed,
  count(*) filter (where status = 'failed') as failed,
  count(*) filter (where status in ('queued', 'in_progress')) as in_flight,
  count(*) filter (where status = 'completed' and mode in ('source_image_to_video', 'text_to_video', 'generated_image_to_video')) as videos_completed,
  count(*) filter (where status = 'completed' and mode in ('upload_image', 'text_to_image', 'reference_composition')) as images_completed,
  count(*) filter (where status = 'completed' and completed_at >= now() - interval '24 hours') as completed_last24
from generation_jobs;
`
