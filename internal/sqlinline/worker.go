package sqlinline

const QEnqueueLyricsJob = `--sql a3fd94f9-24fa-4bce-bdae-3bb66a70a433
insert into lyrics_jobs(id, order_id, status, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, 'QUEUED', now(), now())
returning id;
`

const QWorkerClaimLyricsJob = `--sql b19e8424-da53-426f-a5fd-a0e12d7ba94c
with next_job as (
    select id
    from lyrics_jobs
    where status = 'QUEUED'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update lyrics_jobs
    set status = 'RUNNING', updated_at = now()
    where id in (select id from next_job)
    returning id, order_id
)
select * from updated;
`

const QUpdateLyricsJobStatus = `--sql 94768c06-8f1c-4b0a-8a3d-c8e081095265
update lyrics_jobs
set status = $2::text,
    error_message = nullif($3::text, ''),
    updated_at = now()
where id = $1::uuid;
`

const QRequeueStaleLyricsJobs = `--sql 7318a6ed-47bc-4b48-bb10-6d056b5ef180
update lyrics_jobs
set status = 'QUEUED', updated_at = now()
where status = 'RUNNING'
  and updated_at < now() - ($1::int * interval '1 second');
`
