package sqlinline

const QSelectMilestoneByID = `--sql 267e228f-a468-413a-8ca5-370ceadf4c9a
select id::text, record
from milestones
where id = $1::uuid
limit 1;
`

// QUpsertMilestone keeps the indexed columns in step with the record document.
const QUpsertMilestone = `--sql 6cdb339e-bd3b-4e35-9a8a-8ade782e82fd
insert into milestones (
  id,
  campaign_id,
  status,
  mined,
  confirmations,
  deleted,
  pending_tx_hash,
  record,
  created_at,
  updated_at
) values (
  $1::uuid,
  $2::text,
  $3::text,
  $4::boolean,
  $5::int,
  $6::boolean,
  nullif($7::text, ''),
  $8::jsonb,
  now(),
  now()
)
on conflict (id) do update set
  campaign_id = excluded.campaign_id,
  status = excluded.status,
  mined = excluded.mined,
  confirmations = excluded.confirmations,
  deleted = excluded.deleted,
  pending_tx_hash = excluded.pending_tx_hash,
  record = excluded.record,
  updated_at = now();
`

const QListMilestonesAwaitingChain = `--sql 1d858799-e8e8-4ce6-b09e-ee46b0875917
select id::text, record
from milestones
where deleted = false
  and (pending_tx_hash is not null or status in ('Pending', 'Paying'))
order by updated_at asc
limit $1::int;
`
