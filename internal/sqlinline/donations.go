package sqlinline

const QListDonationsForDelegation = `--sql 420de156-65a3-4ea9-a342-d7824a0ab407
select
  id,
  amount_remaining::text,
  token_symbol,
  token_address,
  token_decimals,
  owner_id,
  owner_type_id,
  owner_type,
  coalesce(delegate_id, ''),
  coalesce(delegate_type_id, ''),
  status,
  coalesce(giver_address, ''),
  created_at,
  commit_time
from donations
where status = $1::text
  and upper(token_symbol) = upper($2::text)
  and amount_remaining > 0
  and ($3::text = '' or owner_id = $3::text)
  and ($4::text = '' or owner_type_id = $4::text)
  and ($5::text = '' or delegate_id = $5::text)
  and ($6::text = '' or delegate_type_id = $6::text)
order by created_at asc, id asc
limit $7::int;
`

const QSelectDonationByID = `--sql 586d98b1-bb58-4d69-b2e4-51a68d3372f6
select
  id,
  amount_remaining::text,
  token_symbol,
  token_address,
  token_decimals,
  owner_id,
  owner_type_id,
  owner_type,
  coalesce(delegate_id, ''),
  coalesce(delegate_type_id, ''),
  status,
  coalesce(giver_address, ''),
  created_at,
  commit_time
from donations
where id = $1::text
limit 1;
`

const QListCommitExpiredDonations = `--sql b1430242-d9fd-48ab-bac3-0951d623de1f
select
  id,
  amount_remaining::text,
  token_symbol,
  token_address,
  token_decimals,
  owner_id,
  owner_type_id,
  owner_type,
  coalesce(delegate_id, ''),
  coalesce(delegate_type_id, ''),
  status,
  coalesce(giver_address, ''),
  created_at,
  commit_time
from donations
where status in ('Waiting', 'ToApprove')
  and commit_time is not null
  and commit_time <= $1::timestamptz
order by commit_time asc
limit $2::int;
`

const QMarkDonationCommitted = `--sql fd6dbbd9-59d5-416f-a8d2-dea4d58bb1f1
update donations
set status = 'Committed',
    updated_at = now()
where id = $1::text
  and status in ('Waiting', 'ToApprove');
`
