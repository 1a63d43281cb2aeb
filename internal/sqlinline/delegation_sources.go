package sqlinline

const QListDACsByOwner = `--sql 73241871-688b-4976-b221-0d271f56fdb5
select id, title, owner_address, coalesce(delegate_id, '')
from dacs
where lower(owner_address) = lower($1::text)
order by created_at asc;
`

const QSelectCampaignByID = `--sql c2659117-96b3-4fa2-86c2-b0483b6abe35
select id, title, project_id, owner_address, coalesce(reviewer_address, '')
from campaigns
where id = $1::text
limit 1;
`
