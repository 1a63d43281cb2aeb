package sqlinline

// QSelectChainSecret returns a stored chain secret and the network a gateway
// key was issued for.
const QSelectChainSecret = `--sql 56d9d70d-010e-4521-a122-2a3bf44bc4dd
select token, coalesce(properties->>'network', '')
from integration_tokens
where provider = $1::text
  and provider in ('chain_gateway', 'chain_webhook')
limit 1;
`

const QUpsertChainSecret = `--sql 1ed98c8d-b2d9-4f34-a97c-277205d81372
insert into integration_tokens (provider, token, properties)
values ($1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb))
on conflict (provider) do update set
  token = excluded.token,
  properties = excluded.properties,
  updated_at = now();
`
