package resource

import "time"

// Meta carries the identity and bookkeeping every engine-managed entity
// shares. The storage key stays internal; only PublicID ever crosses the API
// boundary. Embed it in a domain struct and the type satisfies Entity.
type Meta struct {
	Key       string
	PublicID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m *Meta) ResourceMeta() *Meta { return m }

// Entity is anything the engine can manage.
type Entity interface {
	ResourceMeta() *Meta
}
