package protocol

import (
	"time"

	"github.com/google/uuid"
)

// ContextBuilder helps construct Beckn contexts with a fluent API
type ContextBuilder struct {
	ctx Context
	now func() time.Time
	ts  time.Time
}

// NewContextBuilder creates a builder for action with the default domain,
// location and core version
func NewContextBuilder(action Action) *ContextBuilder {
	return &ContextBuilder{
		ctx: Context{
			Domain: DefaultDomain,
			Action: action,
			Location: Location{
				Country: Code{Code: DefaultCountry},
				City:    Code{Code: DefaultCity},
			},
			CoreVersion: DefaultCoreVersion,
		},
		now: time.Now,
	}
}

// WithDomain sets the network domain
func (b *ContextBuilder) WithDomain(domain string) *ContextBuilder {
	b.ctx.Domain = domain
	return b
}

// WithLocation sets the country and city codes
func (b *ContextBuilder) WithLocation(country, city string) *ContextBuilder {
	b.ctx.Location = Location{Country: Code{Code: country}, City: Code{Code: city}}
	return b
}

// WithCoreVersion overrides the core version
func (b *ContextBuilder) WithCoreVersion(version string) *ContextBuilder {
	b.ctx.CoreVersion = version
	return b
}

// WithBAP sets the caller's subscriber id and callback URI
func (b *ContextBuilder) WithBAP(id, uri string) *ContextBuilder {
	b.ctx.BapID = id
	b.ctx.BapURI = uri
	return b
}

// WithBPP addresses a specific provider
func (b *ContextBuilder) WithBPP(id, uri string) *ContextBuilder {
	b.ctx.BppID = id
	b.ctx.BppURI = uri
	return b
}

// WithTransactionID reuses an existing transaction id
func (b *ContextBuilder) WithTransactionID(id string) *ContextBuilder {
	b.ctx.TransactionID = id
	return b
}

// WithMessageID sets the message id
func (b *ContextBuilder) WithMessageID(id string) *ContextBuilder {
	b.ctx.MessageID = id
	return b
}

// WithTimestamp pins the context timestamp
func (b *ContextBuilder) WithTimestamp(t time.Time) *ContextBuilder {
	b.ts = t
	return b
}

// WithTTL sets an ISO 8601 time-to-live
func (b *ContextBuilder) WithTTL(ttl string) *ContextBuilder {
	b.ctx.TTL = ttl
	return b
}

// Build fills in missing ids with fresh UUIDs and a missing timestamp with
// the current time, then validates the context
func (b *ContextBuilder) Build() (*Context, error) {
	c := b.ctx
	if c.TransactionID == "" {
		c.TransactionID = uuid.NewString()
	}
	if c.MessageID == "" {
		c.MessageID = uuid.NewString()
	}

	ts := b.ts
	if ts.IsZero() {
		ts = b.now()
	}
	c.Timestamp = FormatTimestamp(ts)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
