package models

import "time"

// Param is one captured query parameter, kept in request order for display.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of captured parameters.
type Params []Param

// Map returns the parameters as the stored key -> value mapping.
// It is never nil, so an empty set serialises as {} rather than null.
func (p Params) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, kv := range p {
		m[kv.Key] = kv.Value
	}
	return m
}

// NewClick is what the /track handler hands to storage.
// ClientAddress is nil when the peer address is unknown.
type NewClick struct {
	Params        map[string]string
	ClientAddress *string
	UserAgent     string
	Referrer      string
}

// Click is a persisted utm_clicks row. ID and CreatedAt are assigned by the database.
type Click struct {
	ID            int64             `json:"id"`
	Params        map[string]string `json:"utm_params"`
	ClientAddress *string           `json:"ip_address,omitempty"`
	UserAgent     string            `json:"user_agent"`
	Referrer      string            `json:"referrer"`
	CreatedAt     time.Time         `json:"created_at"`
}
