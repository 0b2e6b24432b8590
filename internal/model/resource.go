package model

import (
	"encoding/json"
	"time"
)

// Resource is a generic back office document (course, news item, article,
// category, review ...) stored in the `resources` table.  Its body is opaque
// JSON; the authentication layer only cares about who may read or write it.
type Resource struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Body      json.RawMessage `json:"body"`
	CreatedBy string          `json:"createdBy,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
