package domain

import "time"

// Timestamps provides creation and modification times for stored records.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
