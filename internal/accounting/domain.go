// Package accounting manages analytic segments, cities and monthly tax
// declarations for the training center.
package accounting

import "time"

// Segment is an analytic accounting axis used to break down revenue.
type Segment struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// City is a locality where the center declares activity.
type City struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Declaration statuses. A declaration is editable until submitted.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// Declaration is one monthly tax declaration for a city and segment.
// Amounts are stored in centimes.
type Declaration struct {
	ID          int64      `json:"id"`
	Period      string     `json:"period"`
	CityID      int64      `json:"city_id"`
	SegmentID   int64      `json:"segment_id"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
