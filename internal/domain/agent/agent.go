package agent

import "time"

// Agent is a recovery agent who collects on assigned loans. UserID links the
// agent to the user account that receives assignment notifications; it is
// captured at creation and may be nil for rows imported before the link
// existed, in which case routing falls back to an email lookup.
type Agent struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	UserID    *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
