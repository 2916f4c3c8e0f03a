// Package notification delivers fire-and-forget messages to user principals.
// The sink implementation is chosen at composition time; callers must treat
// delivery failures as non-fatal.
package notification

import (
	"context"
	"time"
)

const KindLoanAssignment = "loan_assignment"

type Notification struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userId"`
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}
