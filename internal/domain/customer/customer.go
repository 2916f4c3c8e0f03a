package customer

import "time"

// Customer is a borrower. A customer owns zero or more loans; the owning
// user account shares the customer's ID.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
