package customer

import "context"

type Repository interface {
	CreateCustomer(ctx context.Context, c *Customer) (*Customer, error)

	GetCustomerByID(ctx context.Context, customerID int64) (*Customer, error)

	ListCustomers(ctx context.Context) ([]*Customer, error)
}
