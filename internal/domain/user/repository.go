package user

import "context"

type Repository interface {
	CreateUser(ctx context.Context, u *User) (*User, error)

	GetUserByID(ctx context.Context, userID int64) (*User, error)

	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// FindAgentUserByEmail resolves the agent-role user for a given email.
	// Kept for agent rows created before the explicit UserID link existed.
	FindAgentUserByEmail(ctx context.Context, email string) (*User, error)
}
