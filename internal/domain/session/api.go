package session

import "context"

// API is the slice of the backend the session store consumes.
type API interface {
	Me(ctx context.Context) (*User, error)
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	Logout(ctx context.Context) error
}
