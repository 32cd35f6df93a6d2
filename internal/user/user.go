package user

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is an account row. Points and RankID are the loyalty columns the
// checkout transaction updates; RankID is a cache of the resolved tier.
type User struct {
	ID       int    `json:"userID"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Points   int    `json:"points"`
	RankID   *int   `json:"rankID,omitempty"`
}
