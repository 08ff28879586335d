package domain

import (
	"time"
)

// User represents a registered storefront customer.
type User struct {
	ID              string     `json:"id"`
	FullName        string     `json:"full_name"`
	Phone           string     `json:"phone"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Role            string     `json:"role"`
	EmailVerified   bool       `json:"email_verified"`
	ActivationToken string     `json:"-"`
	Website         string     `json:"website,omitempty"`
	SubscribeEmail  bool       `json:"subscribe_email"`
	CreatedAt       time.Time  `json:"created_at"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
}

// Public returns a copy of u without credentials or activation secrets.
func (u *User) Public() *User {
	cp := *u
	cp.PasswordHash = ""
	cp.ActivationToken = ""
	return &cp
}
