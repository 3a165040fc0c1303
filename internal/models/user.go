package models

import "time"

// User is an account identity. PasswordHash and CreatedAt never leave the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Credentials is the register/login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
