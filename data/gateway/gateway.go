// Package gateway defines the persistence contract the hub and the HTTP
// handlers consume. Backends live under data/database (mongo, postgres) and
// in memory.go.
package gateway

import (
	"context"
	"time"
)

// User is an account record. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSummary is the public listing shape returned by FindUsers.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Message is immutable once created.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Gateway is the Persistence Gateway.
//
// Lookups return (nil, nil) when the record does not exist. CreateUser fails
// with errs.ErrDuplicateUser when the username is taken. FindMessagesBetween
// returns both directions of the conversation in chronological order.
type Gateway interface {
	FindUser(ctx context.Context, username string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUsers(ctx context.Context) ([]UserSummary, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	CreateMessage(ctx context.Context, sender, recipient, text string) (*Message, error)
	FindMessagesBetween(ctx context.Context, userA, userB string) ([]Message, error)
	Close(ctx context.Context) error
}
