package model

import (
	"time"

	"PPDirect/data/gateway"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document in the "users" collection.
type User struct {
	ID         primitive.ObjectID `bson:"_id"`
	Username   string             `bson:"username"`
	Password   string             `bson:"password"` // bcrypt hash
	CreateTime time.Time          `bson:"create_time"`
	UpdateTime time.Time          `bson:"update_time"`
}

func (u *User) GetTableName() string {
	return "users"
}

func (u *User) ToGateway() *gateway.User {
	return &gateway.User{
		ID:           u.ID.Hex(),
		Username:     u.Username,
		PasswordHash: u.Password,
		CreatedAt:    u.CreateTime,
	}
}
