package model

import (
	"time"

	"PPDirect/data/gateway"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message document in the "messages" collection.
// Sender and Recipient hold user ids as hex strings.
type Message struct {
	ID        primitive.ObjectID `bson:"_id"`
	Sender    string             `bson:"sender"`
	Recipient string             `bson:"recipient"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (m *Message) GetTableName() string {
	return "messages"
}

func (m *Message) ToGateway() gateway.Message {
	return gateway.Message{
		ID:        m.ID.Hex(),
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}
