package mgo

import (
	"context"
	"time"

	"PPDirect/data/database"
	"PPDirect/data/database/mgo/mongoutil"
	"PPDirect/data/gateway"
	msgmodel "PPDirect/module/message/model"
	usermodel "PPDirect/module/user/model"
	"PPDirect/tools/errs"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the MongoDB Gateway.
type Store struct {
	cli      *mongoutil.Client
	users    *mongo.Collection
	messages *mongo.Collection
	now      func() time.Time
}

var _ gateway.Gateway = (*Store)(nil)

func NewStore(ctx context.Context, cfg *mongoutil.Config) (*Store, error) {
	cli, err := mongoutil.NewMongoDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{
		cli:      cli,
		users:    collection(cli, &usermodel.User{}),
		messages: collection(cli, &msgmodel.Message{}),
		now:      func() time.Time { return time.Now().UTC() },
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func collection(cli *mongoutil.Client, t database.Table) *mongo.Collection {
	return cli.GetDB().Collection(t.GetTableName())
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errs.WrapMsg(err, "create users index")
	}
	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sender", Value: 1}, {Key: "recipient", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return errs.WrapMsg(err, "create messages index")
	}
	return nil
}

func (s *Store) FindUser(ctx context.Context, username string) (*gateway.User, error) {
	return s.findOneUser(ctx, bson.M{"username": username})
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*gateway.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// not an id this store could have issued
		return nil, nil
	}
	return s.findOneUser(ctx, bson.M{"_id": oid})
}

func (s *Store) findOneUser(ctx context.Context, filter bson.M) (*gateway.User, error) {
	var doc usermodel.User
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user")
	}
	return doc.ToGateway(), nil
}

func (s *Store) FindUsers(ctx context.Context) ([]gateway.UserSummary, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "username": 1}).
		SetSort(bson.D{{Key: "username", Value: 1}})
	cur, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "find users")
	}
	var docs []usermodel.User
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.WrapMsg(err, "decode users")
	}
	out := make([]gateway.UserSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, gateway.UserSummary{ID: d.ID.Hex(), Username: d.Username})
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*gateway.User, error) {
	now := s.now()
	doc := usermodel.User{
		ID:         primitive.NewObjectID(),
		Username:   username,
		Password:   passwordHash,
		CreateTime: now,
		UpdateTime: now,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrDuplicateUser.WrapMsg("username taken", "username", username)
		}
		return nil, errs.WrapMsg(err, "insert user")
	}
	return doc.ToGateway(), nil
}

func (s *Store) CreateMessage(ctx context.Context, sender, recipient, text string) (*gateway.Message, error) {
	doc := msgmodel.Message{
		ID:        primitive.NewObjectID(),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		CreatedAt: s.now(),
	}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return nil, errs.WrapMsg(err, "insert message")
	}
	m := doc.ToGateway()
	return &m, nil
}

// FindMessagesBetween sorts by createdAt then _id; ObjectIDs are increasing
// within a process, so same-millisecond sends keep insertion order.
func (s *Store) FindMessagesBetween(ctx context.Context, userA, userB string) ([]gateway.Message, error) {
	filter := bson.M{
		"sender":    bson.M{"$in": bson.A{userA, userB}},
		"recipient": bson.M{"$in": bson.A{userA, userB}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "find messages")
	}
	var docs []msgmodel.Message
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.WrapMsg(err, "decode messages")
	}
	out := make([]gateway.Message, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].ToGateway())
	}
	return out, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.cli.Disconnect(ctx)
}
