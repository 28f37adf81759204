package pg

import (
	"context"
	"time"

	"PPDirect/data/gateway"
	"PPDirect/tools/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	username    TEXT NOT NULL UNIQUE,
	password    TEXT NOT NULL,
	create_time TIMESTAMPTZ NOT NULL,
	update_time TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	seq        BIGSERIAL PRIMARY KEY,
	id         TEXT NOT NULL UNIQUE,
	sender     TEXT NOT NULL,
	recipient  TEXT NOT NULL,
	text       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_pair_idx ON messages (sender, recipient, seq);
`

// Store is the PostgreSQL Gateway.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ gateway.Gateway = (*Store)(nil)

// NewStore connects to dsn and creates the schema if missing.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errs.ErrArgs.WrapMsg("DATABASE_URL is empty")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.WrapMsg(err, "pgxpool.New")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "postgres ping")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "create schema")
	}
	return &Store{pool: pool, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) FindUser(ctx context.Context, username string) (*gateway.User, error) {
	return s.findOneUser(ctx, `SELECT id, username, password, create_time FROM users WHERE username = $1`, username)
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*gateway.User, error) {
	return s.findOneUser(ctx, `SELECT id, username, password, create_time FROM users WHERE id = $1`, id)
}

func (s *Store) findOneUser(ctx context.Context, sql string, arg string) (*gateway.User, error) {
	var u gateway.User
	err := s.pool.QueryRow(ctx, sql, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user")
	}
	return &u, nil
}

func (s *Store) FindUsers(ctx context.Context) ([]gateway.UserSummary, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, username FROM users ORDER BY username`)
	if err != nil {
		return nil, errs.WrapMsg(err, "find users")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (gateway.UserSummary, error) {
		var u gateway.UserSummary
		err := row.Scan(&u.ID, &u.Username)
		return u, err
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "scan users")
	}
	return out, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*gateway.User, error) {
	u := &gateway.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.now(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, username, password, create_time, update_time) VALUES ($1, $2, $3, $4, $4)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, errs.ErrDuplicateUser.WrapMsg("username taken", "username", username)
		}
		return nil, errs.WrapMsg(err, "insert user")
	}
	return u, nil
}

func (s *Store) CreateMessage(ctx context.Context, sender, recipient, text string) (*gateway.Message, error) {
	m := &gateway.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		CreatedAt: s.now(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, sender, recipient, text, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.Sender, m.Recipient, m.Text, m.CreatedAt)
	if err != nil {
		return nil, errs.WrapMsg(err, "insert message")
	}
	return m, nil
}

// FindMessagesBetween orders by seq, which follows insertion order.
func (s *Store) FindMessagesBetween(ctx context.Context, userA, userB string) ([]gateway.Message, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, sender, recipient, text, created_at FROM messages
WHERE (sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1)
ORDER BY seq`, userA, userB)
	if err != nil {
		return nil, errs.WrapMsg(err, "find messages")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (gateway.Message, error) {
		var m gateway.Message
		err := row.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Text, &m.CreatedAt)
		return m, err
	})
	if err != nil {
		return nil, errs.WrapMsg(err, "scan messages")
	}
	return out, nil
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}
