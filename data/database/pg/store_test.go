package pg

import (
	"context"
	"os"
	"testing"

	"PPDirect/tools/errs"
)

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	if !errs.ErrArgs.Is(err) {
		t.Fatalf("want ErrArgs, got %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close(ctx)
	_, _ = s.pool.Exec(ctx, `TRUNCATE users, messages`)

	a, err := s.CreateUser(ctx, "alice", "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	b, err := s.CreateUser(ctx, "bob", "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(ctx, "bob", "h"); !errs.ErrDuplicateUser.Is(err) {
		t.Fatalf("duplicate: got %v", err)
	}

	if _, err := s.CreateMessage(ctx, a.ID, b.ID, "hi"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateMessage(ctx, b.ID, a.ID, "yo"); err != nil {
		t.Fatal(err)
	}
	got, err := s.FindMessagesBetween(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Text != "hi" || got[1].Text != "yo" {
		t.Fatalf("history = %+v", got)
	}

	people, err := s.FindUsers(ctx)
	if err != nil || len(people) != 2 || people[0].Username != "alice" {
		t.Fatalf("people = %+v, %v", people, err)
	}
	if u, _ := s.FindUser(ctx, "nobody"); u != nil {
		t.Fatalf("expected nil user")
	}
}
