package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"PPDirect/data/gateway"
	"PPDirect/tools/errs"
	jwtlib "PPDirect/tools/security"

	"golang.org/x/crypto/bcrypt"
)

func newService() (*UserService, *jwtlib.Authenticator) {
	auth := jwtlib.NewAuthenticator(jwtlib.Options{Secret: []byte("k"), TTL: time.Hour})
	return NewUserService(gateway.NewMemory(), auth).WithCost(bcrypt.MinCost), auth
}

func TestRegisterAndLogin(t *testing.T) {
	svc, auth := newService()
	ctx := context.Background()

	reg, err := svc.Register(ctx, "  alice ", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.User.Username != "alice" || reg.User.PasswordHash == "pw" {
		t.Fatalf("user = %+v", reg.User)
	}
	id, err := auth.Verify(reg.Token)
	if err != nil || id.UserID != reg.User.ID || id.Username != "alice" {
		t.Fatalf("token identity = %+v, %v", id, err)
	}

	if _, err := svc.Register(ctx, "alice", "other"); !errs.ErrDuplicateUser.Is(err) {
		t.Fatalf("duplicate register: %v", err)
	}

	login, err := svc.Login(ctx, "alice", "pw")
	if err != nil || login.User.ID != reg.User.ID {
		t.Fatalf("Login: %+v, %v", login, err)
	}
	for _, bad := range [][2]string{{"alice", "nope"}, {"ghost", "pw"}, {"", ""}} {
		if _, err := svc.Login(ctx, bad[0], bad[1]); !errs.ErrBadCredentials.Is(err) {
			t.Fatalf("login %v: %v", bad, err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	for _, c := range [][2]string{{"", "pw"}, {"bob", ""}, {strings.Repeat("x", 65), "pw"}, {"bob", strings.Repeat("p", 73)}} {
		if _, err := svc.Register(ctx, c[0], c[1]); !errs.ErrArgs.Is(err) {
			t.Fatalf("register %q: %v", c[0], err)
		}
	}
}

func TestPeopleNeverNil(t *testing.T) {
	svc, _ := newService()
	people, err := svc.People(context.Background())
	if err != nil || people == nil || len(people) != 0 {
		t.Fatalf("people = %#v, %v", people, err)
	}
}
