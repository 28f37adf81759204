package service

import (
	"context"
	"strings"
	"time"

	"PPDirect/data/gateway"
	"PPDirect/tools/errs"
	jwtlib "PPDirect/tools/security"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxUsernameLen = 64
	maxPasswordLen = 72 // bcrypt input limit
)

// Session is what a successful register or login hands back.
type Session struct {
	User     *gateway.User
	Token    string
	ExpireAt time.Time
}

type UserService struct {
	store gateway.Gateway
	auth  *jwtlib.Authenticator
	cost  int
}

func NewUserService(store gateway.Gateway, auth *jwtlib.Authenticator) *UserService {
	return &UserService{store: store, auth: auth, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *UserService) WithCost(cost int) *UserService {
	s.cost = cost
	return s
}

func validateCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLen {
		return "", errs.ErrArgs.WrapMsg("username must be 1-64 characters")
	}
	if password == "" || len(password) > maxPasswordLen {
		return "", errs.ErrArgs.WrapMsg("password must be 1-72 bytes")
	}
	return username, nil
}

func (s *UserService) Register(ctx context.Context, username, password string) (*Session, error) {
	username, err := validateCredentials(username, password)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errs.WrapMsg(err, "hash password")
	}
	u, err := s.store.CreateUser(ctx, username, string(hash))
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

// Login fails with ErrBadCredentials for an unknown user and for a wrong
// password alike.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	username, err := validateCredentials(username, password)
	if err != nil {
		return nil, errs.ErrBadCredentials.WrapMsg("invalid credentials")
	}
	u, err := s.store.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errs.ErrBadCredentials.WrapMsg("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errs.ErrBadCredentials.WrapMsg("invalid credentials")
	}
	return s.session(u)
}

func (s *UserService) session(u *gateway.User) (*Session, error) {
	token, exp, err := s.auth.Sign(jwtlib.Identity{UserID: u.ID, Username: u.Username})
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpireAt: exp}, nil
}

func (s *UserService) People(ctx context.Context) ([]gateway.UserSummary, error) {
	people, err := s.store.FindUsers(ctx)
	if err != nil {
		return nil, err
	}
	if people == nil {
		people = []gateway.UserSummary{}
	}
	return people, nil
}
