package security

import (
	"fmt"
	"strings"
	"time"

	"PPDirect/tools/decode"
	"PPDirect/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Identity is the principal resolved from a verified session credential.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func (i Identity) Valid() bool { return i.UserID != "" && i.Username != "" }

// Options controls signing and token lifetime.
type Options struct {
	Secret []byte        // HMAC key (ENV/KMS in production)
	Alg    string        // HS256/HS384/HS512 (default HS256)
	TTL    time.Duration // token lifetime (default 7 days)
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 7 * 24 * time.Hour}
}

// Sign issues a session token carrying the identity.
func Sign(opts Options, id Identity) (token string, expireAt time.Time, err error) {
	if !id.Valid() {
		return "", time.Time{}, errs.ErrArgs.WrapMsg("identity incomplete", "userId", id.UserID)
	}
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)

	claims := jwtlib.MapClaims{
		"userId":   id.UserID,
		"username": id.Username,
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	}
	tok := jwtlib.NewWithClaims(method, claims)
	signed, err := tok.SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, errs.WrapMsg(err, "sign token")
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and extracts the identity.
func Verify(opts Options, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, errs.ErrUnauthenticated.WrapMsg("no token")
	}
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return Identity{}, err
	}
	// only the configured algorithm verifies
	parsed, err := jwtlib.Parse(token, func(_ *jwtlib.Token) (interface{}, error) {
		return opts.Secret, nil
	}, jwtlib.WithValidMethods([]string{method.Alg()}))
	if err != nil {
		return Identity{}, errs.ErrTokenInvalid.WrapMsg(err.Error())
	}
	if !parsed.Valid {
		return Identity{}, errs.ErrTokenInvalid.WrapMsg("invalid token")
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return Identity{}, errs.ErrTokenInvalid.WrapMsg("claims type mismatch")
	}
	id, err := decode.DecodeMap[Identity](claims)
	if err != nil {
		return Identity{}, errs.ErrTokenInvalid.WrapMsg(err.Error())
	}
	if !id.Valid() {
		return Identity{}, errs.ErrTokenInvalid.WrapMsg("claims missing identity")
	}
	return *id, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}

// Authenticator binds Options to the verify(token) contract the hub and middleware use.
type Authenticator struct {
	opts Options
}

func NewAuthenticator(opts Options) *Authenticator {
	return &Authenticator{opts: opts}
}

func (a *Authenticator) Verify(token string) (Identity, error) {
	return Verify(a.opts, token)
}

func (a *Authenticator) Sign(id Identity) (string, time.Time, error) {
	return Sign(a.opts, id)
}
