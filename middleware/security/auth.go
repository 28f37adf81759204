package security

import (
	"net/http"
	"strings"

	"PPDirect/tools/errs"
	jwtlib "PPDirect/tools/security"

	"github.com/gin-gonic/gin"
)

const (
	PPCtxIdentityKey = "identity"
	TokenCookie      = "token"
)

type Verifier interface {
	Verify(token string) (jwtlib.Identity, error)
}

type Options struct {
	Cookie                    string // default "token"
	EnableAuthorizationBearer bool   // default true
}

func DefaultOptions() *Options {
	return &Options{
		Cookie:                    TokenCookie,
		EnableAuthorizationBearer: true,
	}
}

// TokenFrom reads the session credential from the cookie, then from
// "Authorization: Bearer ...".
func TokenFrom(c *gin.Context, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}
	if v, err := c.Cookie(opts.Cookie); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if opts.EnableAuthorizationBearer {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
	}
	return ""
}

// Middleware rejects requests without a valid session with 401 and stores
// the Identity under PPCtxIdentityKey otherwise.
func Middleware(v Verifier, opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := TokenFrom(c, opts)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, "no token")
			return
		}
		id, err := v.Verify(token)
		if err != nil {
			status := errs.HTTPStatus(err)
			if status == http.StatusInternalServerError {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "invalid token"})
			return
		}
		c.Set(PPCtxIdentityKey, id)
		c.Next()
	}
}

// CurrentIdentity returns the Identity set by Middleware.
func CurrentIdentity(c *gin.Context) (jwtlib.Identity, bool) {
	v, ok := c.Get(PPCtxIdentityKey)
	if !ok {
		return jwtlib.Identity{}, false
	}
	id, ok := v.(jwtlib.Identity)
	return id, ok
}
