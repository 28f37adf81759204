package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "PPDirect/tools/security"

	"github.com/gin-gonic/gin"
)

func newEngine(auth *jwtlib.Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Middleware(auth, nil), func(c *gin.Context) {
		id, ok := CurrentIdentity(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, id)
	})
	return r
}

func TestMiddleware(t *testing.T) {
	auth := jwtlib.NewAuthenticator(jwtlib.Options{Secret: []byte("s3cret"), TTL: time.Hour})
	token, _, err := auth.Sign(jwtlib.Identity{UserID: "u1", Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	r := newEngine(auth)

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "garbage"})
		}, http.StatusUnauthorized},
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
		}, http.StatusOK},
		{"bearer", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}
		})
	}
}
