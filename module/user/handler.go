package user

import (
	"net/http"
	"time"

	midsec "PPDirect/middleware/security"
	"PPDirect/module/user/service"
	"PPDirect/tools/apiresp"
	"PPDirect/tools/errs"

	"github.com/gin-gonic/gin"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Handler struct {
	svc          *service.UserService
	cookieSecure bool
}

// NewHandler builds the account handlers. cookieSecure marks the session
// cookie Secure with SameSite=None, which cross-site browser clients need.
func NewHandler(svc *service.UserService, cookieSecure bool) *Handler {
	return &Handler{svc: svc, cookieSecure: cookieSecure}
}

func (h *Handler) setToken(c *gin.Context, token string, exp time.Time) {
	maxAge := -1
	if token != "" {
		maxAge = int(time.Until(exp).Seconds())
	}
	if h.cookieSecure {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(midsec.TokenCookie, token, maxAge, "/", "", h.cookieSecure, true)
}

func bindCredentials(c *gin.Context) (credentials, error) {
	var in credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, errs.ErrArgs.WrapMsg("invalid body", "err", err)
	}
	return in, nil
}

// Register handles POST /register.
func (h *Handler) Register(c *gin.Context) {
	in, err := bindCredentials(c)
	if err != nil {
		apiresp.Fail(c, err)
		return
	}
	sess, err := h.svc.Register(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		apiresp.Fail(c, err)
		return
	}
	h.setToken(c, sess.Token, sess.ExpireAt)
	c.JSON(http.StatusCreated, gin.H{"id": sess.User.ID})
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	in, err := bindCredentials(c)
	if err != nil {
		apiresp.Fail(c, err)
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		apiresp.Fail(c, err)
		return
	}
	h.setToken(c, sess.Token, sess.ExpireAt)
	c.JSON(http.StatusOK, gin.H{"id": sess.User.ID})
}

func (h *Handler) Logout(c *gin.Context) {
	h.setToken(c, "", time.Time{})
	c.JSON(http.StatusOK, "ok")
}

// Profile echoes the caller's identity; it runs behind the auth middleware.
func (h *Handler) Profile(c *gin.Context) {
	id, ok := midsec.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, "no token")
		return
	}
	c.JSON(http.StatusOK, id)
}

func (h *Handler) People(c *gin.Context) {
	people, err := h.svc.People(c.Request.Context())
	if err != nil {
		apiresp.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, people)
}
