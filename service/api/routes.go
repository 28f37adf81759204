package api

import (
	"net/http"

	"PPDirect/data/gateway"
	"PPDirect/middleware"
	midsec "PPDirect/middleware/security"
	"PPDirect/module/message"
	"PPDirect/module/user"
	usersvc "PPDirect/module/user/service"
	"PPDirect/service/chat"
	jwtlib "PPDirect/tools/security"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Store        gateway.Gateway
	Auth         *jwtlib.Authenticator
	Hub          *chat.Hub
	ClientURL    string
	CookieSecure bool
	BcryptCost   int // 0 keeps the bcrypt default
}

// NewEngine builds the gin engine with every HTTP and WebSocket route.
func NewEngine(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog())

	mgr := middleware.NewManager()
	mgr.Add(middleware.Origin(d.ClientURL))
	r.Use(mgr.Use())

	Register(r, d)
	return r
}

func Register(r *gin.Engine, d Deps) {
	routes := middleware.Routes{Auth: midsec.Middleware(d.Auth, nil)}

	svc := usersvc.NewUserService(d.Store, d.Auth)
	if d.BcryptCost > 0 {
		svc.WithCost(d.BcryptCost)
	}
	users := user.NewHandler(svc, d.CookieSecure)
	history := message.NewHandler(d.Store)
	ws := chat.NewServer(d.Hub, d.ClientURL)

	routes.GET(r, "/test", func(c *gin.Context) { c.JSON(http.StatusOK, "test ok") }, middleware.RouteOpt{})
	routes.POST(r, "/register", users.Register, middleware.RouteOpt{})
	routes.POST(r, "/login", users.Login, middleware.RouteOpt{})
	routes.POST(r, "/logout", users.Logout, middleware.RouteOpt{})
	routes.GET(r, "/profile", users.Profile, middleware.RouteOpt{IsAuth: true})
	routes.GET(r, "/people", users.People, middleware.RouteOpt{})
	routes.GET(r, "/messages/:userId", history.History, middleware.RouteOpt{IsAuth: true})
	routes.GET(r, "/online", func(c *gin.Context) { c.JSON(http.StatusOK, d.Hub.Online()) }, middleware.RouteOpt{})
	routes.GET(r, "/ws", ws.HandleWS, middleware.RouteOpt{})
}
