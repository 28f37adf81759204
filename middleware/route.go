package middleware

import (
	"github.com/gin-gonic/gin"
)

type RouteOpt struct {
	IsAuth bool
}

// Routes registers handlers, putting Auth in front of the ones that need a session.
type Routes struct {
	Auth gin.HandlerFunc
}

func (rt Routes) chain(handler gin.HandlerFunc, opt RouteOpt) []gin.HandlerFunc {
	if opt.IsAuth && rt.Auth != nil {
		return []gin.HandlerFunc{rt.Auth, handler}
	}
	return []gin.HandlerFunc{handler}
}

func (rt Routes) POST(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.POST(path, rt.chain(handler, opt)...)
}

func (rt Routes) GET(r gin.IRoutes, path string, handler gin.HandlerFunc, opt RouteOpt) {
	r.GET(path, rt.chain(handler, opt)...)
}
