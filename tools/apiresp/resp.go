package apiresp

import (
	"net/http"

	"PPDirect/logger"
	"PPDirect/tools/errs"

	"github.com/gin-gonic/gin"
)

// Fail writes err as {"error": "..."} with the status its code maps to.
// Unclassified errors are logged and hidden behind a generic 500.
func Fail(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("[http] %s %s: %+v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	msg := errs.Code(err).EMsg()
	c.JSON(status, gin.H{"error": msg})
}
