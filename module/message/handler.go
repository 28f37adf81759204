package message

import (
	"context"
	"net/http"
	"strings"

	"PPDirect/data/gateway"
	midsec "PPDirect/middleware/security"
	"PPDirect/tools/apiresp"
	"PPDirect/tools/errs"

	"github.com/gin-gonic/gin"
)

type HistoryReader interface {
	FindMessagesBetween(ctx context.Context, userA, userB string) ([]gateway.Message, error)
}

type Handler struct {
	store HistoryReader
}

func NewHandler(store HistoryReader) *Handler {
	return &Handler{store: store}
}

// History handles GET /messages/:userId: the conversation between the caller
// and userId, oldest first.
func (h *Handler) History(c *gin.Context) {
	id, ok := midsec.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, "no token")
		return
	}
	other := strings.TrimSpace(c.Param("userId"))
	if other == "" {
		apiresp.Fail(c, errs.ErrArgs.WrapMsg("userId required"))
		return
	}
	msgs, err := h.store.FindMessagesBetween(c.Request.Context(), id.UserID, other)
	if err != nil {
		apiresp.Fail(c, err)
		return
	}
	if msgs == nil {
		msgs = []gateway.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}
