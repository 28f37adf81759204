package chat

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"PPDirect/logger"
	"PPDirect/tools/errs"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	inboundTimeout = 5 * time.Second
	TokenCookie    = "token"
)

// wsTransport adapts a gorilla connection to Transport.
type wsTransport struct {
	ws        *websocket.Conn
	closeOnce sync.Once
}

func newWSTransport(ws *websocket.Conn) *wsTransport {
	return &wsTransport{ws: ws}
}

func (t *wsTransport) Write(data []byte) error {
	_ = t.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return t.ws.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Ping() error {
	return t.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = t.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		err = t.ws.Close()
	})
	return err
}

func (t *wsTransport) RemoteAddr() string {
	return t.ws.RemoteAddr().String()
}

// Server exposes the hub over WebSocket.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer accepts upgrades from clientURL; an empty clientURL accepts any origin.
func NewServer(hub *Hub, clientURL string) *Server {
	allowed := strings.TrimRight(clientURL, "/")
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowed == "" || origin == "" || strings.EqualFold(origin, allowed)
			},
		},
	}
}

func (s *Server) Hub() *Hub { return s.hub }

// tokenFrom reads the session credential from the token cookie, falling back
// to the token query parameter for non-browser clients.
func tokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(TokenCookie); err == nil && v != "" {
		return v
	}
	return c.Query(TokenCookie)
}

// HandleWS upgrades the request, admits the connection and runs its read loop.
func (s *Server) HandleWS(c *gin.Context) {
	token := tokenFrom(c)
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[WS] upgrade failed addr=%s err=%v", c.Request.RemoteAddr, err)
		return
	}
	t := newWSTransport(ws)
	conn, err := s.hub.Admit(t, token)
	if err != nil {
		logger.Infof("[WS] admit refused addr=%s err=%v", t.RemoteAddr(), err)
		_ = t.Close()
		return
	}
	id := conn.ID()
	defer s.hub.Disconnect(id)

	ws.SetReadLimit(DefaultReadLimit)
	ws.SetPongHandler(func(string) error {
		s.hub.Pong(id)
		return nil
	})

	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s", id)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", id, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", id, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), inboundTimeout)
		msg, herr := s.hub.HandleInbound(ctx, id, data)
		cancel()
		if herr != nil {
			logInbound(id, data, herr)
			continue
		}
		logger.Debugf("[WS] routed conn=%s msg=%s to=%s", id, msg.ID, msg.Recipient)
	}
}

func logInbound(id Handle, data []byte, err error) {
	sample := data
	if len(sample) > 256 {
		sample = sample[:256]
	}
	switch {
	case errs.ErrMalformedPayload.Is(err):
		logger.Infof("[WS] malformed payload conn=%s err=%v sample=%q", id, err, sample)
	case errs.ErrUnauthenticated.Is(err):
		logger.Infof("[WS] unauthenticated send conn=%s", id)
	default:
		logger.Errorf("[WS] inbound failed conn=%s err=%+v", id, err)
	}
}
