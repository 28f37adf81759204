package chat

import (
	"context"

	"PPDirect/data/gateway"
	"PPDirect/logger"
	"PPDirect/tools/errs"
)

// MessageStore is the slice of the Persistence Gateway the router needs.
type MessageStore interface {
	FindUserByID(ctx context.Context, id string) (*gateway.User, error)
	CreateMessage(ctx context.Context, sender, recipient, text string) (*gateway.Message, error)
}

// Router persists inbound chat messages and delivers them to the
// recipient's live connections.
type Router struct {
	reg   *Registry
	store MessageStore
}

func NewRouter(reg *Registry, store MessageStore) *Router {
	return &Router{reg: reg, store: store}
}

// HandleInbound processes one payload read from h. The message is persisted
// before any delivery; delivery failures are swallowed. Nothing is retried.
func (r *Router) HandleInbound(ctx context.Context, h Handle, payload []byte) (*gateway.Message, error) {
	msg, err := r.handle(ctx, h, payload)
	if err != nil {
		reason := "unknown"
		if ce := errs.Code(err); ce != nil {
			reason = ce.EMsg()
		}
		metrics.reject(reason)
		return nil, err
	}
	metrics.routed.Add(ctx, 1)
	return msg, nil
}

func (r *Router) handle(ctx context.Context, h Handle, payload []byte) (*gateway.Message, error) {
	in, err := ParseInbound(payload)
	if err != nil {
		return nil, err
	}
	sender, state := r.reg.Identity(h)
	if state != StateBound {
		return nil, errs.ErrUnauthenticated.WrapMsg("sender not bound", "conn", h, "state", state)
	}

	switch in.Kind {
	case InboundChat:
		return r.routeChat(ctx, sender.UserID, in.Chat)
	default:
		return nil, errs.ErrMalformedPayload.WrapMsg("unknown payload kind", "kind", in.Kind)
	}
}

func (r *Router) routeChat(ctx context.Context, sender string, p ChatPayload) (*gateway.Message, error) {
	if p.Recipient == sender {
		return nil, errs.ErrMalformedPayload.WrapMsg("recipient is sender", "user", sender)
	}
	u, err := r.store.FindUserByID(ctx, p.Recipient)
	if err != nil {
		return nil, errs.ErrPersistence.WrapErr(err, "lookup recipient", "recipient", p.Recipient)
	}
	if u == nil {
		return nil, errs.ErrMalformedPayload.WrapMsg("unknown recipient", "recipient", p.Recipient)
	}

	msg, err := r.store.CreateMessage(ctx, sender, p.Recipient, p.Text)
	if err != nil {
		return nil, errs.ErrPersistence.WrapErr(err, "create message", "sender", sender, "recipient", p.Recipient)
	}

	conns := r.reg.Lookup(msg.Recipient)
	if len(conns) == 0 {
		logger.Debugf("[router] recipient offline, stored only msg=%s", msg.ID)
		return msg, nil
	}
	frame := EncodeChat(msg)
	for _, c := range conns {
		if err := c.Enqueue(frame); err != nil {
			logger.Debugf("[router] deliver skipped conn=%s err=%v", c.ID(), err)
		}
	}
	return msg, nil
}
