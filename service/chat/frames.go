package chat

import (
	"encoding/json"
	"strings"

	"PPDirect/data/gateway"
	"PPDirect/tools/errs"
)

// InboundKind tags the variants a client may send. Only chat exists today.
type InboundKind int

const (
	InboundChat InboundKind = iota + 1
)

type ChatPayload struct {
	Recipient string
	Text      string
}

type Inbound struct {
	Kind InboundKind
	Chat ChatPayload
}

type inboundWire struct {
	Message *struct {
		Recipient *string `json:"recipient"`
		Text      *string `json:"text"`
	} `json:"message"`
}

// ParseInbound decodes {"message":{"recipient":"...","text":"..."}}.
// Missing fields, wrong types and blank values yield ErrMalformedPayload.
func ParseInbound(raw []byte) (Inbound, error) {
	var w inboundWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Inbound{}, errs.ErrMalformedPayload.WrapMsg("invalid json", "err", err)
	}
	if w.Message == nil {
		return Inbound{}, errs.ErrMalformedPayload.WrapMsg("missing message")
	}
	if w.Message.Recipient == nil || strings.TrimSpace(*w.Message.Recipient) == "" {
		return Inbound{}, errs.ErrMalformedPayload.WrapMsg("missing recipient")
	}
	if w.Message.Text == nil || strings.TrimSpace(*w.Message.Text) == "" {
		return Inbound{}, errs.ErrMalformedPayload.WrapMsg("missing text")
	}
	return Inbound{
		Kind: InboundChat,
		Chat: ChatPayload{Recipient: *w.Message.Recipient, Text: *w.Message.Text},
	}, nil
}

type presenceFrame struct {
	Online OnlineSet `json:"online"`
}

type chatFrame struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// EncodePresence renders {"online":[...]}; an empty set encodes as [].
func EncodePresence(set OnlineSet) []byte {
	if set == nil {
		set = OnlineSet{}
	}
	b, _ := json.Marshal(presenceFrame{Online: set})
	return b
}

func EncodeChat(m *gateway.Message) []byte {
	b, _ := json.Marshal(chatFrame{
		ID:        m.ID,
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Text:      m.Text,
	})
	return b
}
