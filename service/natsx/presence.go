package natsx

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"PPDirect/service/chat"
)

const (
	PresenceBiz     = "presence"
	PresenceSubject = "dm.presence"
)

// PresencePublisher publishes every OnlineSet as {"online":[...]} so other
// processes can follow presence without a socket.
type PresencePublisher struct {
	producer *NatsxProducer
}

var _ chat.PresenceSink = (*PresencePublisher)(nil)

func NewPresencePublisher(c *NatsxClient) (*PresencePublisher, error) {
	if err := c.RegisterRoute(NatsxRoute{Biz: PresenceBiz, Subject: PresenceSubject}); err != nil {
		return nil, err
	}
	return &PresencePublisher{producer: NewNatsxProducer(c)}, nil
}

func (p *PresencePublisher) Name() string { return "nats" }

func (p *PresencePublisher) PublishOnline(ctx context.Context, set chat.OnlineSet) error {
	hdr := map[string]string{"ts": strconv.FormatInt(time.Now().UnixMilli(), 10)}
	return p.producer.Publish(ctx, PresenceBiz, chat.EncodePresence(set), hdr)
}

// SubscribePresence decodes presence events published by PresencePublisher.
func SubscribePresence(c *NatsxClient, fn func(chat.OnlineSet)) error {
	if err := c.RegisterRoute(NatsxRoute{Biz: PresenceBiz, Subject: PresenceSubject}); err != nil {
		return err
	}
	return NewNatsxConsumer(c).Subscribe(PresenceBiz, func(_ context.Context, msg NatsxMessage) error {
		var frame struct {
			Online chat.OnlineSet `json:"online"`
		}
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			return err
		}
		fn(frame.Online)
		return nil
	})
}
