package storage

import (
	"context"
	"encoding/json"

	"PPDirect/service/chat"
	"PPDirect/tools/errs"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	OnlineKey         = "dm:online"          // hash userId -> username
	OnlineSnapshotKey = "dm:online:snapshot" // full OnlineSet, one entry per connection
)

// PresenceMirror keeps the latest OnlineSet in Redis for readers outside
// this process.
type PresenceMirror struct {
	rdb redis.UniversalClient
}

var _ chat.PresenceSink = (*PresenceMirror)(nil)

func NewPresenceMirror(rdb redis.UniversalClient) *PresenceMirror {
	return &PresenceMirror{rdb: rdb}
}

func (p *PresenceMirror) Name() string { return "redis" }

// PublishOnline replaces both keys in one MULTI/EXEC.
func (p *PresenceMirror) PublishOnline(ctx context.Context, set chat.OnlineSet) error {
	fields := make(map[string]any, len(set))
	for _, e := range set {
		fields[e.UserID] = e.Username
	}
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, OnlineKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, OnlineKey, fields)
		}
		pipe.Set(ctx, OnlineSnapshotKey, chat.EncodePresence(set), 0)
		return nil
	})
	if err != nil {
		return errs.WrapMsg(err, "mirror online set", "size", len(set))
	}
	return nil
}

// OnlineUsers reads the deduplicated userId -> username view.
func (p *PresenceMirror) OnlineUsers(ctx context.Context) (map[string]string, error) {
	m, err := p.rdb.HGetAll(ctx, OnlineKey).Result()
	if err != nil {
		return nil, errs.WrapMsg(err, "read online users")
	}
	return m, nil
}

// Snapshot reads the last mirrored OnlineSet; empty when nothing was mirrored.
func (p *PresenceMirror) Snapshot(ctx context.Context) (chat.OnlineSet, error) {
	raw, err := p.rdb.Get(ctx, OnlineSnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.OnlineSet{}, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "read online snapshot")
	}
	var frame struct {
		Online chat.OnlineSet `json:"online"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, errs.WrapMsg(err, "decode online snapshot")
	}
	return frame.Online, nil
}
