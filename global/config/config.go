package config

import (
	"context"

	"PPDirect/data/database/mgo"
	"PPDirect/data/database/pg"
	"PPDirect/data/gateway"
	"PPDirect/logger"
	"PPDirect/service/chat"
	"PPDirect/service/natsx"
	"PPDirect/service/storage"
	redis "PPDirect/service/storage/redis"
	"PPDirect/tools/ids"
	"PPDirect/tools/security"
)

func ConfigLogger(cfg *AppConfig) {
	logger.SetLevel(cfg.LogLevel)
}

func ConfigIds(cfg *AppConfig) {
	logger.Infof("snowflake node id=%d", cfg.NodeId)
	ids.SetNodeID(cfg.NodeId)
}

func ConfigAuth(cfg *AppConfig) *security.Authenticator {
	opts := security.DefaultOptions([]byte(cfg.JwtSecret))
	if cfg.TokenTTL > 0 {
		opts.TTL = cfg.TokenTTL
	}
	return security.NewAuthenticator(opts)
}

// ConfigStore opens the Persistence Gateway selected by cfg.Store.
func ConfigStore(ctx context.Context, cfg *AppConfig) (gateway.Gateway, error) {
	switch cfg.Store {
	case StorePostgres:
		logger.Infof("store: postgres")
		return pg.NewStore(ctx, cfg.Postgres.DSN)
	case StoreMemory:
		logger.Warnf("store: memory, data is lost on exit")
		return gateway.NewMemory(), nil
	default:
		logger.Infof("store: mongo db=%s", cfg.Mongo.Database)
		return mgo.NewStore(ctx, &cfg.Mongo)
	}
}

// ConfigRedis returns the Redis presence mirror, or nil when REDIS_ADDR is unset.
func ConfigRedis(cfg *AppConfig) (chat.PresenceSink, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb, err := redis.InitRedis(cfg.Redis)
	if err != nil {
		return nil, err
	}
	logger.Infof("presence mirror: redis %s", cfg.Redis.Addr)
	return storage.NewPresenceMirror(rdb), nil
}

// ConfigNats returns the NATS client and presence publisher, or nils when
// NATS_URL is unset.
func ConfigNats(cfg *AppConfig) (*natsx.NatsxClient, chat.PresenceSink, error) {
	if len(cfg.Nats.Servers) == 0 {
		return nil, nil, nil
	}
	c, err := natsx.NewNatsxClient(cfg.Nats)
	if err != nil {
		return nil, nil, err
	}
	pub, err := natsx.NewPresencePublisher(c)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	logger.Infof("presence events: nats subject=%s", natsx.PresenceSubject)
	return c, pub, nil
}

func ConfigHub(cfg *AppConfig, auth chat.Verifier, store chat.MessageStore, sinks ...chat.PresenceSink) *chat.Hub {
	opts := chat.DefaultOptions()
	opts.HeartbeatInterval = cfg.Hub.HeartbeatInterval
	opts.HeartbeatTimeout = cfg.Hub.HeartbeatTimeout
	if cfg.Hub.SendQueue > 0 {
		opts.SendQueue = cfg.Hub.SendQueue
	}
	for _, s := range sinks {
		if s != nil {
			opts.Sinks = append(opts.Sinks, s)
		}
	}
	return chat.NewHub(auth, store, opts)
}
