package config

import (
	"os"
	"strings"

	"PPDirect/tools"
	"PPDirect/tools/errs"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration: defaults, then the YAML file at path (or
// $CONFIG_FILE), then envFiles (".env" when none given, missing files are
// skipped), then the process environment.
func Load(path string, envFiles ...string) (*AppConfig, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.WrapMsg(err, "read config", "path", path)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, errs.ErrArgs.WrapMsg("parse config", "path", path, "err", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errs.WrapMsg(err, "load env file", "path", f)
		}
	}

	applyEnv(&cfg)
	if cfg.Mongo.Uri == "" && len(cfg.Mongo.Address) == 0 {
		cfg.Mongo.Uri = defaultMongoURI
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *AppConfig) {
	cfg.NodeId = int64(tools.GetEnvInt("NODE_ID", int(cfg.NodeId)))
	cfg.Port = tools.GetEnvInt("PORT", cfg.Port)
	cfg.ClientURL = tools.GetEnv("CLIENT_URL", cfg.ClientURL)
	cfg.JwtSecret = tools.GetEnv("JWT_SECRET", cfg.JwtSecret)
	cfg.TokenTTL = tools.GetEnvDuration("TOKEN_TTL", cfg.TokenTTL)
	cfg.CookieSecure = tools.GetEnvBool("COOKIE_SECURE", cfg.CookieSecure)
	cfg.LogLevel = tools.GetEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.Store = strings.ToLower(tools.GetEnv("STORE", cfg.Store))
	cfg.Mongo.Uri = tools.GetEnv("MONGO_URL", cfg.Mongo.Uri)
	cfg.Mongo.Database = tools.GetEnv("MONGO_DATABASE", cfg.Mongo.Database)
	cfg.Postgres.DSN = tools.GetEnv("DATABASE_URL", cfg.Postgres.DSN)

	cfg.Redis.Addr = tools.GetEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = tools.GetEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = tools.GetEnvInt("REDIS_DB", cfg.Redis.DB)

	if v := tools.GetEnv("NATS_URL", ""); v != "" {
		cfg.Nats.Servers = strings.Split(v, ",")
	}

	cfg.Hub.HeartbeatInterval = tools.GetEnvDuration("HEARTBEAT_INTERVAL", cfg.Hub.HeartbeatInterval)
	cfg.Hub.HeartbeatTimeout = tools.GetEnvDuration("HEARTBEAT_TIMEOUT", cfg.Hub.HeartbeatTimeout)
	cfg.Hub.SendQueue = tools.GetEnvInt("SEND_QUEUE", cfg.Hub.SendQueue)
}

func (c *AppConfig) Validate() error {
	if c.JwtSecret == "" {
		return errs.ErrArgs.WrapMsg("JWT_SECRET is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errs.ErrArgs.WrapMsg("invalid port", "port", c.Port)
	}
	switch c.Store {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return errs.ErrArgs.WrapMsg("DATABASE_URL is required for the postgres store")
		}
	default:
		return errs.ErrArgs.WrapMsg("unknown store", "store", c.Store)
	}
	if c.Hub.HeartbeatInterval <= 0 || c.Hub.HeartbeatTimeout <= 0 {
		return errs.ErrArgs.WrapMsg("heartbeat interval and timeout must be positive")
	}
	return nil
}
