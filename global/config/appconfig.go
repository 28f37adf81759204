package config

import (
	"time"

	"PPDirect/data/database/mgo/mongoutil"
	"PPDirect/service/natsx"
	redis "PPDirect/service/storage/redis"
)

const defaultMongoURI = "mongodb://localhost:27017"

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type HubConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeatTimeout"`
	SendQueue         int           `yaml:"sendQueue"`
}

type AppConfig struct {
	NodeId       int64         `yaml:"nodeId"`
	Port         int           `yaml:"port"`
	ClientURL    string        `yaml:"clientUrl"`
	JwtSecret    string        `yaml:"jwtSecret"`
	TokenTTL     time.Duration `yaml:"tokenTtl"`
	CookieSecure bool          `yaml:"cookieSecure"`
	LogLevel     string        `yaml:"logLevel"`

	Store    string            `yaml:"store"` // mongo | postgres | memory
	Mongo    mongoutil.Config  `yaml:"mongo"`
	Postgres PostgresConfig    `yaml:"postgres"`
	Redis    redis.Config      `yaml:"redis"`
	Nats     natsx.NatsxConfig `yaml:"nats"`
	Hub      HubConfig         `yaml:"hub"`
}

func Default() AppConfig {
	return AppConfig{
		NodeId:       1,
		Port:         4040,
		TokenTTL:     7 * 24 * time.Hour,
		CookieSecure: true,
		LogLevel:     "info",
		Store:        StoreMongo,
		Mongo: mongoutil.Config{
			Database:    "ppdirect",
			MaxPoolSize: 20,
			MaxRetry:    3,
		},
		Redis: redis.Config{PoolSize: 10},
		Nats:  natsx.NatsxConfig{Name: "ppdirect"},
		Hub: HubConfig{
			HeartbeatInterval: 5 * time.Second,
			HeartbeatTimeout:  time.Second,
			SendQueue:         256,
		},
	}
}
