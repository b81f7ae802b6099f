package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

type config struct {
	Production           bool          `env:"PRODUCTION" envDefault:"false"`
	Port                 string        `env:"PORT" envDefault:"80"`
	PostgresUrl          string        `env:"POSTGRES_URL,required"`
	RedisUrl             string        `env:"REDIS_URL" envDefault:"redis:6379"`
	JwtTTL               time.Duration `env:"TOKEN_TTL" envDefault:"20m"`
	Secret               string        `env:"SECRET,required"`
	SessionTTl           time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionTokenLength   int           `env:"SESSION_TOKEN_LENGTH" envDefault:"32"`
	QuorumFraction       float64       `env:"REHEARSAL_QUORUM" envDefault:"0.6667"`
	ExpansionMaxEntries  int           `env:"EXPANSION_MAX_OCCURRENCES" envDefault:"366"`
	CommitTimeout        time.Duration `env:"COMMIT_TIMEOUT" envDefault:"10s"`
	CompletionPeriod     time.Duration `env:"COMPLETION_PERIOD" envDefault:"60s"`
	NotificationsChannel string        `env:"NOTIFICATIONS_CHANNEL_PREFIX" envDefault:"band."`
}

var conf config

func init() {
	if err := env.Parse(&conf); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}

func Production() bool {
	return conf.Production
}

func Port() string {
	return conf.Port
}

func PostgresURL() string {
	return conf.PostgresUrl
}

func RedisURL() string {
	return conf.RedisUrl
}

func JwtTTL() time.Duration {
	return conf.JwtTTL
}

func Secret() string {
	return conf.Secret
}

func SessionTTl() time.Duration {
	return conf.SessionTTl
}

func SessionTokenLength() int {
	return conf.SessionTokenLength
}

func QuorumFraction() float64 {
	return conf.QuorumFraction
}

func ExpansionMaxEntries() int {
	return conf.ExpansionMaxEntries
}

func CommitTimeout() time.Duration {
	return conf.CommitTimeout
}

func CompletionPeriod() time.Duration {
	return conf.CompletionPeriod
}

func NotificationsChannelPrefix() string {
	return conf.NotificationsChannel
}
