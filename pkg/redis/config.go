package redis

import "time"

// Config holds the environment-driven Redis settings. An empty URL means the
// application runs without Redis; callers decide whether that is acceptable.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                              // ConnectionURL is e.g. "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`   // RetryInterval is the delay between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // ConnectTimeout bounds the whole connect sequence.
}

// Enabled reports whether a Redis connection is configured at all.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
