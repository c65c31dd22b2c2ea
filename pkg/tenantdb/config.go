package tenantdb

import "time"

type Config struct {
	AcquireTimeout time.Duration `env:"DB_ACQUIRE_TIMEOUT" envDefault:"5s"` // AcquireTimeout bounds how long a request waits for a free connection.
}
