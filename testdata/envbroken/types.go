package envbroken

import "time"

type Option[T any] struct {
	Value T
	Valid bool
}

type Config struct {
	RetryCount Option[uint32] `env:"default=\"3\""`
	Unused     string         `env:"ignored,rename=X"`
	Sub        Inner          `env:"nested,from"`
	Port       int            `env:"form=PORT"`
	//env
	Timeout time.Duration
	Name    string `env:"from=NAME"`
}

type Inner struct {
	Value string
}
