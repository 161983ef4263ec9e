package envbasic

import (
	"time"

	"github.com/seitarof/gen-env/fromenv"
)

// Option is a value that may be missing.
type Option[T any] struct {
	Value T
	Valid bool
}

func (o *Option[T]) UnmarshalText(b []byte) error {
	v, err := fromenv.Parse[T](string(b))
	if err != nil {
		return err
	}
	o.Value, o.Valid = v, true
	return nil
}

type Database struct {
	Host string `env:"default=\"localhost\""`
	Port int    `env:"from=DB_PORT,default=5432"`
}

// Config is loaded from the environment.
type Config struct {
	// APIKey authenticates outgoing calls.
	//env:from=SECRET_KEY
	APIKey string

	RetryCount Option[uint32]
	Timeout    time.Duration `json:"timeout" env:"with=time.ParseDuration"`
	DB         Database      `env:"nested"`
	Scratch    string        `env:"ignored"`
	Verbose    *bool         // enables debug output
	Host, Zone string        `env:"from"`
	_, Region  string
	_          int
}

type Level int

type NotStruct = int
