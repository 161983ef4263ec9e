// Package fromenv is the runtime used by loaders generated with gen-env.
//
// A generated loader takes one Source snapshot of the environment and reads
// every field from it. Every helper takes a pointer to an accumulated error
// and appends to it instead of returning early, so a loader reports every
// missing or malformed variable at once.
package fromenv

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"
)

// keyDelim cannot occur in variable names, so keys are never split into
// nested paths.
const keyDelim = "="

// MissingError reports a required variable that is not set.
type MissingError struct {
	Key string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("environment variable %s is not set", e.Key)
}

// ParseError reports a variable whose value could not be converted.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("environment variable %s: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Source is a read-only set of variables backed by koanf.
type Source struct {
	k *koanf.Koanf
}

// Env snapshots the process environment.
func Env() *Source {
	k := koanf.New(keyDelim)
	// The env provider reads os.Environ and never fails.
	_ = k.Load(env.Provider("", keyDelim, nil), nil)
	return &Source{k: k}
}

// NewSource wraps an existing koanf instance. Its delimiter must not occur in
// the keys generated loaders look up.
func NewSource(k *koanf.Koanf) *Source {
	return &Source{k: k}
}

// Lookup returns the value of key and whether it is set.
func (s *Source) Lookup(key string) (string, bool) {
	if !s.k.Exists(key) {
		return "", false
	}
	return s.k.String(key), true
}

// Required reads key and fails when it is unset.
func Required[T any](src *Source, errs *error, key string, parse func(string) (T, error)) T {
	var zero T
	raw, ok := src.Lookup(key)
	if !ok {
		*errs = multierr.Append(*errs, &MissingError{Key: key})
		return zero
	}
	return convert(errs, key, raw, parse)
}

// OrDefault reads key and falls back to def when it is unset.
func OrDefault[T any](src *Source, errs *error, key string, parse func(string) (T, error), def T) T {
	raw, ok := src.Lookup(key)
	if !ok {
		return def
	}
	return convert(errs, key, raw, parse)
}

// Optional reads key into a pointer that stays nil when the key is unset.
func Optional[T any](src *Source, errs *error, key string, parse func(string) (T, error)) *T {
	raw, ok := src.Lookup(key)
	if !ok {
		return nil
	}
	v := convert(errs, key, raw, parse)
	return &v
}

// Maybe reads key and leaves the zero value when it is unset. It serves
// wrapper types that represent absence themselves.
func Maybe[T any](src *Source, errs *error, key string, parse func(string) (T, error)) T {
	var zero T
	raw, ok := src.Lookup(key)
	if !ok {
		return zero
	}
	return convert(errs, key, raw, parse)
}

// Nested runs the loader of a nested struct and keeps its errors.
func Nested[T any](errs *error, load func() (T, error)) T {
	v, err := load()
	if err != nil {
		*errs = multierr.Append(*errs, err)
	}
	return v
}

func convert[T any](errs *error, key, raw string, parse func(string) (T, error)) T {
	v, err := parse(raw)
	if err != nil {
		*errs = multierr.Append(*errs, &ParseError{Key: key, Err: err})
	}
	return v
}

// Errors splits an error returned by a generated loader into the individual
// variable errors.
func Errors(err error) []error {
	return multierr.Errors(err)
}

// Dotenv loads variables from .env files without overriding variables that
// are already set. With no arguments it reads ./.env. Call it before the
// loaders so their snapshot includes the loaded variables.
func Dotenv(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// Parse converts raw into T with the decoder koanf uses for unmarshalling:
// strings, booleans, numbers (with 0x/0o/0b prefixes), time.Duration,
// comma-separated slices and types implementing encoding.TextUnmarshaler.
func Parse[T any](raw string) (T, error) {
	var v T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           &v,
	})
	if err != nil {
		return v, err
	}
	if err := dec.Decode(raw); err != nil {
		return v, fmt.Errorf("cannot parse %q as %s: %w", raw, reflect.TypeFor[T](), err)
	}
	return v, nil
}
