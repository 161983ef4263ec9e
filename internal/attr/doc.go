// Package attr reads the `env` annotations attached to a struct field.
//
// Annotations come from the `env` struct tag key and from `//env:` comment
// directives in the field's doc comment:
//
//	type Config struct {
//		//env:from=SECRET_KEY
//		APIKey string
//
//		Port    int           `env:"default=8080"`
//		Timeout time.Duration `env:"with=time.ParseDuration"`
//		DB      Database      `env:"nested"`
//		Scratch string        `env:"ignored"`
//	}
//
// Parse never stops at the first problem. Every malformed block, malformed
// item, unknown option or bad value is recorded and the remaining items are
// still read.
package attr
