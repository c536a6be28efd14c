// Package raw reads environment variables for code that runs before the
// logger exists. It must not import the logger
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the environment
type Conf struct{ prefix string }

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix narrows the view, LOG_ turns LEVEL into LOG_LEVEL
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(c.prefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Get returns the trimmed value or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return def
}

// Bool parses the value with strconv.ParseBool, falling back to def
func (c Conf) Bool(key string, def bool) bool {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
