package config

import (
	"strings"
	"time"
)

// Config is a read-only view over decoded configuration values.
type Config struct {
	data map[string]any
}

// New wraps data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// lookup resolves key, first as a literal key, then as a dotted path.
func (c Config) lookup(key string) (any, bool) {
	if v, ok := c.data[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return nil, false
	}
	cur := c.data
	parts := strings.Split(key, ".")
	for i, part := range parts {
		v, ok := cur[part]
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, ok := asMap(v)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// asMap accepts both map[string]any and the map[any]any some decoders produce.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	}
	return nil, false
}

// String returns the string at key.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.get(key).(string); ok {
		return s
	}
	return defaultVal
}

func (c Config) get(key string) any {
	v, _ := c.lookup(key)
	return v
}

// Bool returns the bool at key.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.get(key).(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer at key. Whole float64 values are accepted since
// JSON decodes every number as float64.
func (c Config) Int(key string, defaultVal int) int {
	switch v := c.get(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return defaultVal
}

// Uint64 returns a non-negative integer at key, for seeds.
func (c Config) Uint64(key string, defaultVal uint64) uint64 {
	switch v := c.get(key).(type) {
	case uint64:
		return v
	case int:
		if v >= 0 {
			return uint64(v)
		}
	case int64:
		if v >= 0 {
			return uint64(v)
		}
	case float64:
		if v >= 0 && v == float64(uint64(v)) {
			return uint64(v)
		}
	}
	return defaultVal
}

// Float returns the number at key.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch v := c.get(key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return defaultVal
}

// Duration returns the duration at key. Strings go through
// time.ParseDuration; bare numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch v := c.get(key).(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case time.Duration:
		return v
	}
	return defaultVal
}

// Date returns the calendar date at key as midnight UTC. Accepts
// "2006-01-02", RFC 3339 strings and time.Time; a time of day is dropped.
func (c Config) Date(key string, defaultVal time.Time) time.Time {
	switch v := c.get(key).(type) {
	case time.Time:
		return truncateDay(v)
	case string:
		if t, err := ParseDate(v); err == nil {
			return t
		}
	}
	return defaultVal
}

// ParseDate parses "2006-01-02" or RFC 3339 into midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return truncateDay(t), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StringSlice returns the list of strings at key. A list holding any
// non-string yields defaultVal.
func (c Config) StringSlice(key string, defaultVal []string) []string {
	switch v := c.get(key).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Map returns the nested map at key, or nil.
func (c Config) Map(key string) map[string]any {
	m, _ := asMap(c.get(key))
	return m
}

// Sub returns the nested map at key as a Config. Missing keys give an empty
// Config.
func (c Config) Sub(key string) Config {
	return New(c.Map(key))
}

// Any returns the raw value at key.
func (c Config) Any(key string, defaultVal any) any {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return defaultVal
}

// Has reports whether key resolves to a value.
func (c Config) Has(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// Raw returns the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}
