package blocks

import (
	"fmt"
	"slices"
	"strings"

	"patchc/internal/value"
)

// Config is the parameter map of a block instance.
type Config map[string]any

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %q: %s", e.Key, e.Msg)
}

func configErr(key, format string, args ...any) error {
	return &ConfigError{Key: key, Msg: fmt.Sprintf(format, args...)}
}

// Number returns key as a float, or def when absent.
func (c Config) Number(key string, def float64) (float64, error) {
	raw, ok := c[key]
	if !ok || raw == nil {
		return def, nil
	}
	x, err := value.ToFloat(raw)
	if err != nil {
		return 0, configErr(key, "%v", err)
	}
	return x, nil
}

// Positive is Number that also rejects values <= 0.
func (c Config) Positive(key string, def float64) (float64, error) {
	x, err := c.Number(key, def)
	if err != nil {
		return 0, err
	}
	if x <= 0 {
		return 0, configErr(key, "must be positive, got %g", x)
	}
	return x, nil
}

// Count returns key as a non-negative integer.
func (c Config) Count(key string, def int) (int, error) {
	x, err := c.Number(key, float64(def))
	if err != nil {
		return 0, err
	}
	if x < 0 || x != float64(int(x)) {
		return 0, configErr(key, "must be a non-negative integer, got %g", x)
	}
	return int(x), nil
}

// String returns key as a string, or def when absent. When allowed is not
// empty the value must be one of it.
func (c Config) String(key, def string, allowed ...string) (string, error) {
	raw, ok := c[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", configErr(key, "expected string, got %T", raw)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, s) {
		return "", configErr(key, "%q is not one of %s", s, strings.Join(allowed, ", "))
	}
	return s, nil
}

// Numbers returns key as a list of floats.
func (c Config) Numbers(key string) ([]float64, error) {
	raw, ok := c[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		if fl, ok := raw.([]float64); ok {
			return slices.Clone(fl), nil
		}
		return nil, configErr(key, "expected a list, got %T", raw)
	}
	out := make([]float64, len(list))
	for i, item := range list {
		x, err := value.ToFloat(item)
		if err != nil {
			return nil, configErr(key, "element %d: %v", i, err)
		}
		out[i] = x
	}
	return out, nil
}
