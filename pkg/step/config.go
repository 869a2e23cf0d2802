package step

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// IdentifierKey is the configuration key holding the step identifier.
const IdentifierKey = "identifier"

// Config is the persisted step configuration. Keys other than identifier
// are preserved but not interpreted.
type Config map[string]any

// Settings is the typed view of the recognised configuration keys.
type Settings struct {
	Identifier string `mapstructure:"identifier"`
}

// NewConfig returns a configuration with an empty identifier.
func NewConfig() Config {
	return Config{IdentifierKey: ""}
}

// Identifier returns the identifier, or "" when it is absent or not a string.
func (c Config) Identifier() string {
	s, _ := c[IdentifierKey].(string)
	return s
}

// Settings decodes the recognised keys.
func (c Config) Settings() (Settings, error) {
	var s Settings
	if err := mapstructure.Decode(map[string]any(c), &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Clone returns a shallow copy.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge copies every key of other into c.
func (c Config) Merge(other map[string]any) {
	for k, v := range other {
		c[k] = v
	}
}

// Serialize encodes the configuration as sorted-key JSON.
func (c Config) Serialize() (string, error) {
	data, err := json.MarshalIndent(map[string]any(c), "", "    ")
	if err != nil {
		return "", fmt.Errorf("serialize config: %w", err)
	}
	return string(data), nil
}

// ParseConfig decodes a JSON object. Numbers are kept as json.Number so values
// of unknown keys survive a round trip unchanged.
func ParseConfig(text string) (Config, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: unexpected data after object")
	}
	return Config(m), nil
}
