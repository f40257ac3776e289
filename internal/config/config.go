package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultInclude is the include pattern of a room that does not declare one.
const DefaultInclude = "./**/*.*"

// Config is the parsed roomservice.config.yml.
type Config struct {
	BeforeAll string                `yaml:"beforeAll,omitempty"`
	AfterAll  string                `yaml:"afterAll,omitempty"`
	Rooms     map[string]RoomConfig `yaml:"rooms"`
}

// RoomConfig declares one room. Every hook is an optional shell command;
// an empty hook means the phase does not apply to the room.
type RoomConfig struct {
	Path              string `yaml:"path"`
	Include           string `yaml:"include,omitempty"`
	Before            string `yaml:"before,omitempty"`
	BeforeSynchronous string `yaml:"beforeSynchronous,omitempty"`
	RunSynchronous    string `yaml:"runSynchronous,omitempty"`
	RunParallel       string `yaml:"runParallel,omitempty"`
	After             string `yaml:"after,omitempty"`
	Finally           string `yaml:"finally,omitempty"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("unable to open config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration YAML, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config is empty")
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Rooms) == 0 {
		return nil, fmt.Errorf("config declares no rooms")
	}

	for name, room := range cfg.Rooms {
		if room.Path == "" {
			return nil, fmt.Errorf("room %q: path is required", name)
		}
		if room.Include == "" {
			room.Include = DefaultInclude
			cfg.Rooms[name] = room
		}
	}

	return &cfg, nil
}

// RoomNames returns the configured room names in ascending order.
func (c *Config) RoomNames() []string {
	names := make([]string, 0, len(c.Rooms))
	for name := range c.Rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
