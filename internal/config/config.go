package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxItems = 100
	DefaultTimeout  = 30 * time.Second
	DefaultSchedule = "0 8 * * 1"
	DefaultFeedURL  = "https://rss.applemarketingtools.com/api/v2/us/music/most-played/100/albums.json"
)

type Config struct {
	Schedule    string      `yaml:"schedule" toml:"schedule"`
	Edition     int         `yaml:"edition" toml:"edition"`
	Intro       string      `yaml:"intro,omitempty" toml:"intro"`
	HeaderImage string      `yaml:"header_image,omitempty" toml:"header_image"`
	Feed        FeedConfig  `yaml:"feed" toml:"feed"`
	Email       EmailConfig `yaml:"email" toml:"email"`
}

type FeedConfig struct {
	URL      string `yaml:"url" toml:"url"`
	MaxItems int    `yaml:"max_items,omitempty" toml:"max_items"`
	// Timeout is a Go duration string, e.g. "30s".
	Timeout string `yaml:"timeout,omitempty" toml:"timeout"`
}

type EmailConfig struct {
	From         string `yaml:"from" toml:"from"`
	To           string `yaml:"to" toml:"to"`
	TestTo       string `yaml:"test_to,omitempty" toml:"test_to"`
	ResendAPIKey string `yaml:"resend_api_key" toml:"resend_api_key"`
}

// TimeoutDuration parses Timeout, falling back to DefaultTimeout when unset.
func (f FeedConfig) TimeoutDuration() (time.Duration, error) {
	if f.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(f.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parsing feed timeout %q: %w", f.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("feed timeout must be positive, got %s", d)
	}
	return d, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := strings.TrimSuffix(strings.TrimPrefix(string(match), "${"), "}")

		// ${VAR:-default}
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		if hasDefault {
			return []byte(defaultVal)
		}
		return match
	})
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Feed.URL == "" {
		c.Feed.URL = DefaultFeedURL
	}
	if c.Feed.MaxItems <= 0 {
		c.Feed.MaxItems = DefaultMaxItems
	}
}

func (c *Config) validate() error {
	if _, err := c.Feed.TimeoutDuration(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

var (
	yamlEditionKey  = regexp.MustCompile(`^edition\s*:`)
	yamlEditionLine = regexp.MustCompile(`^edition:[ \t]*(\d+)([ \t]+#.*)?\s*$`)
	tomlEditionKey  = regexp.MustCompile(`^edition\s*=`)
	tomlEditionLine = regexp.MustCompile(`^edition[ \t]*=[ \t]*(\d+)([ \t]*#.*)?\s*$`)
	tomlTableHeader = regexp.MustCompile(`^\s*\[`)
)

// IncrementEdition bumps the edition counter and writes it back to the config
// file. The file is edited line by line so ${VAR} references and a trailing
// comment on the edition line survive. A top-level edition key that is not a
// plain integer is an error; the file is left untouched.
func IncrementEdition(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	tomlFile := isTOML(path)
	key, pattern, format := yamlEditionKey, yamlEditionLine, "edition: %d"
	if tomlFile {
		key, pattern, format = tomlEditionKey, tomlEditionLine, "edition = %d"
	}

	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		// Keys after the first table header belong to that table.
		if tomlFile && tomlTableHeader.MatchString(line) {
			break
		}
		if !key.MatchString(line) {
			continue
		}
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			return fmt.Errorf("parsing edition line %d %q: expected an integer", i+1, line)
		}
		current, err := strconv.Atoi(m[1])
		if err != nil {
			return fmt.Errorf("parsing edition %q: %w", m[1], err)
		}
		lines[i] = fmt.Sprintf(format, current+1) + m[2]
		found = true
		break
	}
	if !found {
		// Top-level keys must precede any TOML table, so prepend.
		lines = append([]string{fmt.Sprintf(format, 1)}, lines...)
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644)
}
