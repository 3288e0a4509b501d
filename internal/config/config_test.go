package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
schedule: "0 7 * * 5"
edition: 4
intro: "This week's **most played** albums."
feed:
  url: "https://example.test/feed.json"
  max_items: 25
  timeout: 10s
email:
  from: "charts@localhost"
  to: "you@localhost"
  resend_api_key: "re_test123"
`
	cfg, err := Load(writeConfig(t, "config.yaml", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule != "0 7 * * 5" {
		t.Errorf("expected schedule '0 7 * * 5', got %q", cfg.Schedule)
	}
	if cfg.Edition != 4 {
		t.Errorf("expected edition 4, got %d", cfg.Edition)
	}
	if cfg.Feed.URL != "https://example.test/feed.json" {
		t.Errorf("unexpected feed url %q", cfg.Feed.URL)
	}
	if cfg.Feed.MaxItems != 25 {
		t.Errorf("expected max items 25, got %d", cfg.Feed.MaxItems)
	}
	timeout, err := cfg.Feed.TimeoutDuration()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %s", timeout)
	}
	if cfg.Email.ResendAPIKey != "re_test123" {
		t.Errorf("expected resend api key 're_test123', got %q", cfg.Email.ResendAPIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", "email:\n  to: you@localhost\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule != DefaultSchedule {
		t.Errorf("expected default schedule, got %q", cfg.Schedule)
	}
	if cfg.Feed.URL != DefaultFeedURL {
		t.Errorf("expected default feed url, got %q", cfg.Feed.URL)
	}
	if cfg.Feed.MaxItems != DefaultMaxItems {
		t.Errorf("expected default max items, got %d", cfg.Feed.MaxItems)
	}
	if d, _ := cfg.Feed.TimeoutDuration(); d != DefaultTimeout {
		t.Errorf("expected default timeout, got %s", d)
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	_, err := Load(writeConfig(t, "config.yaml", "feed:\n  timeout: soon\n"))
	if err == nil {
		t.Fatal("expected error for invalid timeout")
	}
	if !strings.Contains(err.Error(), "soon") {
		t.Errorf("expected error to mention the bad value, got %v", err)
	}
}

func TestLoadEnvExpansion(t *testing.T) {
	content := `
feed:
  url: "${TEST_ALBUMFEED_URL}"
  timeout: "${TEST_ALBUMFEED_TIMEOUT:-5s}"
email:
  resend_api_key: "${TEST_ALBUMFEED_KEY}"
`
	t.Setenv("TEST_ALBUMFEED_URL", "https://example.test/top.json")
	t.Setenv("TEST_ALBUMFEED_KEY", "secret-123")

	cfg, err := Load(writeConfig(t, "config.yaml", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Feed.URL != "https://example.test/top.json" {
		t.Errorf("expected expanded url, got %q", cfg.Feed.URL)
	}
	if cfg.Email.ResendAPIKey != "secret-123" {
		t.Errorf("expected key 'secret-123', got %q", cfg.Email.ResendAPIKey)
	}
	if cfg.Feed.Timeout != "5s" {
		t.Errorf("expected default timeout '5s', got %q", cfg.Feed.Timeout)
	}
}

func TestLoadTOML(t *testing.T) {
	content := `
schedule = "0 9 * * 1"
edition = 2

[feed]
url = "https://example.test/feed.json"
max_items = 10

[email]
from = "charts@localhost"
to = "you@localhost"
resend_api_key = "${TEST_ALBUMFEED_TOML_KEY:-re_default}"
`
	cfg, err := Load(writeConfig(t, "config.toml", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule != "0 9 * * 1" {
		t.Errorf("expected schedule '0 9 * * 1', got %q", cfg.Schedule)
	}
	if cfg.Edition != 2 {
		t.Errorf("expected edition 2, got %d", cfg.Edition)
	}
	if cfg.Feed.MaxItems != 10 {
		t.Errorf("expected max items 10, got %d", cfg.Feed.MaxItems)
	}
	if cfg.Email.ResendAPIKey != "re_default" {
		t.Errorf("expected key 're_default', got %q", cfg.Email.ResendAPIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIncrementEdition(t *testing.T) {
	path := writeConfig(t, "config.yaml", "schedule: \"0 8 * * 1\"\nedition: 6\nemail:\n  resend_api_key: \"${RESEND_API_KEY}\"\n")

	if err := IncrementEdition(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "edition: 7") {
		t.Errorf("expected edition 7, got:\n%s", data)
	}
	if !strings.Contains(string(data), "${RESEND_API_KEY}") {
		t.Errorf("expected env reference to survive, got:\n%s", data)
	}
}

func TestIncrementEditionInsertsCounter(t *testing.T) {
	path := writeConfig(t, "config.toml", "schedule = \"0 8 * * 1\"\n\n[feed]\nurl = \"https://example.test\"\n")

	if err := IncrementEdition(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Edition != 1 {
		t.Errorf("expected edition 1, got %d", cfg.Edition)
	}
	if cfg.Feed.URL != "https://example.test" {
		t.Errorf("expected feed url to survive, got %q", cfg.Feed.URL)
	}
}

func TestIncrementEditionKeepsComment(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{
			name:    "yaml",
			file:    "config.yaml",
			content: "edition: 6 # bumped after each send\nfeed:\n  max_items: 10\n",
			want:    "edition: 7 # bumped after each send",
		},
		{
			name:    "toml",
			file:    "config.toml",
			content: "edition = 6 # counter\n\n[feed]\nmax_items = 10\n",
			want:    "edition = 7 # counter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)

			for i := 0; i < 2; i++ {
				if err := IncrementEdition(path); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("unexpected error reloading config: %v", err)
			}
			if cfg.Edition != 8 {
				t.Errorf("expected edition 8, got %d", cfg.Edition)
			}
			if cfg.Feed.MaxItems != 10 {
				t.Errorf("expected max_items 10, got %d", cfg.Feed.MaxItems)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := strings.Replace(tt.want, "7", "8", 1)
			if !strings.HasPrefix(string(data), want+"\n") {
				t.Errorf("expected first line %q, got:\n%s", want, data)
			}
			if strings.Count(string(data), "edition") != 1 {
				t.Errorf("expected a single edition key, got:\n%s", data)
			}
		})
	}
}

func TestIncrementEditionMalformed(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"config.yaml", "edition: six\nschedule: \"0 8 * * 1\"\n"},
		{"config.toml", "edition = \"6\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)

			err := IncrementEdition(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), "parsing edition line 1") {
				t.Errorf("unexpected error %q", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tt.content {
				t.Errorf("expected file to be left untouched, got:\n%s", data)
			}
		})
	}
}

func TestIncrementEditionIgnoresTableKeys(t *testing.T) {
	path := writeConfig(t, "config.toml", "schedule = \"0 8 * * 1\"\n\n[feed]\nedition = 3\n")

	if err := IncrementEdition(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(data), "edition = 1\n") {
		t.Errorf("expected top-level counter to be added, got:\n%s", data)
	}
	if !strings.Contains(string(data), "[feed]\nedition = 3\n") {
		t.Errorf("expected table key to be left alone, got:\n%s", data)
	}
}
