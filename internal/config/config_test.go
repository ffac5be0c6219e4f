package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.Mode != ModePolling {
		t.Errorf("Mode = %q, want %q", cfg.Telegram.Mode, ModePolling)
	}
	if cfg.History.RecentLimit != 10 {
		t.Errorf("RecentLimit = %d, want 10", cfg.History.RecentLimit)
	}
	if cfg.Backup.MaxAge != 7*24*time.Hour {
		t.Errorf("Backup.MaxAge = %v, want 168h", cfg.Backup.MaxAge)
	}
	if cfg.Session.Backend != SessionMemory {
		t.Errorf("Session.Backend = %q, want %q", cfg.Session.Backend, SessionMemory)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bpbot.yaml")
	content := `
telegram:
  token: file-token
  poll_timeout: 10s
database:
  path: /var/lib/bpbot/bot.db
admin_ids: [42, 7]
history:
  recent_limit: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.Token != "file-token" {
		t.Errorf("Token = %q, want file-token", cfg.Telegram.Token)
	}
	if cfg.Telegram.PollTimeout != 10*time.Second {
		t.Errorf("PollTimeout = %v, want 10s", cfg.Telegram.PollTimeout)
	}
	if cfg.Database.Path != "/var/lib/bpbot/bot.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if len(cfg.AdminIDs) != 2 || cfg.AdminIDs[0] != 42 || cfg.AdminIDs[1] != 7 {
		t.Errorf("AdminIDs = %v, want [42 7]", cfg.AdminIDs)
	}
	if cfg.History.RecentLimit != 5 {
		t.Errorf("RecentLimit = %d, want 5", cfg.History.RecentLimit)
	}
	// Untouched sections keep their defaults
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bpbot.yaml")
	if err := os.WriteFile(path, []byte("telegram:\n  token: file-token\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("BPBOT_TELEGRAM_TOKEN", "env-token")
	t.Setenv("BPBOT_ADMIN_IDS", "1, 2,3")
	t.Setenv("BPBOT_REDIS_DB", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Telegram.Token != "env-token" {
		t.Errorf("Token = %q, want env-token", cfg.Telegram.Token)
	}
	if len(cfg.AdminIDs) != 3 {
		t.Errorf("AdminIDs = %v, want 3 entries", cfg.AdminIDs)
	}
	if cfg.Session.Redis.DB != 2 {
		t.Errorf("Redis.DB = %d, want 2", cfg.Session.Redis.DB)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("BPBOT_ADMIN_IDS", "1,abc")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid admin ids")
	}
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int64
		wantErr bool
	}{
		{name: "single", input: "42", want: []int64{42}},
		{name: "spaces and empty parts", input: " 1 , ,2,", want: []int64{1, 2}},
		{name: "negative ids allowed", input: "-100123", want: []int64{-100123}},
		{name: "garbage", input: "1,x", wantErr: true},
		{name: "empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDList(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIDList(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseIDList(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseIDList(%q)[%d] = %d, want %d", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid polling config",
			mutate: func(c *Config) { c.Telegram.Token = "t" },
		},
		{
			name:    "missing token",
			mutate:  func(c *Config) {},
			wantErr: "telegram.token is required",
		},
		{
			name: "unknown mode",
			mutate: func(c *Config) {
				c.Telegram.Token = "t"
				c.Telegram.Mode = "carrier-pigeon"
			},
			wantErr: `unknown telegram.mode "carrier-pigeon"`,
		},
		{
			name: "webhook path without slash",
			mutate: func(c *Config) {
				c.Telegram.Token = "t"
				c.Telegram.Mode = ModeWebhook
				c.Telegram.WebhookPath = "hook"
			},
			wantErr: "telegram.webhook_path must start with /",
		},
		{
			name: "unknown session backend",
			mutate: func(c *Config) {
				c.Telegram.Token = "t"
				c.Session.Backend = "memcached"
			},
			wantErr: `unknown session.backend "memcached"`,
		},
		{
			name: "http timeout shorter than long poll",
			mutate: func(c *Config) {
				c.Telegram.Token = "t"
				c.Telegram.HTTPTimeout = c.Telegram.PollTimeout
			},
			wantErr: "telegram.http_timeout (30s) must exceed telegram.poll_timeout (30s)",
		},
		{
			name: "zero workers",
			mutate: func(c *Config) {
				c.Telegram.Token = "t"
				c.Workers = 0
			},
			wantErr: "workers must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
