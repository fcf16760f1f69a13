package config

import (
	"testing"
)

func TestNewLogger(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Logging
		wantErr bool
	}{
		{"defaults", Logging{}, false},
		{"debug json", Logging{Level: "debug", Format: "json"}, false},
		{"warn console", Logging{Level: "warn", Format: "console"}, false},
		{"bad level", Logging{Level: "loud", Format: "json"}, true},
		{"bad format", Logging{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewLogger(tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLogger: %v", err)
			}
			logger.Debug("logger built")
			_ = logger.Sync()
		})
	}
}

func TestNewLoggerFromLoadedConfig(t *testing.T) {
	path := writeConfig(t, `
xai:
  api_key: k
telegram:
  token: t
access:
  admin_id: 1
logging:
  level: error
  format: console
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := NewLogger(cfg.Logging); err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
}
