package netcfg

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host, DefaultHost)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.Timeouts.KeepAliveIdle != DefaultKeepAliveIdle {
		t.Errorf("Timeouts.KeepAliveIdle = %v, want %v", cfg.Timeouts.KeepAliveIdle, DefaultKeepAliveIdle)
	}
	if cfg.Limits.MaxFrameLength != DefaultMaxFrameLength {
		t.Errorf("Limits.MaxFrameLength = %d, want %d", cfg.Limits.MaxFrameLength, DefaultMaxFrameLength)
	}
	if cfg.Limits.DatagramEgressCapacity != DefaultDatagramEgressCapacity {
		t.Errorf("Limits.DatagramEgressCapacity = %d, want %d", cfg.Limits.DatagramEgressCapacity, DefaultDatagramEgressCapacity)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid default", func(c *Config) {}, nil},
		{"empty host", func(c *Config) { c.Host = "" }, ErrMissingHost},
		{"negative port", func(c *Config) { c.Port = -1 }, ErrInvalidPort},
		{"port too high", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"negative keepalive", func(c *Config) { c.Timeouts.KeepAliveIdle = -1 }, ErrInvalidTimeout},
		{"zero max frame length", func(c *Config) { c.Limits.MaxFrameLength = 0 }, ErrInvalidLimit},
		{"zero egress capacity", func(c *Config) { c.Limits.DatagramEgressCapacity = 0 }, ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				if cfg.Logger == nil {
					t.Error("Validate() left Logger nil, want a default logger")
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsApply(t *testing.T) {
	cfg, err := New(WithHost("127.0.0.1"), WithPort(9999), WithDebug(true))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", cfg.Host)
	}
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}
