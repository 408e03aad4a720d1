package lastfm

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{"nil config", nil, ErrMissingAPIKey},
		{"empty key", &Config{}, ErrMissingAPIKey},
		{"valid key", &Config{APIKey: "abc123def456abc123def456abc12345"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigMaxTags(t *testing.T) {
	tests := []struct {
		maxTags int
		want    int
	}{
		{0, DefaultMaxTags},
		{-1, DefaultMaxTags},
		{5, 5},
	}
	for _, tt := range tests {
		cfg := &Config{APIKey: "k", MaxTags: tt.maxTags}
		if got := cfg.maxTags(); got != tt.want {
			t.Errorf("maxTags() with %d = %d, want %d", tt.maxTags, got, tt.want)
		}
	}
}
