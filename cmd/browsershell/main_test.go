package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"", 0, false},
		{"0x1c00003", 0x1c00003, false},
		{"29360131", 29360131, false},
		{"window", 0, true},
		{"0x1ffffffff", 0, true},
	}
	for _, tt := range tests {
		got, err := parseWindowID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseWindowID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseWindowID(%q) = 0x%x, want 0x%x", tt.in, got, tt.want)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("loadDotEnv(missing) = %v, want nil", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BROWSERSHELL_TEST_DOTENV=ws://127.0.0.1:1/\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BROWSERSHELL_TEST_DOTENV", "")
	os.Unsetenv("BROWSERSHELL_TEST_DOTENV")
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv() error: %v", err)
	}
	if got := os.Getenv("BROWSERSHELL_TEST_DOTENV"); got != "ws://127.0.0.1:1/" {
		t.Fatalf("BROWSERSHELL_TEST_DOTENV = %q, want ws://127.0.0.1:1/", got)
	}
}
