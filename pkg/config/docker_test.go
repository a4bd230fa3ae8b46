package config

import (
	"testing"
)

func TestResolveHost(t *testing.T) {
	tests := []struct {
		host       string
		dockerized bool
		expected   string
	}{
		{"localhost", false, "localhost"},
		{"127.0.0.1", false, "127.0.0.1"},
		{"localhost", true, "host.docker.internal"},
		{"127.0.0.1", true, "host.docker.internal"},
		{"db.example.com", true, "db.example.com"},
		{"", true, ""},
	}

	for _, tt := range tests {
		if got := resolveHost(tt.host, tt.dockerized); got != tt.expected {
			t.Errorf("resolveHost(%q, %v) = %q, want %q", tt.host, tt.dockerized, got, tt.expected)
		}
	}
}

func TestResolveHostForDocker_RemoteHostUnchanged(t *testing.T) {
	for _, host := range []string{"mydb.example.com", "192.168.1.100", "host.docker.internal"} {
		if got := ResolveHostForDocker(host); got != host {
			t.Errorf("ResolveHostForDocker(%q) = %q, want unchanged", host, got)
		}
	}
}
