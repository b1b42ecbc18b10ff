package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ragfaq/internal/config"
)

func TestResolveAddr(t *testing.T) {
	cfg := config.ServerConfig{Addr: ":5001"}
	tests := []struct {
		name string
		flag string
		port string
		want string
	}{
		{name: "config default", want: ":5001"},
		{name: "port env overrides config", port: "8080", want: ":8080"},
		{name: "flag wins over port env", flag: "127.0.0.1:9000", port: "8080", want: "127.0.0.1:9000"},
		{name: "flag without port env", flag: ":7000", want: ":7000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", tt.port)
			assert.Equal(t, tt.want, resolveAddr(tt.flag, cfg))
		})
	}
}
