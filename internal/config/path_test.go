package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("HARMWATCH_TEST_DIR", "/srv/data")

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "empty path", path: "", want: ""},
		{name: "absolute path untouched", path: "/var/cache/harmwatch", want: "/var/cache/harmwatch"},
		{name: "bare tilde", path: "~", want: home},
		{name: "tilde prefix", path: "~/.local/share/harmwatch", want: filepath.Join(home, ".local/share/harmwatch")},
		{name: "environment variable", path: "$HARMWATCH_TEST_DIR/cache", want: "/srv/data/cache"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
}
