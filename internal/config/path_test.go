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
	t.Setenv("TALLY_TEST_DIR", "/srv/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "tilde prefix", in: "~/finance/tally.db", want: filepath.Join(home, "finance", "tally.db")},
		{name: "bare tilde", in: "~", want: home},
		{name: "env var", in: "$TALLY_TEST_DIR/tally.db", want: "/srv/data/tally.db"},
		{name: "absolute untouched", in: "/var/lib/tally.db", want: "/var/lib/tally.db"},
		{name: "empty", in: "", want: ""},
		{name: "tilde mid-path untouched", in: "/data/~/x", want: "/data/~/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestDefaultDatabasePathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	assert.Equal(t, filepath.Join("/xdg/data", "tally", "tally.db"), DefaultDatabasePath())
}

func TestDefaultConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	assert.Equal(t, filepath.Join("/xdg/config", "tally"), DefaultConfigDir())
}
