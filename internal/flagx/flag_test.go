package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "separate value",
			args:         []string{"-c", "conf.yaml", "-a", ":8080"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "conf.yaml"},
		},
		{
			name:         "equals form",
			args:         []string{"-config=alt.json", "-a", ":8080"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-config=alt.json"},
		},
		{
			name:         "unknown flags and positionals dropped",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
		{
			name:         "trailing flag without value",
			args:         []string{"-d"},
			allowedFlags: []string{"-d"},
			want:         []string{"-d"},
		},
		{
			name:         "dash token is not a value",
			args:         []string{"-c", "-config=alt.json"},
			allowedFlags: []string{"-c", "-config"},
			want:         []string{"-c", "-config=alt.json"},
		},
		{
			name:         "repeated flag keeps order",
			args:         []string{"-k", "one", "-q", "-k", "two"},
			allowedFlags: []string{"-k"},
			want:         []string{"-k", "one", "-k", "two"},
		},
		{
			name:         "empty",
			args:         nil,
			allowedFlags: []string{"-c"},
			want:         []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowedFlags))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short flag", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "")
		os.Args = []string{"peerlink", "-c", "/etc/peerlink.yaml"}
		assert.Equal(t, "/etc/peerlink.yaml", ConfigFileFlag())
	})

	t.Run("long flag wins over env", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/from/env.json")
		os.Args = []string{"peerlink", "-config", "/from/flag.json"}
		assert.Equal(t, "/from/flag.json", ConfigFileFlag())
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "/from/env.json")
		os.Args = []string{"peerlink", "-a", ":9000"}
		assert.Equal(t, "/from/env.json", ConfigFileFlag())
	})

	t.Run("nothing set", func(t *testing.T) {
		t.Setenv(ConfigEnvVar, "")
		os.Args = []string{"peerlink"}
		assert.Empty(t, ConfigFileFlag())
	})
}
