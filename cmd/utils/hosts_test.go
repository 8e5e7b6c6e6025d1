package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/models"
)

func TestParseDeviceList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain", "r1\nr2\n", []string{"r1", "r2"}},
		{"no trailing newline", "r1\nr2", []string{"r1", "r2"}},
		{"blank and whitespace lines", "\n  r1  \n\t\n   \nr2\r\n", []string{"r1", "r2"}},
		{"comments", "# core\nr1\n  # old\nr2\n", []string{"r1", "r2"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeviceList(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadDeviceFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "devs.txt")
	require.NoError(t, os.WriteFile(p, []byte("10.1.10.50\nsw-ds01\n\n192.168.1.1\n"), 0644))

	got, err := ReadDeviceFile(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1.10.50", "sw-ds01", "192.168.1.1"}, got)

	t.Chdir(dir)
	got, err = ReadDeviceFile("devs.txt")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestReadDeviceFileMissing(t *testing.T) {
	_, err := ReadDeviceFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestBuildTargets(t *testing.T) {
	got := BuildTargets([]string{"a", "b"}, models.PlatformNXOS, 2222, "pre")
	assert.Equal(t, []models.Target{
		{Address: "a", Platform: models.PlatformNXOS, Port: 2222, Note: "pre"},
		{Address: "b", Platform: models.PlatformNXOS, Port: 2222, Note: "pre"},
	}, got)
}
