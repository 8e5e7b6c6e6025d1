package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wentf9/showcmd/pkg/crypto"
	"github.com/wentf9/showcmd/pkg/errs"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", s.Log.Level)
	assert.Equal(t, "NET_USR", s.Credentials.UserEnv)
	assert.Equal(t, "NET_PWD", s.Credentials.PasswordEnv)
	assert.Equal(t, "INET_USR", s.Credentials.MFAUserEnv)
	assert.Equal(t, "INET_PWD", s.Credentials.MFAPasswordEnv)
	assert.False(t, s.Credentials.EnableFallbackToPassword)
	assert.Equal(t, 15*time.Second, s.SSH.Timeout)
	assert.Equal(t, "exec", s.SSH.Mode)
	assert.Equal(t, []string{"#", ">"}, s.SSH.PromptSuffixes)
	assert.True(t, s.SSH.LegacyAlgorithms)
	assert.False(t, s.Precheck.Enabled)
	assert.Equal(t, "icmp", s.Precheck.Method)
	assert.Equal(t, "showcmd", s.Storage.Minio.Bucket)
	assert.Empty(t, s.Classifier.Rules)

	assert.Equal(t, Default().SSH, s.SSH)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "custom.yaml", `
log:
  level: debug
ssh:
  timeout: 5s
  mode: shell
credentials:
  enable_fallback_to_password: true
classifier:
  rules:
    - name: edge
      pattern: "^edge-"
      platform: cisco_nxos
      username: viewer
      password: pw
`)
	s, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, 5*time.Second, s.SSH.Timeout)
	assert.Equal(t, 30*time.Second, s.SSH.CommandTimeout)
	assert.Equal(t, "shell", s.SSH.Mode)
	assert.True(t, s.Credentials.EnableFallbackToPassword)
	require.Len(t, s.Classifier.Rules, 1)
	assert.Equal(t, RuleConfig{Name: "edge", Pattern: "^edge-", Platform: "cisco_nxos", Username: "viewer", Password: "pw"}, s.Classifier.Rules[0])
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("SHOWCMD_SSH_MODE", "shell")
	t.Setenv("SHOWCMD_JOURNAL_ENABLED", "true")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "shell", s.SSH.Mode)
	assert.True(t, s.Journal.Enabled)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errs.IsConfig(err))

	tests := map[string]string{
		"bad mode":      "ssh:\n  mode: telnet\n",
		"bad method":    "precheck:\n  method: arp\n",
		"bad count":     "precheck:\n  count: 0\n",
		"minio":         "storage:\n  minio:\n    enabled: true\n",
		"rule":          "classifier:\n  rules:\n    - name: x\n",
		"empty env":     "credentials:\n  user_env: \"\"\n",
		"invalid yaml":  "ssh: [\n",
		"encrypted key": "secrets:\n  key_file: " + filepath.Join(dir, "nokey") + "\nstorage:\n  minio:\n    secret_key: \"ENC:abc\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, dir, "c.yaml", content)
			_, err := Load(p)
			require.Error(t, err)
			assert.True(t, errs.IsConfig(err), "%T: %v", err, err)
		})
	}
}

func TestLoadDecryptsSecrets(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key")
	key, err := crypto.LoadOrGenerateKey(keyPath)
	require.NoError(t, err)
	c, err := crypto.NewCrypter(key)
	require.NoError(t, err)
	enc, err := c.Encrypt("Readonly1")
	require.NoError(t, err)

	p := writeFile(t, dir, "c.yaml", `
secrets:
  key_file: `+keyPath+`
classifier:
  rules:
    - name: ro
      pattern: "^10\\.1\\.10\\.109$"
      platform: cisco_wlc
      username: adminro
      password: "`+enc+`"
`)
	s, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Readonly1", s.Classifier.Rules[0].Password)
	assert.Equal(t, `^10\.1\.10\.109$`, s.Classifier.Rules[0].Pattern)
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, ".env", "SHOWCMD_TEST_USR=fromfile\nSHOWCMD_TEST_PWD=secret\n")

	t.Setenv("SHOWCMD_TEST_USR", "preset")
	os.Unsetenv("SHOWCMD_TEST_PWD")
	t.Cleanup(func() { os.Unsetenv("SHOWCMD_TEST_PWD") })

	require.NoError(t, LoadDotenv(p))
	// 已存在的变量不会被覆盖
	assert.Equal(t, "preset", os.Getenv("SHOWCMD_TEST_USR"))
	assert.Equal(t, "secret", os.Getenv("SHOWCMD_TEST_PWD"))

	assert.NoError(t, LoadDotenv(filepath.Join(dir, "absent.env")))
	assert.NoError(t, LoadDotenv(""))
}
