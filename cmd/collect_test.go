package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wentf9/showcmd/pkg/crypto"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/executor"
	"github.com/wentf9/showcmd/pkg/models"
	"github.com/wentf9/showcmd/pkg/storage"
)

type recordingOpener struct {
	opened []models.Target
	creds  []models.Credentials
	ran    map[string][]string
	output map[string]string
}

type recordingSession struct {
	o       *recordingOpener
	address string
}

func (s *recordingSession) Run(ctx context.Context, cmd string) (string, error) {
	s.o.ran[s.address] = append(s.o.ran[s.address], cmd)
	if out, ok := s.o.output[cmd]; ok {
		return out, nil
	}
	return "output of " + cmd, nil
}

func (s *recordingSession) Close() error { return nil }

func (o *recordingOpener) Open(ctx context.Context, t models.Target, c models.Credentials) (executor.Session, error) {
	o.opened = append(o.opened, t)
	o.creds = append(o.creds, c)
	return &recordingSession{o: o, address: t.Address}, nil
}

type stubPrompter struct {
	lines   []string
	secrets []string
}

func (p *stubPrompter) ReadLine(prompt string) (string, error) {
	if len(p.lines) == 0 {
		return "", errors.New("no input")
	}
	l := p.lines[0]
	p.lines = p.lines[1:]
	return l, nil
}

func (p *stubPrompter) ReadSecret(prompt string) (string, error) {
	if len(p.secrets) == 0 {
		return "", errors.New("no input")
	}
	s := p.secrets[0]
	p.secrets = p.secrets[1:]
	return s, nil
}

func (p *stubPrompter) Notify(msg string) {}

// workspace 切换到临时目录并设置默认凭据环境变量
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("NET_USR", "netops")
	t.Setenv("NET_PWD", "s3cret")
	return dir
}

func execute(t *testing.T, o *CollectOptions, args ...string) (string, error) {
	t.Helper()
	root := NewCmdRoot(o)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newTestOptions(opener *recordingOpener) *CollectOptions {
	o := NewCollectOptions()
	o.Opener = opener
	o.Prompter = &stubPrompter{}
	return o
}

func newOpener() *recordingOpener {
	return &recordingOpener{ran: map[string][]string{}, output: map[string]string{}}
}

func TestCollectSingleDeviceAdhoc(t *testing.T) {
	dir := workspace(t)
	opener := newOpener()
	opener.output["show version"] = "IOS Version X"

	out, err := execute(t, newTestOptions(opener), "-d", "10.1.10.50", "-s", "show version")
	require.NoError(t, err)

	name := storage.FileName("10.1.10.50", time.Now(), "")
	data, err := os.ReadFile(filepath.Join(dir, "local", name))
	require.NoError(t, err)
	assert.Equal(t, "\n!--- show version \nIOS Version X", string(data))

	require.Len(t, opener.opened, 1)
	assert.Equal(t, models.PlatformIOS, opener.opened[0].Platform)
	assert.Equal(t, 22, opener.opened[0].Port)
	assert.Equal(t, "netops", opener.creds[0].Username)
	assert.Contains(t, out, "--- Show Command: show version")
}

func TestCollectRequiresDevice(t *testing.T) {
	workspace(t)
	_, err := execute(t, newTestOptions(newOpener()))
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestCollectRejectsDeviceAndFile(t *testing.T) {
	workspace(t)
	_, err := execute(t, newTestOptions(newOpener()), "-d", "r1", "-f", "devs.txt")
	assert.Error(t, err)

	_, err = execute(t, newTestOptions(newOpener()), "-d", "r1", "-m", "-c")
	assert.Error(t, err)
}

func TestCollectMissingCredentials(t *testing.T) {
	dir := workspace(t)
	t.Setenv("NET_PWD", "")
	opener := newOpener()

	_, err := execute(t, newTestOptions(opener), "-d", "r1")
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
	assert.Empty(t, opener.opened)
	assert.NoDirExists(t, filepath.Join(dir, "local"))
}

func TestCollectDeviceFileClassifies(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.WriteFile("devs.txt", []byte("sw-ds01\n\n192.168.1.1\n  dc1-srv01  \n"), 0644))
	opener := newOpener()

	out, err := execute(t, newTestOptions(opener), "-f", "devs.txt", "-n", "pre change", "-o", "snap")
	require.NoError(t, err)

	require.Len(t, opener.opened, 2)
	assert.Equal(t, models.PlatformIOS, opener.opened[0].Platform)
	assert.Equal(t, models.PlatformNXOS, opener.opened[1].Platform)
	assert.Equal(t, "show version", opener.ran["sw-ds01"][0])
	assert.Contains(t, opener.ran["dc1-srv01"], "show ip route vrf all")

	entries, err := os.ReadDir(filepath.Join(dir, "snap"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, strings.HasSuffix(e.Name(), "_pre_change.txt"), e.Name())
	}
	assert.Contains(t, out, "xxx Skip Device 192.168.1.1 Type unknown")
	assert.Contains(t, out, "3 device(s): 2 written, 1 skipped, 0 failed")
}

func TestCollectExplicitTypeAppliesToAll(t *testing.T) {
	workspace(t)
	require.NoError(t, os.WriteFile("devs.txt", []byte("sw-ds01\n192.168.1.1\n"), 0644))
	opener := newOpener()

	_, err := execute(t, newTestOptions(opener), "-f", "devs.txt", "-t", "cisco_nxos", "-p", "2222")
	require.NoError(t, err)
	require.Len(t, opener.opened, 2)
	for _, tg := range opener.opened {
		assert.Equal(t, models.PlatformNXOS, tg.Platform)
		assert.Equal(t, 2222, tg.Port)
	}
}

func TestCollectInteractiveCredentials(t *testing.T) {
	workspace(t)
	opener := newOpener()
	o := newTestOptions(opener)
	o.Prompter = &stubPrompter{lines: []string{"alice"}, secrets: []string{"pw", "en"}}

	_, err := execute(t, o, "-d", "r1", "-c", "-s", "show clock")
	require.NoError(t, err)
	require.Len(t, opener.creds, 1)
	assert.Equal(t, "alice", opener.creds[0].Username)
	assert.Equal(t, "pw", opener.creds[0].Password)
	assert.Equal(t, "en", opener.creds[0].EnableSecret)
}

func TestCollectMFA(t *testing.T) {
	workspace(t)
	t.Setenv("INET_USR", "mfauser")
	t.Setenv("INET_PWD", "base")
	opener := newOpener()
	o := newTestOptions(opener)
	o.Prompter = &stubPrompter{lines: []string{" 123456 "}}

	_, err := execute(t, o, "-d", "r1", "-m", "-s", "show clock")
	require.NoError(t, err)
	require.Len(t, opener.creds, 1)
	assert.Equal(t, "base123456", opener.creds[0].AuthSecret())
}

func TestCollectJournalAndHistory(t *testing.T) {
	dir := workspace(t)
	db := filepath.Join(dir, "journal.db")
	t.Setenv("SHOWCMD_JOURNAL_ENABLED", "true")
	t.Setenv("SHOWCMD_JOURNAL_PATH", db)

	_, err := execute(t, newTestOptions(newOpener()), "-d", "10.1.10.50", "-s", "show version")
	require.NoError(t, err)

	out, err := execute(t, newTestOptions(newOpener()), "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "10.1.10.50")
	assert.Contains(t, out, "written")

	out, err = execute(t, newTestOptions(newOpener()), "history", "--db", db, "--json", "-a", "nope")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestPlatformSelection(t *testing.T) {
	tests := []struct {
		name         string
		o            CollectOptions
		wantPlatform models.Platform
		wantClassify bool
	}{
		{"single default", CollectOptions{Device: "r1", DeviceType: "cisco_ios"}, models.PlatformIOS, false},
		{"file default", CollectOptions{DeviceFile: "f", DeviceType: "cisco_ios"}, models.PlatformAuto, true},
		{"single explicit", CollectOptions{Device: "r1", DeviceType: "cisco_wlc", typeGiven: true}, models.PlatformWLC, false},
		{"file explicit", CollectOptions{DeviceFile: "f", DeviceType: "cisco_ios", typeGiven: true}, models.PlatformIOS, false},
		{"single auto", CollectOptions{Device: "r1", DeviceType: "auto", typeGiven: true}, models.PlatformAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, c := tt.o.platform()
			assert.Equal(t, tt.wantPlatform, p)
			assert.Equal(t, tt.wantClassify, c)
		})
	}
}

func TestCommandsSubcommand(t *testing.T) {
	workspace(t)
	out, err := execute(t, newTestOptions(newOpener()), "commands", "-t", "cisco_nxos")
	require.NoError(t, err)
	assert.Contains(t, out, "show port-channel summary")
	assert.NotContains(t, out, "show ap summary")

	_, err = execute(t, newTestOptions(newOpener()), "commands", "-t", "silverpeak")
	var ue *errs.UnsupportedDeviceError
	assert.True(t, errors.As(err, &ue))

	out, err = execute(t, newTestOptions(newOpener()), "commands")
	require.NoError(t, err)
	assert.Contains(t, out, "# wlc")
}

func TestClassifySubcommand(t *testing.T) {
	workspace(t)
	out, err := execute(t, newTestOptions(newOpener()), "classify", "10.1.10.109", "192.168.1.1")
	require.NoError(t, err)
	assert.Contains(t, out, "readonly-controller")
	assert.Contains(t, out, "adminro")
	assert.Contains(t, out, "unknown")

	out, err = execute(t, newTestOptions(newOpener()), "classify", "--rules")
	require.NoError(t, err)
	assert.Contains(t, out, "private-10")
}

func TestEncryptSubcommand(t *testing.T) {
	dir := workspace(t)
	keyPath := filepath.Join(dir, "key")

	out, err := execute(t, newTestOptions(newOpener()), "encrypt", "Readonly1", "--key", keyPath)
	require.NoError(t, err)
	enc := strings.TrimSpace(out)
	require.True(t, crypto.IsEncrypted(enc))

	key, err := crypto.LoadKey(keyPath)
	require.NoError(t, err)
	c, err := crypto.NewCrypter(key)
	require.NoError(t, err)
	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "Readonly1", plain)
}

func TestVersionSubcommand(t *testing.T) {
	workspace(t)
	out, err := execute(t, newTestOptions(newOpener()), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "showcmd")
}
