package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
	"golang.org/x/crypto/ssh"
)

var (
	errPromptTimeout = errors.New("timed out waiting for device prompt")
	errEnableFailed  = errors.New("enable failed: device did not enter privileged mode")
)

type shellOptions struct {
	Platform       models.Platform
	EnableSecret   string
	PromptSuffixes []string
	LoginTimeout   time.Duration
	CommandTimeout time.Duration
}

// ShellSession 一个 PTY 交互式终端，命令输出以下一个提示符为结束标志
type ShellSession struct {
	client  *Client
	session *ssh.Session
	term    *terminal
	timeout time.Duration
}

// Shell 打开 PTY 终端，等待提示符后关闭分页，如果提供了 enable 密码则进入特权模式
func (c *Client) Shell(ctx context.Context, opts shellOptions) (*ShellSession, error) {
	session, err := c.sshClient.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open session channel: %w", err)
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	// 设备 CLI 对宽度敏感，给足够宽避免折行
	if err := session.RequestPty("vt100", 24, 511, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("request for pty failed: %w", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, err
	}
	session.Stderr = io.Discard
	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("start shell failed: %w", err)
	}

	s := &ShellSession{
		client:  c,
		session: session,
		term:    newTerminal(stdout, stdin, opts.PromptSuffixes),
		timeout: opts.CommandTimeout,
	}
	if err := s.term.login(ctx, opts.LoginTimeout); err != nil {
		session.Close()
		return nil, err
	}
	if _, err := s.term.run(ctx, pagingCommand(opts.Platform), opts.CommandTimeout); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to disable paging: %w", err)
	}
	if opts.EnableSecret != "" && !s.term.privileged() {
		if err := s.term.enable(ctx, opts.EnableSecret, opts.CommandTimeout); err != nil {
			session.Close()
			return nil, err
		}
	}
	logger.WithDevice(c.target.Address).Debugf("shell ready, prompt %q", s.term.prompt)
	return s, nil
}

// Run 发送命令并返回到下一个提示符为止的输出(不含命令回显和提示符)
func (s *ShellSession) Run(ctx context.Context, cmd string) (string, error) {
	return s.term.run(ctx, cmd, s.timeout)
}

// Close 退出终端并关闭连接
func (s *ShellSession) Close() error {
	_ = s.term.send("exit")
	_ = s.session.Close()
	return s.client.Close()
}

func pagingCommand(p models.Platform) string {
	if strings.Contains(strings.ToLower(string(p)), "wlc") {
		return "config paging disable"
	}
	return "terminal length 0"
}

// terminal 对设备输出做提示符检测。读取协程持续把输出写入缓冲区
type terminal struct {
	w        io.Writer
	suffixes []string

	mu      sync.Mutex
	buf     bytes.Buffer
	readErr error
	notify  chan struct{}

	// prompt 最近一次看到的提示符，host 为去掉后缀的主机名部分
	prompt string
	host   string
}

func newTerminal(r io.Reader, w io.Writer, suffixes []string) *terminal {
	if len(suffixes) == 0 {
		suffixes = []string{"#", ">"}
	}
	t := &terminal{w: w, suffixes: suffixes, notify: make(chan struct{}, 1)}
	go t.pump(r)
	return t
}

func (t *terminal) pump(r io.Reader) {
	b := make([]byte, 4096)
	for {
		n, err := r.Read(b)
		t.mu.Lock()
		if n > 0 {
			t.buf.Write(b[:n])
		}
		if err != nil {
			t.readErr = err
		}
		t.mu.Unlock()
		select {
		case t.notify <- struct{}{}:
		default:
		}
		if err != nil {
			return
		}
	}
}

func (t *terminal) send(line string) error {
	_, err := io.WriteString(t.w, line+"\n")
	return err
}

// login 等待登录横幅之后的第一个提示符，没有出现时发送一次回车
func (t *terminal) login(ctx context.Context, timeout time.Duration) error {
	half := timeout / 2
	if half <= 0 {
		half = 5 * time.Second
	}
	if _, err := t.waitPrompt(ctx, half); err == nil {
		return nil
	} else if !errors.Is(err, errPromptTimeout) {
		return err
	}
	if err := t.send(""); err != nil {
		return err
	}
	_, err := t.waitPrompt(ctx, half)
	return err
}

func (t *terminal) run(ctx context.Context, cmd string, timeout time.Duration) (string, error) {
	if err := t.send(cmd); err != nil {
		return "", err
	}
	body, err := t.waitPrompt(ctx, timeout)
	if err != nil {
		return "", err
	}
	return stripEcho(body, cmd), nil
}

func (t *terminal) privileged() bool {
	return strings.HasSuffix(t.prompt, "#")
}

// enable 进入特权模式，遇到密码提示时发送 enable 密码
func (t *terminal) enable(ctx context.Context, secret string, timeout time.Duration) error {
	if err := t.send("enable"); err != nil {
		return err
	}
	_, last, err := t.waitFor(ctx, timeout, func(last string) bool {
		return t.isPrompt(last) || isPasswordPrompt(last)
	})
	if err != nil {
		return err
	}
	if isPasswordPrompt(last) {
		if err := t.send(secret); err != nil {
			return err
		}
		if _, err := t.waitPrompt(ctx, timeout); err != nil {
			return err
		}
	} else {
		t.prompt = last
	}
	if !t.privileged() {
		return errEnableFailed
	}
	return nil
}

func (t *terminal) waitPrompt(ctx context.Context, timeout time.Duration) (string, error) {
	body, last, err := t.waitFor(ctx, timeout, t.isPrompt)
	if err != nil {
		return "", err
	}
	t.prompt = last
	if t.host == "" {
		t.host = trimSuffixes(last, t.suffixes)
	}
	return body, nil
}

// waitFor 等待最后一行(尚未换行的部分)满足 match，返回之前的完整行和最后一行，并清空缓冲区
func (t *terminal) waitFor(ctx context.Context, timeout time.Duration, match func(last string) bool) (string, string, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		t.mu.Lock()
		text := normalizeNewlines(t.buf.String())
		readErr := t.readErr
		body, last := splitLastLine(text)
		last = sanitize(last)
		ok := match(last)
		if ok {
			t.buf.Reset()
		}
		t.mu.Unlock()

		if ok {
			return body, last, nil
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return "", "", fmt.Errorf("device closed the session: %w", readErr)
			}
			return "", "", readErr
		}
		select {
		case <-t.notify:
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-timer.C:
			return "", "", errPromptTimeout
		}
	}
}

// isPrompt 判断一行是否为提示符。已知主机名后要求提示符包含主机名，
// 允许 hostname(config)# 这类模式变化
func (t *terminal) isPrompt(line string) bool {
	if line == "" {
		return false
	}
	for _, suf := range t.suffixes {
		if strings.HasSuffix(line, suf) {
			if t.host != "" && !strings.HasPrefix(line, t.host) {
				continue
			}
			return true
		}
	}
	return false
}

func isPasswordPrompt(line string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(line)), "password:")
}

func trimSuffixes(line string, suffixes []string) string {
	for _, suf := range suffixes {
		if strings.HasSuffix(line, suf) {
			return strings.TrimSpace(strings.TrimSuffix(line, suf))
		}
	}
	return line
}

func splitLastLine(text string) (string, string) {
	i := strings.LastIndex(text, "\n")
	if i < 0 {
		return "", text
	}
	return text[:i], text[i+1:]
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "")
}

// stripEcho 去掉第一行的命令回显
func stripEcho(body, cmd string) string {
	first, rest, found := strings.Cut(body, "\n")
	if strings.Contains(sanitize(first), strings.TrimSpace(cmd)) {
		if !found {
			return ""
		}
		return rest
	}
	return body
}

// sanitize 移除 ANSI 转义序列与不可见控制符
func sanitize(s string) string {
	b := make([]byte, 0, len(s))
	skip := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if skip {
			if (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z') {
				skip = false
			}
			continue
		}
		if ch == 0x1b {
			skip = true
			continue
		}
		if ch < 0x20 && ch != '\t' {
			continue
		}
		b = append(b, ch)
	}
	return strings.TrimSpace(string(b))
}
