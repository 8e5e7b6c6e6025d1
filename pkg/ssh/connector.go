package ssh

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/wentf9/showcmd/pkg/config"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/executor"
	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
	"golang.org/x/crypto/ssh"
)

// Connector 负责创建到设备的 SSH 会话，实现 executor.Opener
type Connector struct {
	Config config.SSHConfig
	// Dialer 为空时使用带超时的 net.Dialer
	Dialer Dialer
}

// NewConnector 创建一个新的 Connector
func NewConnector(cfg config.SSHConfig) *Connector {
	return &Connector{Config: cfg}
}

var _ executor.Opener = (*Connector)(nil)

// Open 建立 SSH 连接，按配置返回 exec 或 shell 方式的会话。
// 任何失败都以 *errs.ConnectionError 返回
func (c *Connector) Open(ctx context.Context, target models.Target, creds models.Credentials) (executor.Session, error) {
	raw, err := c.dial(ctx, target, creds)
	if err != nil {
		return nil, &errs.ConnectionError{Address: target.Address, Err: err}
	}
	client := newClient(raw, target, c.Config.CommandTimeout)

	if Mode(strings.ToLower(c.Config.Mode)) != ModeShell {
		return client, nil
	}
	sh, err := client.Shell(ctx, shellOptions{
		Platform:       target.Platform,
		EnableSecret:   creds.EnableSecret,
		PromptSuffixes: c.Config.PromptSuffixes,
		LoginTimeout:   c.Config.Timeout,
		CommandTimeout: c.Config.CommandTimeout,
	})
	if err != nil {
		client.Close()
		return nil, &errs.ConnectionError{Address: target.Address, Err: err}
	}
	return sh, nil
}

func (c *Connector) dial(ctx context.Context, target models.Target, creds models.Credentials) (*ssh.Client, error) {
	var dialer Dialer = c.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: c.Config.Timeout}
	}
	addr := target.HostPort()
	sshConfig := clientConfig(creds.Username, creds.AuthSecret(), c.Config.Timeout, c.Config.LegacyAlgorithms)

	logger.WithDevice(target.Address).Debugf("dialing %s as %s", addr, creds.Username)
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	if c.Config.Timeout > 0 {
		// 握手阶段同样受超时限制，完成后取消
		_ = conn.SetDeadline(deadline(c.Config.Timeout))
	}
	ncc, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake failed for %s: %w", addr, err)
	}
	_ = conn.SetDeadline(noDeadline)
	return ssh.NewClient(ncc, chans, reqs), nil
}
