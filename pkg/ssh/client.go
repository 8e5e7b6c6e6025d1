package ssh

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
	"golang.org/x/crypto/ssh"
)

var noDeadline time.Time

func deadline(d time.Duration) time.Time { return time.Now().Add(d) }

// Client 一台设备上的 SSH 连接，exec 方式下每条命令打开一个新通道
type Client struct {
	sshClient      *ssh.Client
	target         models.Target
	commandTimeout time.Duration
}

func newClient(raw *ssh.Client, target models.Target, commandTimeout time.Duration) *Client {
	return &Client{
		sshClient:      raw,
		target:         target,
		commandTimeout: commandTimeout,
	}
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.sshClient.Close()
}

// Run 在新的 exec 通道中执行命令，stdout 与 stderr 合并返回
func (c *Client) Run(ctx context.Context, cmd string) (string, error) {
	session, err := c.sshClient.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to open session channel: %w", err)
	}
	defer session.Close()

	if c.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.commandTimeout)
		defer cancel()
	}
	logger.WithDevice(c.target.Address).Debugf("exec %q", cmd)
	return startWithTimeout(ctx, session, cmd)
}

func startWithTimeout(ctx context.Context, session *ssh.Session, command string) (string, error) {
	// 1. 准备输出流 (捕获 Stdout 和 Stderr)
	var b bytes.Buffer
	session.Stdout = &b
	session.Stderr = &b

	// 2. 使用 Start 异步启动命令
	if err := session.Start(command); err != nil {
		return "", fmt.Errorf("failed to start command: %w", err)
	}
	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	// 3. 等待命令完成或上下文取消
	select {
	case err := <-done:
		if err != nil {
			return b.String(), fmt.Errorf("failed to run command: %w", err)
		}
		return b.String(), nil
	case <-ctx.Done():
		// 网络设备大多不支持 signal，直接关闭通道
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return "", ctx.Err()
	}
}
