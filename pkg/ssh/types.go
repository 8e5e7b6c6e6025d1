package ssh

import (
	"context"
	"net"
)

// Dialer 定义网络连接行为的接口，测试时可替换
type Dialer interface {
	DialContext(ctx context.Context, network, addr string) (net.Conn, error)
}

// Mode 命令执行方式
type Mode string

const (
	// ModeExec 每条命令使用独立的 exec 通道
	ModeExec Mode = "exec"
	// ModeShell 在一个 PTY 交互式终端中依次执行命令
	ModeShell Mode = "shell"
)
