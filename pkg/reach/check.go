// Package reach 在建立 SSH 会话前检查设备是否可达
package reach

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	ping "github.com/prometheus-community/pro-bing"
	"github.com/wentf9/showcmd/pkg/config"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
)

// Checker 可达性检查，不可达时返回 *errs.ConnectionError
type Checker interface {
	Check(ctx context.Context, target models.Target) error
}

// Method 检查方式
const (
	MethodICMP = "icmp"
	MethodTCP  = "tcp"
)

// New 根据配置返回 ICMP 或 TCP 检查
func New(cfg config.PrecheckConfig) Checker {
	if strings.EqualFold(cfg.Method, MethodTCP) {
		return &TCPChecker{Timeout: cfg.Timeout}
	}
	return &ICMPChecker{Count: cfg.Count, Timeout: cfg.Timeout, Privileged: cfg.Privileged}
}

// ICMPChecker 发送 Count 个 ICMP 请求，一个回复都没有则认为不可达
type ICMPChecker struct {
	Count   int
	Timeout time.Duration
	// Privileged 为 true 时使用 raw socket(需要 root)，否则使用非特权 UDP ping
	Privileged bool
}

func (p *ICMPChecker) Check(ctx context.Context, target models.Target) error {
	pinger, err := ping.NewPinger(target.Address)
	if err != nil {
		return &errs.ConnectionError{Address: target.Address, Err: fmt.Errorf("ping setup failed: %w", err)}
	}
	pinger.SetPrivileged(p.Privileged)
	pinger.Count = p.Count
	if pinger.Count <= 0 {
		pinger.Count = 1
	}
	pinger.Interval = 200 * time.Millisecond
	pinger.Timeout = p.Timeout
	if pinger.Timeout <= 0 {
		pinger.Timeout = 2 * time.Second
	}

	if err := pinger.RunWithContext(ctx); err != nil {
		return &errs.ConnectionError{Address: target.Address, Err: fmt.Errorf("ping failed: %w", err)}
	}
	stats := pinger.Statistics()
	logger.WithDevice(target.Address).Debugf("ping %d sent, %d received, avg rtt %v",
		stats.PacketsSent, stats.PacketsRecv, stats.AvgRtt)
	if stats.PacketsRecv == 0 {
		return &errs.ConnectionError{
			Address: target.Address,
			Err:     fmt.Errorf("no reply to %d ping(s)", stats.PacketsSent),
		}
	}
	return nil
}

// TCPChecker 检查 SSH 端口能否建立 TCP 连接，适用于禁 ping 的网络
type TCPChecker struct {
	Timeout time.Duration
}

func (p *TCPChecker) Check(ctx context.Context, target models.Target) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	d := &net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", target.HostPort())
	if err != nil {
		return &errs.ConnectionError{Address: target.Address, Err: fmt.Errorf("port closed or filtered: %w", err)}
	}
	return conn.Close()
}
