// Package errs 定义采集流程中的错误分类。
// 只有 ConfigError 会导致进程退出，其余错误都在产生它们的那一层被记录并跳过。
package errs

import (
	"errors"
	"fmt"
)

// ConfigError 配置错误(致命): 未指定设备、缺少环境变量、文件无法读取等
// Msg 为完整的错误描述, Err 仅用于 errors.Is/As 追溯原因
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string { return e.Msg }

func (e *ConfigError) Unwrap() error { return e.Err }

// Configf 构造一个 ConfigError，用法与 fmt.Errorf 一致(支持一个或多个 %w)
func Configf(format string, args ...any) error {
	wrapped := fmt.Errorf(format, args...)
	return &ConfigError{Msg: wrapped.Error(), Err: wrapped}
}

// ConnectionError 建立会话失败(超时、认证被拒绝、不可达)，该设备被跳过
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to device %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandError 会话已建立但单条命令执行失败
type CommandError struct {
	Address string
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("cannot execute command %q on device %s: %v", e.Command, e.Address, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// UnsupportedDeviceError 平台类型不在命令表中，不会建立会话
type UnsupportedDeviceError struct {
	Address  string
	Platform string
}

func (e *UnsupportedDeviceError) Error() string {
	return fmt.Sprintf("device %s has unsupported platform type %q", e.Address, e.Platform)
}

// IsConfig 判断错误链中是否含有 ConfigError
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
