package executor

import (
	"context"

	"github.com/wentf9/showcmd/pkg/models"
)

// Session 一台设备上已建立的远程会话
type Session interface {
	// Run 执行命令并返回输出
	Run(ctx context.Context, cmd string) (string, error)
	// Close 即使命令失败也必须调用
	Close() error
}

// Opener 建立到设备的会话
type Opener interface {
	Open(ctx context.Context, target models.Target, creds models.Credentials) (Session, error)
}

// OpenerFunc 让普通函数满足 Opener
type OpenerFunc func(ctx context.Context, target models.Target, creds models.Credentials) (Session, error)

func (f OpenerFunc) Open(ctx context.Context, target models.Target, creds models.Credentials) (Session, error) {
	return f(ctx, target, creds)
}
