package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
)

// Separator 每条命令输出前的分隔行前缀
const Separator = "!--- "

// CommandOutput 单条命令的执行结果，Err 非空时 Output 不写入结果文件
type CommandOutput struct {
	Command string
	Output  string
	Err     error
}

// Result 一台设备的会话结果
type Result struct {
	Target  models.Target
	Outputs []CommandOutput
	// Err 会话级错误(*errs.ConnectionError)，此时没有执行任何命令
	Err error
}

// OK 会话是否成功建立。所有命令都失败时仍然为 true
func (r *Result) OK() bool { return r.Err == nil }

// Failed 返回失败的命令数
func (r *Result) Failed() int {
	n := 0
	for _, o := range r.Outputs {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Text 按命令顺序拼接成功的输出，每段前面是 "\n!--- <命令> \n"
func (r *Result) Text() string {
	var sb strings.Builder
	for _, o := range r.Outputs {
		if o.Err != nil {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(Separator)
		sb.WriteString(o.Command)
		sb.WriteString(" \n")
		sb.WriteString(o.Output)
	}
	return sb.String()
}

// Executor 在一台设备上依次执行命令，单条命令失败不影响后续命令
type Executor struct {
	Opener Opener
	// Out 面向操作者的提示输出，nil 时不打印
	Out io.Writer
	// Normalize 可选的输出处理(例如编码转换)
	Normalize func(string) string
}

func New(opener Opener, out io.Writer) *Executor {
	return &Executor{Opener: opener, Out: out}
}

// Run 打开会话并执行 cmds。连接失败返回带 ConnectionError 的结果，不会 panic
func (e *Executor) Run(ctx context.Context, target models.Target, creds models.Credentials, cmds []string) *Result {
	log := logger.WithDevice(target.Address)
	res := &Result{Target: target}

	sess, err := e.Opener.Open(ctx, target, creds)
	if err != nil {
		res.Err = asConnectionError(target.Address, err)
		e.printf("ERROR! %v\n", res.Err)
		log.WithError(err).Error("session open failed")
		return res
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.WithError(err).Debug("session close failed")
		}
	}()

	for _, raw := range cmds {
		cmd := strings.TrimSpace(raw)
		if cmd == "" {
			continue
		}
		if ctx.Err() != nil {
			res.Outputs = append(res.Outputs, CommandOutput{
				Command: cmd,
				Err:     &errs.CommandError{Address: target.Address, Command: cmd, Err: ctx.Err()},
			})
			continue
		}
		e.printf("--- Show Command: %s\n", cmd)
		out, err := sess.Run(ctx, cmd)
		if err != nil {
			ce := &errs.CommandError{Address: target.Address, Command: cmd, Err: err}
			res.Outputs = append(res.Outputs, CommandOutput{Command: cmd, Err: ce})
			e.printf("ERROR! %v\n", ce)
			log.WithField("command", cmd).WithError(err).Warn("command failed")
			continue
		}
		if e.Normalize != nil {
			out = e.Normalize(out)
		}
		res.Outputs = append(res.Outputs, CommandOutput{Command: cmd, Output: out})
		log.WithField("command", cmd).Debugf("received %d bytes", len(out))
	}
	return res
}

func (e *Executor) printf(format string, args ...any) {
	if e.Out != nil {
		fmt.Fprintf(e.Out, format, args...)
	}
}

func asConnectionError(address string, err error) error {
	var ce *errs.ConnectionError
	if errors.As(err, &ce) {
		return ce
	}
	return &errs.ConnectionError{Address: address, Err: err}
}
