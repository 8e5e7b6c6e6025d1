package credential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter 隔离所有终端交互，业务逻辑不直接读写终端
type Prompter interface {
	// ReadLine 读取一行回显输入
	ReadLine(prompt string) (string, error)
	// ReadSecret 读取一行不回显的输入
	ReadSecret(prompt string) (string, error)
	// Notify 向操作者打印一行提示
	Notify(msg string)
}

// ErrNotTerminal 标准输入不是终端时无法交互式读取凭据
var ErrNotTerminal = errors.New("stdin is not a terminal")

// TerminalPrompter 基于 x/term 的终端实现
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
	// Interactive 为 false 时拒绝读取，避免在管道或重定向环境下阻塞
	Interactive bool

	reader *bufio.Reader
}

func NewTerminalPrompter(interactive bool) *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr, Interactive: interactive}
}

func (p *TerminalPrompter) ReadLine(prompt string) (string, error) {
	if !p.Interactive {
		return "", ErrNotTerminal
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	fmt.Fprint(p.Out, prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadSecret 从终端安全地读取密码
func (p *TerminalPrompter) ReadSecret(prompt string) (string, error) {
	if !p.Interactive {
		return "", ErrNotTerminal
	}
	fmt.Fprint(p.Out, prompt)
	password, err := term.ReadPassword(int(p.In.Fd()))
	fmt.Fprintln(p.Out) // 打印换行符，因为 ReadPassword 不会打印换行符
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (p *TerminalPrompter) Notify(msg string) {
	fmt.Fprintln(p.Out, msg)
}
