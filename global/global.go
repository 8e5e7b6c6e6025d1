package global

import (
	"os"

	"golang.org/x/term"
)

var (
	IsTerminal    bool = term.IsTerminal(0)                   //是否是交互式环境,false表示可能是管道或重定向
	IsErrTerminal bool = term.IsTerminal(int(os.Stderr.Fd())) //stderr是否是终端,决定是否显示进度条
)
