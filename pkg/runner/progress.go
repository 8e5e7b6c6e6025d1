package runner

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar 基于 progressbar 的 Progress 实现
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar 创建总数为 total 的设备进度条，输出到 w
func NewBar(total int, w io.Writer) *Bar {
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("devices"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)}
}

func (b *Bar) Describe(description string) { b.bar.Describe(description) }
func (b *Bar) Add(num int) error           { return b.bar.Add(num) }
func (b *Bar) Finish() error               { return b.bar.Finish() }
