// Package storage 负责采集结果的落盘与可选的对象存储镜像
package storage

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout 文件名中的日期格式
const DateLayout = "2006-01-02"

var whitespace = regexp.MustCompile(`\s+`)

// FileName 返回 <地址>_<YYYY-MM-DD>[_<备注>].txt，备注中的连续空白替换为下划线
func FileName(address string, date time.Time, note string) string {
	var sb strings.Builder
	sb.WriteString(strings.NewReplacer("/", "_", `\`, "_").Replace(address))
	sb.WriteString("_")
	sb.WriteString(date.Format(DateLayout))
	if n := NormalizeNote(note); n != "" {
		sb.WriteString("_")
		sb.WriteString(n)
	}
	sb.WriteString(".txt")
	return sb.String()
}

// NormalizeNote 去掉首尾空白，并把中间的空白替换为 "_"
func NormalizeNote(note string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(note), "_")
}
