// Package encoding 把设备返回的非 UTF-8 输出(常见于中文系统与老旧设备)转换为 UTF-8
package encoding

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// candidates 按顺序尝试的编码。ISO8859-1 可以解码任意字节，放在最后兜底
var candidates = []encoding.Encoding{
	simplifiedchinese.GB18030,
	traditionalchinese.Big5,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// EnsureUTF8 已经是合法 UTF-8 时原样返回，否则依次尝试常见编码，全部失败时返回原始字节
func EnsureUTF8(s string) string {
	if s == "" || utf8.ValidString(s) {
		return s
	}
	for _, enc := range candidates {
		if out, ok := decode(enc, s); ok {
			return out
		}
	}
	return s
}

func decode(enc encoding.Encoding, s string) (string, bool) {
	out, _, err := transform.String(enc.NewDecoder(), s)
	if err != nil || !utf8.ValidString(out) {
		return "", false
	}
	return out, true
}
