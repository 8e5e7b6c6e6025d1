package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func TestEnsureUTF8KeepsValidInput(t *testing.T) {
	for _, s := range []string{"", "show version", "接口状态 up", "\n!--- show clock \n12:00"} {
		assert.Equal(t, s, EnsureUTF8(s))
	}
}

func TestEnsureUTF8DecodesGBK(t *testing.T) {
	want := "系统描述: 交换机"
	gbk, _, err := transform.String(simplifiedchinese.GBK.NewEncoder(), want)
	require.NoError(t, err)
	require.NotEqual(t, want, gbk)

	assert.Equal(t, want, EnsureUTF8(gbk))
}

func TestEnsureUTF8Latin1Fallback(t *testing.T) {
	// 0xFF 不是合法的 GB18030 首字节序列
	got := EnsureUTF8("caf\xe9 \xff")
	assert.NotEmpty(t, got)
	assert.Contains(t, got, "caf")
}
