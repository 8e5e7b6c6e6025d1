// Package commands 维护设备族到 show 命令列表的映射
package commands

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed show_cmds.yml
var builtin []byte

// DefaultFile 未显式指定命令表时在当前目录查找的文件
const DefaultFile = "show_cmds.yml"

// Family 命令表中的设备族
type Family string

const (
	FamilyNXOS    Family = "nxos"
	FamilyWLC     Family = "wlc"
	FamilyIOS     Family = "ios"
	FamilyGeneral Family = "general"
)

// familyOrder 匹配顺序，nxos 必须先于 ios，避免被更短的名字抢先命中
var familyOrder = []Family{FamilyNXOS, FamilyWLC, FamilyIOS, FamilyGeneral}

// Families 按匹配顺序返回所有设备族
func Families() []Family {
	out := make([]Family, len(familyOrder))
	copy(out, familyOrder)
	return out
}

// Table 对应 show_cmds.yml
type Table struct {
	IOS     []string `yaml:"ios_show_commands"`
	NXOS    []string `yaml:"nxos_show_commands"`
	WLC     []string `yaml:"wlc_show_commands"`
	General []string `yaml:"general_show_commands"`
}

// Parse 解析 YAML 格式的命令表
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Builtin 返回内置命令表
func Builtin() *Table {
	t, err := Parse(builtin)
	if err != nil {
		panic("commands: invalid embedded table: " + err.Error())
	}
	return t
}

// LoadTable 加载命令表。
// path 非空时文件必须可读；为空时依次尝试当前目录下的 show_cmds.yml 和内置命令表
func LoadTable(path string) (*Table, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Configf("cannot read commands file %s: %w", path, err)
		}
		t, err := Parse(data)
		if err != nil {
			return nil, errs.Configf("invalid commands file %s: %w", path, err)
		}
		return t, nil
	}

	data, err := os.ReadFile(DefaultFile)
	switch {
	case err == nil:
		t, err := Parse(data)
		if err != nil {
			return nil, errs.Configf("invalid commands file %s: %w", DefaultFile, err)
		}
		logger.Logger.Debugf("using commands file %s", DefaultFile)
		return t, nil
	case errors.Is(err, fs.ErrNotExist):
		logger.Logger.Debug("using built-in command table")
		return Builtin(), nil
	default:
		return nil, errs.Configf("cannot read commands file %s: %w", DefaultFile, err)
	}
}

// Commands 返回某个设备族的命令列表
func (t *Table) Commands(f Family) []string {
	switch f {
	case FamilyNXOS:
		return t.NXOS
	case FamilyWLC:
		return t.WLC
	case FamilyIOS:
		return t.IOS
	case FamilyGeneral:
		return t.General
	}
	return nil
}

// FamilyOf 通过子串匹配确定平台所属的设备族，
// 平台名先转为小写并去掉 "-" 和 "_"，因此 cisco_nxos、NX-OS 都归入 nxos
func FamilyOf(p models.Platform) (Family, bool) {
	s := normalize(string(p))
	if s == "" {
		return "", false
	}
	for _, f := range familyOrder {
		if strings.Contains(s, string(f)) {
			return f, true
		}
	}
	return "", false
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// Select 返回设备要执行的命令。
// adhoc 非空时只执行这一条命令，忽略平台；平台不属于任何设备族或该族没有命令时返回 UnsupportedDeviceError
func (t *Table) Select(target models.Target, adhoc string) ([]string, error) {
	if cmd := strings.TrimSpace(adhoc); cmd != "" {
		return []string{cmd}, nil
	}
	f, ok := FamilyOf(target.Platform)
	if !ok {
		return nil, &errs.UnsupportedDeviceError{Address: target.Address, Platform: string(target.Platform)}
	}
	cmds := t.Commands(f)
	if len(cmds) == 0 {
		return nil, &errs.UnsupportedDeviceError{Address: target.Address, Platform: string(target.Platform)}
	}
	out := make([]string, len(cmds))
	copy(out, cmds)
	return out, nil
}
