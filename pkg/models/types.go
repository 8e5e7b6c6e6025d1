package models

import "fmt"

// Platform 设备平台类型(厂商/操作系统族)，决定可执行的命令集合
type Platform string

const (
	PlatformIOS        Platform = "cisco_ios"
	PlatformNXOS       Platform = "cisco_nxos"
	PlatformWLC        Platform = "cisco_wlc"
	PlatformSilverPeak Platform = "silverpeak"
	PlatformGeneral    Platform = "general"
	PlatformUnknown    Platform = "unknown"
	// PlatformAuto 表示由地址分类规则推断平台
	PlatformAuto Platform = "auto"
)

// Target 定义一台待采集的设备，创建后不再修改
type Target struct {
	Address  string   `yaml:"address"` // IP 或 域名
	Platform Platform `yaml:"platform"`
	Port     int      `yaml:"port"`
	Note     string   `yaml:"note,omitempty"` // 输出文件名附加说明
}

// HostPort 返回 address:port，IPv6 地址自动加方括号
func (t Target) HostPort() string {
	if t.Port == 0 {
		return hostPort(t.Address, 22)
	}
	return hostPort(t.Address, t.Port)
}

func hostPort(host string, port int) string {
	for i := 0; i < len(host); i++ {
		if host[i] == ':' {
			return fmt.Sprintf("[%s]:%d", host, port)
		}
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Credentials 定义认证信息，只保存在内存中
type Credentials struct {
	Username     string
	Password     string
	EnableSecret string
	MFACode      string // 一次性验证码,非空时拼接在密码之后
}

// AuthSecret 返回实际发送给设备的登录密码
func (c Credentials) AuthSecret() string {
	return c.Password + c.MFACode
}

// String 隐藏敏感字段,避免凭据被打印到日志
func (c Credentials) String() string {
	mfa := "no"
	if c.MFACode != "" {
		mfa = "yes"
	}
	return fmt.Sprintf("Credentials{user=%s password=**** enable=**** mfa=%s}", c.Username, mfa)
}

// GoString 与 String 相同,防止 %#v 泄露密码
func (c Credentials) GoString() string {
	return c.String()
}

// Status 一台设备在本次运行中的处理结果
type Status string

const (
	StatusWritten Status = "written" // 已写入结果文件
	StatusSkipped Status = "skipped" // 平台不支持，未建立会话
	StatusFailed  Status = "failed"  // 连接失败或写文件失败
)

// Outcome 一台设备的处理记录，用于汇总输出和运行记录
type Outcome struct {
	Target         Target
	Status         Status
	File           string
	CommandsRun    int
	CommandsFailed int
	Err            error
}
