package credential

import (
	"context"
	"os"
	"os/user"
	"strings"

	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/models"
)

// Provider 定义凭据来源。三种实现互斥，由调用方根据命令行参数选择
type Provider interface {
	Resolve(ctx context.Context) (models.Credentials, error)
}

// LookupFunc 与 os.LookupEnv 签名一致，便于测试替换
type LookupFunc func(key string) (string, bool)

// EnvNames 凭据使用的环境变量名
type EnvNames struct {
	User     string
	Password string
	Enable   string // 可选
}

// EnableSecret 决定 enable 密码:
// 显式提供的值优先；否则只有 fallback 为 true 时才复用登录密码。
// MFA 验证码永远不参与 enable 密码。
func EnableSecret(explicit, password string, fallback bool) string {
	if explicit != "" {
		return explicit
	}
	if fallback {
		return password
	}
	return ""
}

// EnvProvider 从环境变量读取用户名和密码(默认模式)
type EnvProvider struct {
	Names  EnvNames
	Lookup LookupFunc
	// EnableFallback 未设置 enable 变量时是否复用登录密码
	EnableFallback bool
}

func NewEnvProvider(names EnvNames, enableFallback bool) *EnvProvider {
	return &EnvProvider{Names: names, Lookup: os.LookupEnv, EnableFallback: enableFallback}
}

func (p *EnvProvider) Resolve(ctx context.Context) (models.Credentials, error) {
	usr, pwd, err := requireUserPassword(p.lookup(), p.Names)
	if err != nil {
		return models.Credentials{}, err
	}
	enable, _ := optional(p.lookup(), p.Names.Enable)
	return models.Credentials{
		Username:     usr,
		Password:     pwd,
		EnableSecret: EnableSecret(enable, pwd, p.EnableFallback),
	}, nil
}

func (p *EnvProvider) lookup() LookupFunc {
	if p.Lookup == nil {
		return os.LookupEnv
	}
	return p.Lookup
}

// InteractiveProvider 从终端交互式读取凭据
type InteractiveProvider struct {
	Prompter Prompter
	// Notice 在读取密码前打印的提示(例如批量模式下的凭据复用说明)
	Notice         string
	EnableFallback bool
	// CurrentUser 返回默认用户名，nil 时使用当前系统用户
	CurrentUser func() string
}

func (p *InteractiveProvider) Resolve(ctx context.Context) (models.Credentials, error) {
	def := p.currentUser()
	usr, err := p.Prompter.ReadLine("Username [" + def + "]: ")
	if err != nil {
		return models.Credentials{}, errs.Configf("failed to read username: %w", err)
	}
	usr = strings.TrimSpace(usr)
	if usr == "" {
		usr = def
	}
	if usr == "" {
		return models.Credentials{}, errs.Configf("no username given and current OS user is unknown")
	}

	p.Prompter.Notify("Password and Enable Password will not be echoed to the screen or saved.")
	if p.Notice != "" {
		p.Prompter.Notify(p.Notice)
	}

	pwd, err := p.Prompter.ReadSecret("Password: ")
	if err != nil {
		return models.Credentials{}, errs.Configf("failed to read password: %w", err)
	}
	enable, err := p.Prompter.ReadSecret("Enable: ")
	if err != nil {
		return models.Credentials{}, errs.Configf("failed to read enable password: %w", err)
	}
	return models.Credentials{
		Username:     usr,
		Password:     pwd,
		EnableSecret: EnableSecret(enable, pwd, p.EnableFallback),
	}, nil
}

func (p *InteractiveProvider) currentUser() string {
	if p.CurrentUser != nil {
		return p.CurrentUser()
	}
	return CurrentOSUser()
}

// MFAProvider 从环境变量读取基础账号，再提示输入一次性验证码
type MFAProvider struct {
	Names          EnvNames
	Lookup         LookupFunc
	Prompter       Prompter
	EnableFallback bool
}

func (p *MFAProvider) Resolve(ctx context.Context) (models.Credentials, error) {
	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	usr, pwd, err := requireUserPassword(lookup, p.Names)
	if err != nil {
		return models.Credentials{}, err
	}
	code, err := p.Prompter.ReadLine("Enter your 2-Factor Access Security Code: ")
	if err != nil {
		return models.Credentials{}, errs.Configf("failed to read security code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" || !isDigits(code) {
		return models.Credentials{}, errs.Configf("security code must be numeric")
	}
	enable, _ := optional(lookup, p.Names.Enable)
	return models.Credentials{
		Username:     usr,
		Password:     pwd,
		EnableSecret: EnableSecret(enable, pwd, p.EnableFallback),
		MFACode:      code,
	}, nil
}

// CurrentOSUser 返回当前系统用户名，获取失败时返回空串
func CurrentOSUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

func requireUserPassword(lookup LookupFunc, names EnvNames) (string, string, error) {
	usr, ok := optional(lookup, names.User)
	if !ok {
		return "", "", errs.Configf("required environment variable %s is not set", names.User)
	}
	pwd, ok := optional(lookup, names.Password)
	if !ok {
		return "", "", errs.Configf("required environment variable %s is not set", names.Password)
	}
	return usr, pwd, nil
}

// optional 读取环境变量，空值视为未设置
func optional(lookup LookupFunc, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	v, ok := lookup(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
