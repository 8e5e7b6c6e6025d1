// Package classifier 根据设备地址(主机名或 IP)推断平台类型。
// 规则按顺序匹配，第一条命中的规则生效。
package classifier

import (
	"regexp"

	"github.com/wentf9/showcmd/pkg/config"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/models"
)

// CredentialOverride 某些设备使用固定账号，替换批量凭据中的对应字段
type CredentialOverride struct {
	Username     string
	Password     string
	EnableSecret string
}

// Apply 返回覆盖后的凭据，空字段保留原值。
// 覆盖了密码时，批量凭据中的 MFA 验证码和 enable 密码都不会被带到固定账号上
func (o *CredentialOverride) Apply(c models.Credentials) models.Credentials {
	if o == nil {
		return c
	}
	out := c
	if o.Username != "" {
		out.Username = o.Username
	}
	if o.Password != "" {
		out.Password = o.Password
		out.MFACode = ""
		out.EnableSecret = ""
	}
	if o.EnableSecret != "" {
		out.EnableSecret = o.EnableSecret
	}
	return out
}

// Rule 一条分类规则
type Rule struct {
	Name     string
	Pattern  string
	Platform models.Platform
	Override *CredentialOverride
}

// Classification 分类结果
type Classification struct {
	Platform models.Platform
	Override *CredentialOverride
	Rule     string // 命中的规则名，未命中时为空
}

// DefaultRules 内置规则表，顺序即优先级
func DefaultRules() []Rule {
	return []Rule{
		{Name: "core-device", Pattern: `(ar|as|ds|cs)\d\d`, Platform: models.PlatformIOS},
		{Name: "server-suffix", Pattern: `-srv\d\d`, Platform: models.PlatformNXOS},
		{Name: "wan-optimizer", Pattern: `-sp\d\d`, Platform: models.PlatformSilverPeak},
		{Name: "wireless-controller", Pattern: `-wlc\d\d`, Platform: models.PlatformWLC},
		{
			Name:     "readonly-controller",
			Pattern:  `^10\.1\.10\.109$`,
			Platform: models.PlatformWLC,
			Override: &CredentialOverride{Username: "adminro", Password: "Readonly1", EnableSecret: "Readonly1"},
		},
		{Name: "lab-subnets", Pattern: `^(10\.1\.10\.|1\.1\.1\.)`, Platform: models.PlatformIOS},
		{Name: "private-10", Pattern: `^10\.`, Platform: models.PlatformIOS},
	}
}

type compiled struct {
	rule Rule
	re   *regexp.Regexp
}

// Classifier 编译后的规则表，创建后只读，可并发使用
type Classifier struct {
	rules []compiled
}

// NewClassifier 编译规则，任何一条无效都返回 ConfigError。rules 为空时使用内置规则
func NewClassifier(rules []Rule) (*Classifier, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	c := &Classifier{rules: make([]compiled, 0, len(rules))}
	for i, r := range rules {
		if r.Pattern == "" {
			return nil, errs.Configf("classifier rule %d (%s): empty pattern", i, r.Name)
		}
		if r.Platform == "" {
			return nil, errs.Configf("classifier rule %d (%s): empty platform", i, r.Name)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, errs.Configf("classifier rule %d (%s): %w", i, r.Name, err)
		}
		c.rules = append(c.rules, compiled{rule: r, re: re})
	}
	return c, nil
}

// FromConfig 由配置文件中的规则构造分类器
func FromConfig(cfg config.ClassifierConfig) (*Classifier, error) {
	rules := make([]Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		r := Rule{Name: rc.Name, Pattern: rc.Pattern, Platform: models.Platform(rc.Platform)}
		if rc.Username != "" || rc.Password != "" || rc.EnableSecret != "" {
			r.Override = &CredentialOverride{
				Username:     rc.Username,
				Password:     rc.Password,
				EnableSecret: rc.EnableSecret,
			}
		}
		rules = append(rules, r)
	}
	return NewClassifier(rules)
}

// Classify 返回第一条匹配规则的平台，无匹配时为 unknown
func (c *Classifier) Classify(address string) Classification {
	for _, cr := range c.rules {
		if cr.re.MatchString(address) {
			return Classification{Platform: cr.rule.Platform, Override: cr.rule.Override, Rule: cr.rule.Name}
		}
	}
	return Classification{Platform: models.PlatformUnknown}
}

// Rules 返回规则表副本
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, cr := range c.rules {
		out[i] = cr.rule
	}
	return out
}
