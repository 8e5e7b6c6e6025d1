package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wentf9/showcmd/pkg/config"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/models"
)

func TestClassifyDefaultRules(t *testing.T) {
	c, err := NewClassifier(nil)
	require.NoError(t, err)

	tests := []struct {
		addr     string
		platform models.Platform
		rule     string
	}{
		{"sw-ds01", models.PlatformIOS, "core-device"},
		{"BLDG1-AS12", models.PlatformIOS, "core-device"},
		{"dc1-srv01", models.PlatformNXOS, "server-suffix"},
		{"br-sp01", models.PlatformSilverPeak, "wan-optimizer"},
		{"hq-wlc01", models.PlatformWLC, "wireless-controller"},
		{"10.1.10.109", models.PlatformWLC, "readonly-controller"},
		{"10.1.10.50", models.PlatformIOS, "lab-subnets"},
		{"1.1.1.5", models.PlatformIOS, "lab-subnets"},
		{"10.20.0.1", models.PlatformIOS, "private-10"},
		{"192.168.1.1", models.PlatformUnknown, ""},
		{"core-router", models.PlatformUnknown, ""},
		// IP 规则有锚点
		{"110.1.1.1", models.PlatformUnknown, ""},
		{"210.1.10.109", models.PlatformUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got := c.Classify(tt.addr)
			assert.Equal(t, tt.platform, got.Platform)
			assert.Equal(t, tt.rule, got.Rule)
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c, err := NewClassifier(nil)
	require.NoError(t, err)

	// 同时满足核心设备和无线控制器规则，前者优先
	assert.Equal(t, models.PlatformIOS, c.Classify("cs01-wlc01").Platform)

	// 10.1.10.109 同时满足后面的 IOS 网段规则
	got := c.Classify("10.1.10.109")
	assert.Equal(t, models.PlatformWLC, got.Platform)
	require.NotNil(t, got.Override)
	assert.Equal(t, "adminro", got.Override.Username)
	assert.Equal(t, "Readonly1", got.Override.EnableSecret)

	assert.Nil(t, c.Classify("10.1.10.50").Override)
}

func TestOverrideApply(t *testing.T) {
	base := models.Credentials{Username: "ops", Password: "pw", EnableSecret: "en", MFACode: "123456"}

	var none *CredentialOverride
	assert.Equal(t, base, none.Apply(base))

	o := &CredentialOverride{Username: "adminro", Password: "Readonly1"}
	got := o.Apply(base)
	assert.Equal(t, "adminro", got.Username)
	assert.Equal(t, "Readonly1", got.AuthSecret())
	assert.Empty(t, got.EnableSecret)
	// 原凭据不受影响
	assert.Equal(t, "ops", base.Username)

	got = (&CredentialOverride{Password: "x", EnableSecret: "y"}).Apply(base)
	assert.Equal(t, "ops", got.Username)
	assert.Equal(t, "y", got.EnableSecret)

	// 只覆盖用户名时保留批量的密码和 enable 密码
	got = (&CredentialOverride{Username: "viewer"}).Apply(base)
	assert.Equal(t, "pw", got.Password)
	assert.Equal(t, "en", got.EnableSecret)
}

func TestNewClassifierInvalidRule(t *testing.T) {
	_, err := NewClassifier([]Rule{{Name: "bad", Pattern: "(", Platform: models.PlatformIOS}})
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))

	_, err = NewClassifier([]Rule{{Name: "empty", Platform: models.PlatformIOS}})
	assert.True(t, errs.IsConfig(err))

	_, err = NewClassifier([]Rule{{Name: "noplat", Pattern: "x"}})
	assert.True(t, errs.IsConfig(err))
}

func TestFromConfig(t *testing.T) {
	c, err := FromConfig(config.ClassifierConfig{Rules: []config.RuleConfig{
		{Name: "edge", Pattern: `^edge-`, Platform: "cisco_nxos"},
		{Name: "ro", Pattern: `^ro-`, Platform: "cisco_wlc", Username: "viewer"},
	}})
	require.NoError(t, err)

	assert.Equal(t, models.PlatformNXOS, c.Classify("EDGE-01").Platform)
	got := c.Classify("ro-7")
	assert.Equal(t, models.PlatformWLC, got.Platform)
	require.NotNil(t, got.Override)
	assert.Equal(t, "viewer", got.Override.Username)
	// 自定义规则替换内置规则
	assert.Equal(t, models.PlatformUnknown, c.Classify("10.1.1.1").Platform)
	assert.Len(t, c.Rules(), 2)

	c, err = FromConfig(config.ClassifierConfig{})
	require.NoError(t, err)
	assert.Len(t, c.Rules(), len(DefaultRules()))
}
