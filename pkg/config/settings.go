package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wentf9/showcmd/pkg/crypto"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/logger"
)

// Settings 对应 showcmd.yaml 的顶层结构
type Settings struct {
	Log          logger.Config     `mapstructure:"log"`
	Credentials  CredentialsConfig `mapstructure:"credentials"`
	CommandsFile string            `mapstructure:"commands_file"`
	SSH          SSHConfig         `mapstructure:"ssh"`
	Precheck     PrecheckConfig    `mapstructure:"precheck"`
	Output       OutputConfig      `mapstructure:"output"`
	Storage      StorageConfig     `mapstructure:"storage"`
	Journal      JournalConfig     `mapstructure:"journal"`
	Classifier   ClassifierConfig  `mapstructure:"classifier"`
	Secrets      SecretsConfig     `mapstructure:"secrets"`
}

// SecretsConfig 配置文件中 ENC: 开头的值使用该密钥解密
type SecretsConfig struct {
	KeyFile string `mapstructure:"key_file"`
}

// CredentialsConfig 凭据相关的环境变量名
type CredentialsConfig struct {
	Dotenv         string `mapstructure:"dotenv"`
	UserEnv        string `mapstructure:"user_env"`
	PasswordEnv    string `mapstructure:"password_env"`
	EnableEnv      string `mapstructure:"enable_env"`
	MFAUserEnv     string `mapstructure:"mfa_user_env"`
	MFAPasswordEnv string `mapstructure:"mfa_password_env"`
	// EnableFallbackToPassword 未提供 enable 密码时是否复用登录密码
	EnableFallbackToPassword bool `mapstructure:"enable_fallback_to_password"`
}

// SSHConfig SSH 传输配置
type SSHConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	CommandTimeout   time.Duration `mapstructure:"command_timeout"`
	Mode             string        `mapstructure:"mode"` // exec | shell
	PromptSuffixes   []string      `mapstructure:"prompt_suffixes"`
	LegacyAlgorithms bool          `mapstructure:"legacy_algorithms"`
}

// PrecheckConfig 连接前的 ICMP 探测
type PrecheckConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Method     string        `mapstructure:"method"` // icmp | tcp
	Count      int           `mapstructure:"count"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Privileged bool          `mapstructure:"privileged"`
}

// OutputConfig 输出内容处理
type OutputConfig struct {
	EnsureUTF8 bool `mapstructure:"ensure_utf8"`
}

// StorageConfig 输出文件的额外存储
type StorageConfig struct {
	Minio MinioConfig `mapstructure:"minio"`
}

// MinioConfig 对象存储镜像配置
type MinioConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
	Prefix    string `mapstructure:"prefix"`
}

// JournalConfig 运行记录数据库
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ClassifierConfig 地址分类规则，为空时使用内置规则
type ClassifierConfig struct {
	Rules []RuleConfig `mapstructure:"rules"`
}

// RuleConfig 一条分类规则
type RuleConfig struct {
	Name         string `mapstructure:"name"`
	Pattern      string `mapstructure:"pattern"`
	Platform     string `mapstructure:"platform"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	EnableSecret string `mapstructure:"enable_secret"`
}

// Load 读取配置文件。path 为空时在当前目录和 ~/.showcmd 下查找 showcmd.yaml，找不到则只使用默认值
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("showcmd")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.showcmd")
	}

	v.SetEnvPrefix("SHOWCMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errs.Configf("failed to read config file: %w", err)
		}
		logger.Logger.Debug("no showcmd.yaml found, using defaults")
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errs.Configf("failed to unmarshal config: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := s.revealSecrets(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Default 返回全部为默认值的配置
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	var s Settings
	_ = v.Unmarshal(&s)
	return &s
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "error")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", false)

	v.SetDefault("credentials.dotenv", ".env")
	v.SetDefault("credentials.user_env", "NET_USR")
	v.SetDefault("credentials.password_env", "NET_PWD")
	v.SetDefault("credentials.enable_env", "NET_ENABLE")
	v.SetDefault("credentials.mfa_user_env", "INET_USR")
	v.SetDefault("credentials.mfa_password_env", "INET_PWD")
	v.SetDefault("credentials.enable_fallback_to_password", false)

	v.SetDefault("commands_file", "")

	v.SetDefault("ssh.timeout", 15*time.Second)
	v.SetDefault("ssh.command_timeout", 30*time.Second)
	v.SetDefault("ssh.mode", "exec")
	v.SetDefault("ssh.prompt_suffixes", []string{"#", ">"})
	v.SetDefault("ssh.legacy_algorithms", true)

	v.SetDefault("precheck.enabled", false)
	v.SetDefault("precheck.method", "icmp")
	v.SetDefault("precheck.count", 1)
	v.SetDefault("precheck.timeout", 2*time.Second)
	v.SetDefault("precheck.privileged", false)

	v.SetDefault("output.ensure_utf8", false)

	v.SetDefault("storage.minio.enabled", false)
	v.SetDefault("storage.minio.bucket", "showcmd")
	v.SetDefault("storage.minio.secure", false)

	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", "./showcmd.db")

	v.SetDefault("secrets.key_file", "~/.showcmd/key")
}

func (s *Settings) validate() error {
	switch strings.ToLower(s.SSH.Mode) {
	case "exec", "shell":
	default:
		return errs.Configf("invalid ssh.mode %q (expected exec or shell)", s.SSH.Mode)
	}
	if s.Credentials.UserEnv == "" || s.Credentials.PasswordEnv == "" {
		return errs.Configf("credentials.user_env and credentials.password_env must not be empty")
	}
	if s.Storage.Minio.Enabled && (s.Storage.Minio.Endpoint == "" || s.Storage.Minio.Bucket == "") {
		return errs.Configf("storage.minio.endpoint and storage.minio.bucket are required when minio is enabled")
	}
	for i, r := range s.Classifier.Rules {
		if r.Pattern == "" || r.Platform == "" {
			return errs.Configf("classifier.rules[%d]: pattern and platform are required", i)
		}
	}
	switch strings.ToLower(s.Precheck.Method) {
	case "icmp", "tcp":
	default:
		return errs.Configf("invalid precheck.method %q (expected icmp or tcp)", s.Precheck.Method)
	}
	if s.Precheck.Count <= 0 {
		return errs.Configf("precheck.count must be positive, got %d", s.Precheck.Count)
	}
	return nil
}

// revealSecrets 解密 ENC: 开头的字段。没有加密字段时不读取密钥文件
func (s *Settings) revealSecrets() error {
	fields := []*string{&s.Storage.Minio.AccessKey, &s.Storage.Minio.SecretKey}
	for i := range s.Classifier.Rules {
		fields = append(fields, &s.Classifier.Rules[i].Password, &s.Classifier.Rules[i].EnableSecret)
	}
	if err := crypto.RevealFields(s.Secrets.KeyFile, fields...); err != nil {
		return errs.Configf("failed to decrypt config values: %w", err)
	}
	return nil
}
