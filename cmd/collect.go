package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	cmdutils "github.com/wentf9/showcmd/cmd/utils"
	"github.com/wentf9/showcmd/global"
	"github.com/wentf9/showcmd/pkg/classifier"
	"github.com/wentf9/showcmd/pkg/commands"
	"github.com/wentf9/showcmd/pkg/config"
	"github.com/wentf9/showcmd/pkg/credential"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/executor"
	"github.com/wentf9/showcmd/pkg/journal"
	"github.com/wentf9/showcmd/pkg/logger"
	"github.com/wentf9/showcmd/pkg/models"
	"github.com/wentf9/showcmd/pkg/reach"
	"github.com/wentf9/showcmd/pkg/runner"
	"github.com/wentf9/showcmd/pkg/ssh"
	"github.com/wentf9/showcmd/pkg/storage"
	"github.com/wentf9/showcmd/pkg/utils/encoding"
)

type CollectOptions struct {
	Device       string
	DeviceFile   string
	DeviceType   string
	Port         int
	OutputDir    string
	ShowCmd      string
	Note         string
	MFA          bool
	Interactive  bool
	ConfigFile   string
	CommandsFile string

	// typeGiven 用户是否显式指定了 -t
	typeGiven bool
	debug     bool
	out       io.Writer

	// Opener 为空时使用 SSH 连接
	Opener executor.Opener
	// Prompter 为空时使用终端
	Prompter credential.Prompter
}

func NewCollectOptions() *CollectOptions {
	return &CollectOptions{
		DeviceType: string(models.PlatformIOS),
		Port:       22,
		OutputDir:  "local",
	}
}

func (o *CollectOptions) Complete(cmd *cobra.Command, args []string) error {
	o.typeGiven = cmd.Flags().Changed("device_type")
	o.debug = debugEnabled(cmd)
	o.out = cmd.OutOrStdout()
	o.Device = strings.TrimSpace(o.Device)
	o.DeviceType = strings.ToLower(strings.TrimSpace(o.DeviceType))
	if o.Prompter == nil {
		o.Prompter = credential.NewTerminalPrompter(global.IsTerminal)
	}
	return nil
}

func (o *CollectOptions) Validate() error {
	if o.Device == "" && o.DeviceFile == "" {
		return errs.Configf("a device (-d) or a device list file (-f) is required")
	}
	if o.Device != "" && o.DeviceFile != "" {
		return errs.Configf("-d and -f cannot be used together")
	}
	if o.MFA && o.Interactive {
		return errs.Configf("-m and -c cannot be used together")
	}
	if o.Port <= 0 || o.Port > 65535 {
		return errs.Configf("invalid port %d", o.Port)
	}
	if strings.TrimSpace(o.OutputDir) == "" {
		return errs.Configf("output directory must not be empty")
	}
	return nil
}

// platform 返回所有设备共用的平台，以及是否需要按地址分类
func (o *CollectOptions) platform() (models.Platform, bool) {
	p := models.Platform(o.DeviceType)
	switch {
	case p == models.PlatformAuto:
		return p, true
	case o.typeGiven:
		return p, false
	case o.DeviceFile != "":
		return models.PlatformAuto, true
	default:
		return models.PlatformIOS, false
	}
}

func (o *CollectOptions) provider(s *config.Settings) credential.Provider {
	c := s.Credentials
	if o.MFA {
		return &credential.MFAProvider{
			Names:          credential.EnvNames{User: c.MFAUserEnv, Password: c.MFAPasswordEnv, Enable: c.EnableEnv},
			Prompter:       o.Prompter,
			EnableFallback: c.EnableFallbackToPassword,
		}
	}
	if o.Interactive {
		p := &credential.InteractiveProvider{Prompter: o.Prompter, EnableFallback: c.EnableFallbackToPassword}
		if o.DeviceFile != "" {
			p.Notice = "The same credentials will be used for every device in the list."
		}
		return p
	}
	return credential.NewEnvProvider(
		credential.EnvNames{User: c.UserEnv, Password: c.PasswordEnv, Enable: c.EnableEnv},
		c.EnableFallbackToPassword,
	)
}

func (o *CollectOptions) Run(ctx context.Context) error {
	s, err := loadSettings(o.ConfigFile, o.debug)
	if err != nil {
		return err
	}
	if err := config.LoadDotenv(s.Credentials.Dotenv); err != nil {
		logger.Logger.WithError(err).Warn("failed to load dotenv file")
	}

	addresses := []string{o.Device}
	if o.DeviceFile != "" {
		if addresses, err = cmdutils.ReadDeviceFile(o.DeviceFile); err != nil {
			return err
		}
	}
	platform, classify := o.platform()

	commandsFile := o.CommandsFile
	if commandsFile == "" {
		commandsFile = s.CommandsFile
	}
	table, err := commands.LoadTable(commandsFile)
	if err != nil {
		return err
	}
	cls, err := classifier.FromConfig(s.Classifier)
	if err != nil {
		return err
	}

	creds, err := o.provider(s).Resolve(ctx)
	if err != nil {
		return err
	}
	logger.Logger.Debugf("credentials resolved: %s", creds)

	opener := o.Opener
	if opener == nil {
		opener = ssh.NewConnector(s.SSH)
	}
	exec := executor.New(opener, o.out)
	if s.Output.EnsureUTF8 {
		exec.Normalize = encoding.EnsureUTF8
	}

	r := &runner.Runner{
		Classifier: cls,
		Commands:   table,
		Executor:   exec,
		Writer:     storage.NewLocalWriter(o.OutputDir),
		Out:        o.out,
	}
	if s.Precheck.Enabled {
		r.Checker = reach.New(s.Precheck)
	}
	if s.Storage.Minio.Enabled {
		m, err := storage.NewMinioMirror(s.Storage.Minio)
		if err != nil {
			return err
		}
		r.Mirror = m
	}
	if s.Journal.Enabled {
		j, err := journal.Open(s.Journal.Path)
		if err != nil {
			logger.Logger.WithError(err).Warn("journal disabled for this run")
		} else {
			defer j.Close()
			r.Recorder = j
			logger.Logger.Debugf("journal run id %s", j.RunID())
		}
	}
	if global.IsTerminal && global.IsErrTerminal && len(addresses) > 1 {
		r.Progress = runner.NewBar(len(addresses), os.Stderr)
	}

	_, err = r.Run(ctx, creds, runner.Job{
		Targets:  cmdutils.BuildTargets(addresses, platform, o.Port, o.Note),
		Classify: classify,
		Adhoc:    o.ShowCmd,
		Note:     o.Note,
	})
	return err
}
