/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/wentf9/showcmd/cmd/version"
	"github.com/wentf9/showcmd/pkg/config"
	"github.com/wentf9/showcmd/pkg/errs"
	"github.com/wentf9/showcmd/pkg/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewCmdRoot(NewCollectOptions())

// NewCmdRoot 根命令本身执行批量采集，o 由调用方提供以便测试替换连接方式
func NewCmdRoot(o *CollectOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "showcmd -d <device> | -f <device_file> [flags]",
		Short: "showcmd 批量登录网络设备执行 show 命令并保存输出",
		Long: `showcmd 通过 SSH 登录一台或多台网络设备(路由器、交换机、无线控制器)，
按设备平台执行一组只读的 show 命令，把原始输出保存为每台设备一个文本文件，
便于变更前后对比。

用法示例:
showcmd -d 10.1.10.50
showcmd -d 10.1.10.50 -s "show version"
showcmd -f devices.txt -n "pre change" -o local
showcmd -f devices.txt -t cisco_nxos -c

默认从环境变量 NET_USR / NET_PWD 读取凭据，-c 交互式输入，-m 追加二次验证码。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugEnabled(cmd) {
				logger.SetLogLevel("debug")
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				version.PrintFullVersion(cmd.OutOrStdout())
				return nil
			}
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			return o.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&o.Device, "device", "d", "", "单台设备的地址")
	cmd.Flags().StringVarP(&o.DeviceFile, "file_of_devs", "f", "", "设备列表文件，每行一个地址")
	cmd.Flags().StringVarP(&o.DeviceType, "device_type", "t", "cisco_ios", "设备平台类型，auto 表示按地址自动分类")
	cmd.Flags().IntVarP(&o.Port, "port", "p", 22, "SSH端口")
	cmd.Flags().StringVarP(&o.OutputDir, "output_subdir", "o", "local", "输出目录")
	cmd.Flags().StringVarP(&o.ShowCmd, "show_cmd", "s", "", "只执行这一条命令，忽略命令表")
	cmd.Flags().StringVarP(&o.Note, "note", "n", "", "追加到文件名中的备注")
	cmd.Flags().BoolVarP(&o.MFA, "mfa", "m", false, "使用二次验证码登录")
	cmd.Flags().BoolVarP(&o.Interactive, "credentials", "c", false, "交互式输入凭据")
	cmd.Flags().BoolP("version", "v", false, "显示版本信息")

	cmd.MarkFlagsMutuallyExclusive("device", "file_of_devs")
	cmd.MarkFlagsMutuallyExclusive("mfa", "credentials")

	cmd.PersistentFlags().StringVar(&o.ConfigFile, "config", "", "配置文件 (默认查找 ./showcmd.yaml 和 ~/.showcmd/showcmd.yaml)")
	cmd.PersistentFlags().StringVar(&o.CommandsFile, "commands_file", "", "命令表文件 (默认 ./show_cmds.yml，不存在时使用内置命令表)")
	cmd.PersistentFlags().Bool("debug", false, "开启调试模式")

	cmd.AddCommand(
		NewCmdCommands(o),
		NewCmdClassify(o),
		NewCmdHistory(o),
		NewCmdPing(o),
		NewCmdEncrypt(o),
		NewCmdVersion(),
	)
	return cmd
}

func debugEnabled(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("debug")
	return v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR! %v\n", err)
		os.Exit(1)
	}
}

// loadSettings 读取配置并按配置初始化日志，--debug 优先于配置中的级别
func loadSettings(path string, debug bool) (*config.Settings, error) {
	s, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(s.Log); err != nil {
		return nil, errs.Configf("failed to open log file: %w", err)
	}
	if debug {
		logger.SetLogLevel("debug")
	}
	return s, nil
}
