/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/wentf9/showcmd/pkg/models"
	"github.com/wentf9/showcmd/pkg/reach"
)

// NewCmdPing 使用与采集前检查相同的方式探测设备
func NewCmdPing(o *CollectOptions) *cobra.Command {
	var tcp bool
	cmd := &cobra.Command{
		Use:   "ping <address> [port]",
		Short: "检查设备是否可达",
		Long: `该命令有两种工作模式:
1. ICMP Ping (1个参数):
   按配置 precheck.count / precheck.timeout 发送ICMP请求。
   示例: showcmd ping 10.1.10.50

2. TCP端口检查 (2个参数或 --tcp):
   尝试建立TCP连接判断SSH端口是否开放，默认端口22。
   示例: showcmd ping 10.1.10.50 22`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(o.ConfigFile, debugEnabled(cmd))
			if err != nil {
				return err
			}
			target := models.Target{Address: args[0], Port: 22}
			cfg := s.Precheck
			if len(args) == 2 {
				port, err := strconv.Atoi(args[1])
				if err != nil || port <= 0 || port > 65535 {
					return fmt.Errorf("invalid port %q", args[1])
				}
				target.Port = port
				tcp = true
			}
			if tcp {
				cfg.Method = reach.MethodTCP
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "正在通过%s检查 %s...\n", cfg.Method, target.HostPort())
			if err := reach.New(cfg).Check(cmd.Context(), target); err != nil {
				// 命令本身执行成功，所以不返回错误
				fmt.Fprintf(out, "设备 %s 不可达: %v\n", target.Address, err)
				return nil
			}
			fmt.Fprintf(out, "设备 %s 可达!\n", target.Address)
			return nil
		},
	}
	cmd.Flags().BoolVar(&tcp, "tcp", false, "使用TCP连接检查SSH端口")
	return cmd
}
