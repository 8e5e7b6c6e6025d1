package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wentf9/showcmd/pkg/commands"
	"github.com/wentf9/showcmd/pkg/models"
)

func NewCmdCommands(o *CollectOptions) *cobra.Command {
	var deviceType string
	cmd := &cobra.Command{
		Use:     "commands [-t type]",
		Aliases: []string{"cmds"},
		Short:   "显示命令表",
		Long: `显示当前生效的命令表。
指定 -t 时只显示该平台类型会执行的命令，平台不受支持时返回错误。
用法示例:
showcmd commands
showcmd commands -t cisco_nxos
showcmd commands --commands_file my_cmds.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(o.ConfigFile, debugEnabled(cmd))
			if err != nil {
				return err
			}
			path := o.CommandsFile
			if path == "" {
				path = s.CommandsFile
			}
			table, err := commands.LoadTable(path)
			if err != nil {
				return err
			}
			return printCommands(cmd.OutOrStdout(), table, deviceType)
		},
	}
	cmd.Flags().StringVarP(&deviceType, "device_type", "t", "", "只显示该平台类型的命令")
	return cmd
}

func printCommands(w io.Writer, table *commands.Table, deviceType string) error {
	if deviceType != "" {
		cmds, err := table.Select(models.Target{Address: "-", Platform: models.Platform(strings.ToLower(deviceType))}, "")
		if err != nil {
			return err
		}
		f, _ := commands.FamilyOf(models.Platform(deviceType))
		fmt.Fprintf(w, "# %s (%s)\n", deviceType, f)
		for _, c := range cmds {
			fmt.Fprintln(w, c)
		}
		return nil
	}
	for _, f := range commands.Families() {
		cmds := table.Commands(f)
		fmt.Fprintf(w, "# %s (%d)\n", f, len(cmds))
		for _, c := range cmds {
			fmt.Fprintln(w, c)
		}
		fmt.Fprintln(w)
	}
	return nil
}
