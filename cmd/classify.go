package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wentf9/showcmd/pkg/classifier"
	"github.com/wentf9/showcmd/pkg/commands"
)

func NewCmdClassify(o *CollectOptions) *cobra.Command {
	var listRules bool
	cmd := &cobra.Command{
		Use:   "classify <address>...",
		Short: "显示地址会被分类成哪种平台",
		Long: `按分类规则判断每个地址的平台类型，不连接设备。
用法示例:
showcmd classify sw-ds01 10.1.10.109 192.168.1.1
showcmd classify --rules`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(o.ConfigFile, debugEnabled(cmd))
			if err != nil {
				return err
			}
			cls, err := classifier.FromConfig(s.Classifier)
			if err != nil {
				return err
			}
			if listRules {
				printRules(cmd.OutOrStdout(), cls)
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("at least one address is required")
			}
			printClassification(cmd.OutOrStdout(), cls, args)
			return nil
		},
	}
	cmd.Flags().BoolVar(&listRules, "rules", false, "显示分类规则表")
	return cmd
}

func printClassification(out io.Writer, cls *classifier.Classifier, addresses []string) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tPLATFORM\tRULE\tFAMILY\tOVERRIDE")
	for _, a := range addresses {
		c := cls.Classify(a)
		family := "-"
		if f, ok := commands.FamilyOf(c.Platform); ok {
			family = string(f)
		}
		rule := c.Rule
		if rule == "" {
			rule = "-"
		}
		override := "-"
		if c.Override != nil && c.Override.Username != "" {
			override = c.Override.Username
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a, c.Platform, rule, family, override)
	}
	w.Flush()
}

func printRules(out io.Writer, cls *classifier.Classifier) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tPATTERN\tPLATFORM")
	for i, r := range cls.Rules() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, r.Name, r.Pattern, r.Platform)
	}
	w.Flush()
}
