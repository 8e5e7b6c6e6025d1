package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wentf9/showcmd/pkg/journal"
)

type HistoryOptions struct {
	root    *CollectOptions
	Limit   int
	Address string
	JSON    bool
	Path    string
}

func NewCmdHistory(o *CollectOptions) *cobra.Command {
	h := &HistoryOptions{root: o, Limit: 20}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "显示最近的运行记录",
		Long: `从运行记录数据库中读取最近的设备处理结果。
数据库路径取自配置 journal.path，也可以用 --db 指定。
用法示例:
showcmd history
showcmd history -a 10.1.10.50 -l 5
showcmd history --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Run(cmd)
		},
	}
	cmd.Flags().IntVarP(&h.Limit, "limit", "l", 20, "最多显示的记录数，0 表示全部")
	cmd.Flags().StringVarP(&h.Address, "address", "a", "", "只显示该设备的记录")
	cmd.Flags().BoolVar(&h.JSON, "json", false, "以 JSON 格式输出")
	cmd.Flags().StringVar(&h.Path, "db", "", "运行记录数据库路径")
	return cmd
}

func (h *HistoryOptions) Run(cmd *cobra.Command) error {
	path := h.Path
	if path == "" {
		s, err := loadSettings(h.root.ConfigFile, debugEnabled(cmd))
		if err != nil {
			return err
		}
		path = s.Journal.Path
	}
	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.Latest(h.Limit, h.Address)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if recs == nil {
		recs = []journal.RunRecord{}
	}
	if h.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	printHistory(cmd.OutOrStdout(), recs)
	return nil
}

func printHistory(out io.Writer, recs []journal.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tADDRESS\tPLATFORM\tSTATUS\tCOMMANDS\tFILE\tERROR")
	for _, r := range recs {
		file := r.File
		if file == "" {
			file = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Address, r.Platform, r.Status,
			r.CommandsRun-r.CommandsFailed, r.CommandsRun, file, r.Error)
	}
	w.Flush()
}
