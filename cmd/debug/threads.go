package debug

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "列出所有线程",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbp, err := process()
		if err != nil {
			return err
		}

		cur := dbp.CurrentThread()
		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(tw, "\tid\tname\tsuspend\ttlb")
		for _, t := range dbp.Registry().Threads() {
			mark := ""
			if t == cur {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%#x\t%s\t%s\t%#x\n", mark, t.ID, t.Name, t.Suspended(), t.ThreadLocalBase)
		}
		return tw.Flush()
	},
}

var threadCmd = &cobra.Command{
	Use:   "thread <id>",
	Short: "切换当前线程",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbp, err := process()
		if err != nil {
			return err
		}
		if len(args) != 1 {
			PrintStop(dbp)
			return nil
		}
		tid, err := parseThreadID(args[0])
		if err != nil {
			return err
		}
		if _, err = dbp.SelectThread(tid); err != nil {
			return err
		}
		PrintStop(dbp)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(threadsCmd)
	debugRootCmd.AddCommand(threadCmd)
}
