package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "列出尚未报告的线程停止事件",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbp, err := process()
		if err != nil {
			return err
		}
		stops := dbp.PendingStops().Stops()
		if len(stops) == 0 {
			fmt.Println("no pending stops")
			return nil
		}
		for i, ps := range stops {
			fmt.Printf("#%d thread %#x %s, %s\n", i, ps.ThreadID, ps.Status, ps.Event)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(pendingCmd)
}
