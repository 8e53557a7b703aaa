package debug

import (
	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait [thread]",
	Short: "等待被调试进程停止",
	Long: `等待被调试进程停止.

Used after "continue --no-wait". Ctrl-C gives up waiting.`,
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbp, err := process()
		if err != nil {
			return err
		}
		var tid string
		if len(args) != 0 {
			tid = args[0]
		}
		desired, err := parseThreadID(tid)
		if err != nil {
			return err
		}
		return waitStop(cmdContext(), dbp, desired)
	},
}

func init() {
	debugRootCmd.AddCommand(waitCmd)
}
