package debug

import (
	"fmt"

	"github.com/hitzhangjie/wdbg/pkg/target"
	"github.com/spf13/cobra"
)

var continueCmd = &cobra.Command{
	Use:   "continue [thread]",
	Short: "运行到下个断点",
	Long: `运行到下个断点.

Without a thread id every thread runs and the next stop of any thread is
reported. With a thread id only that thread runs, the others stay
suspended.`,
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	Aliases: []string{"c"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			sigName, _ = cmd.Flags().GetString("signal")
			noWait, _  = cmd.Flags().GetBool("no-wait")
		)

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

		sig := target.Signal0
		if sigName != "" {
			if sig, err = target.ParseSignal(sigName); err != nil {
				return err
			}
		}

		// a thread sitting on one of our breakpoints executes the original
		// instruction first
		if t := dbp.CurrentThread(); t != nil && dbp.EventOutstanding() {
			st, err := dbp.StepOverBreakpoint(cmdContext(), t)
			if err != nil {
				return fmt.Errorf("step over breakpoint err: %v", err)
			}
			if st.Kind != target.StopStopped || st.Signal != target.SIGTRAP {
				report(dbp, t.ID, st)
				return nil
			}
		}

		if err = dbp.Continue(desired, sig); err != nil {
			return fmt.Errorf("continue error: %w", err)
		}
		if noWait {
			fmt.Println("continue ok")
			return nil
		}
		return waitStop(cmdContext(), dbp, desired)
	},
}

func init() {
	debugRootCmd.AddCommand(continueCmd)

	continueCmd.Flags().StringP("signal", "s", "", "pass the signal of the current exception to the debuggee")
	continueCmd.Flags().Bool("no-wait", false, "return without waiting for the next stop, see wait")
}
