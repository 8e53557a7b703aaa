package debug

import (
	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:     "step",
	Short:   "执行一条指令",
	Aliases: []string{"s", "si"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbp, err := process()
		if err != nil {
			return err
		}
		t, err := selectedThread(dbp)
		if err != nil {
			return err
		}

		// is a breakpoint, stepping over it is the single step
		if t.StoppedAtSoftwareBreakpoint {
			st, err := dbp.StepOverBreakpoint(cmdContext(), t)
			if err != nil {
				return err
			}
			report(dbp, t.ID, st)
			return nil
		}

		if err = dbp.Step(t.ID, 0); err != nil {
			return err
		}
		return waitStop(cmdContext(), dbp, t.ID)
	},
}

func init() {
	debugRootCmd.AddCommand(stepCmd)
}
