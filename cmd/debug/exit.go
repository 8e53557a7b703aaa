package debug

import (
	"context"
	"fmt"
	"os"

	"github.com/hitzhangjie/wdbg/pkg/target"
	"github.com/spf13/cobra"
)

var exitCmd = &cobra.Command{
	Use:     "exit",
	Short:   "结束调试会话",
	Aliases: []string{"quit", "q"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupOthers,
	},
	Run: func(cmd *cobra.Command, args []string) {
		CurrentSession.Stop()
	},
}

func init() {
	debugRootCmd.AddCommand(exitCmd)
}

// Cleanup 清理调试会话
func Cleanup() {
	var (
		dbp = target.DBPProcess
		err error
	)
	if dbp == nil {
		return
	}
	defer dbp.Close()

	// 根据被调试进程创建的方式，debug、exec or attach，来决定如何做善后处理
	// - debug: kill traced process, delete generated binary
	// - exec: kill traced process
	// - attach: detach traced process
	switch dbp.Kind {
	case target.DEBUG, target.EXEC:
		if !dbp.Exited() {
			fmt.Fprintf(os.Stdout, "tracee is run by tracer, kill it: %d\n", dbp.ID)
			if err = dbp.Kill(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "kill tracee: %d, err: %v\n", dbp.ID, err)
			}
		}
		if dbp.Kind == target.DEBUG {
			if err = os.RemoveAll(dbp.Command); err != nil {
				fmt.Fprintf(os.Stderr, "remove built binary %s, err: %v\n", dbp.Command, err)
			}
		}
	default:
		if dbp.Exited() {
			return
		}
		fmt.Fprintf(os.Stdout, "tracee is an attached process, leave it running: %d\n", dbp.ID)
		if err = dbp.Detach(); err != nil {
			fmt.Fprintf(os.Stderr, "detach tracee: %d, err: %v\n", dbp.ID, err)
		}
	}
}
