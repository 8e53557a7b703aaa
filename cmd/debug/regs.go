package debug

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var regsCmd = &cobra.Command{
	Use:   "regs",
	Short: "打印当前线程的寄存器",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
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
		regs, err := t.Registers()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		for _, name := range regs.Names() {
			v, err := regs.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%#x\n", name, v)
		}

		if all, _ := cmd.Flags().GetBool("all"); all {
			d := regs.DebugRegisters()
			for i, addr := range d.Addr {
				fmt.Fprintf(tw, "dr%d\t%#x\n", i, addr)
			}
			fmt.Fprintf(tw, "dr6\t%#x\n", d.Status)
			fmt.Fprintf(tw, "dr7\t%#x\n", d.Control)
		}
		return tw.Flush()
	},
}

func init() {
	debugRootCmd.AddCommand(regsCmd)

	regsCmd.Flags().BoolP("all", "a", false, "also print the debug registers")
}
