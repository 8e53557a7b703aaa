package debug

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var disassCmd = &cobra.Command{
	Use:   "disass [address]",
	Short: "反汇编机器指令",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSource,
	},
	Aliases: []string{"dis", "disassemble"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			max, _    = cmd.Flags().GetInt("max")
			syntax, _ = cmd.Flags().GetString("syntax")
		)

		dbp, err := process()
		if err != nil {
			return err
		}

		// 读取PC值, already adjusted when stopped at a breakpoint
		var pc uint64
		if len(args) != 0 {
			if pc, err = parseAddress(args[0]); err != nil {
				return err
			}
		} else {
			t, err := selectedThread(dbp)
			if err != nil {
				return err
			}
			if pc, err = t.PC(); err != nil {
				return err
			}
		}

		// original bytes are shown under breakpoints
		insts, err := dbp.Disassemble(pc, max, syntax)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)
		for _, inst := range insts {
			fmt.Fprintf(tw, "%#x:\t% x\t%s\n", inst.Addr, inst.Bytes, inst.Asm)
		}
		return tw.Flush()
	},
}

func init() {
	debugRootCmd.AddCommand(disassCmd)

	disassCmd.Flags().IntP("max", "n", 10, "反汇编指令数量")
	disassCmd.Flags().StringP("syntax", "s", "gnu", "反汇编指令语法，支持：go, gnu, intel")
}
