package debug

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var breakCmd = &cobra.Command{
	Use:   "break <address>",
	Short: "在指令地址处添加断点",
	Long: `在指令地址处添加断点.

地址支持十进制或者0x开头的十六进制.`,
	Aliases: []string{"b", "breakpoint"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {

		if len(args) != 1 {
			return errors.New("参数错误")
		}

		dbp, err := process()
		if err != nil {
			return err
		}

		addr, err := parseAddress(args[0])
		if err != nil {
			return err
		}

		// target add breakpoint
		bp, err := dbp.AddBreakpoint(addr)
		if err != nil {
			return err
		}
		fmt.Printf("add breakpoint %d, addr: %#x\n", bp.ID, bp.Addr)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(breakCmd)
}

func parseAddress(locStr string) (uint64, error) {
	v, err := strconv.ParseUint(locStr, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %v", err)
	}
	return v, nil
}
