package debug

import (
	"fmt"

	"github.com/hitzhangjie/wdbg/pkg/winapi"
	"github.com/spf13/cobra"
)

var siginfoCmd = &cobra.Command{
	Use:   "siginfo",
	Short: "打印最近一次异常的详细信息",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbp, err := process()
		if err != nil {
			return err
		}

		rec := dbp.SigInfo
		if rec.Code == 0 {
			fmt.Println("no exception")
			return nil
		}
		fmt.Printf("signal:  %s\n", dbp.LastSignal)
		fmt.Printf("code:    %#x (%s)\n", rec.Code, winapi.ExceptionName(rec.Code))
		fmt.Printf("flags:   %#x\n", rec.Flags)
		fmt.Printf("address: %#x\n", rec.Address)
		n := int(rec.NumberParameters)
		if n > len(rec.Information) {
			n = len(rec.Information)
		}
		for i := 0; i < n; i++ {
			fmt.Printf("info[%d]: %#x\n", i, rec.Information[i])
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(siginfoCmd)
}
