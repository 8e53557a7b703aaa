package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:     "modules",
	Short:   "列出已加载的模块",
	Aliases: []string{"libs"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbp, err := process()
		if err != nil {
			return err
		}
		for _, m := range dbp.Modules() {
			fmt.Printf("%#016x %s\n", m.Base, m.Name)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(modulesCmd)
}
