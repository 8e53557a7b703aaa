/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hitzhangjie/wdbg/cmd/debug"
	"github.com/hitzhangjie/wdbg/pkg/target"

	"github.com/spf13/cobra"
)

// attachCmd represents the attach command
var attachCmd = &cobra.Command{
	Use:   "attach <traceePID>",
	Short: "调试运行中进程",
	Long:  `调试运行中进程`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if len(args) != 1 {
			return errors.New("参数错误")
		}

		pid, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			return fmt.Errorf("%s invalid traceePID", args[0])
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		dbp := newProcess()
		if err = dbp.Attach(ctx, uint32(pid)); err != nil {
			dbp.Close()
			return err
		}
		target.DBPProcess = dbp
		debug.PrintStop(dbp)
		return nil
	},
	PostRun: func(cmd *cobra.Command, args []string) {
		// attached process is detached and keeps running after the session
		debug.CurrentSession = debug.NewDebugSession().AtExit(debug.Cleanup)
		debug.CurrentSession.Start()
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
}
