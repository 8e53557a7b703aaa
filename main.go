/*
Copyright © 2020 hit.zhangjie@gmail.com

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
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/hitzhangjie/wdbg/cmd"
	"github.com/hitzhangjie/wdbg/cmd/debug"
)

func main() {
	go processSignals()
	cmd.Execute()
}

func processSignals() {
	ch := make(chan os.Signal, 16)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	for sig := range ch {

		switch sig {
		case os.Interrupt:
			// Ctrl-C while the debuggee runs stops waiting for it, at the
			// prompt liner handles it
			if s := debug.CurrentSession; s != nil {
				s.Interrupt()
			}
		case syscall.SIGTERM:
			// the system kills a debuggee when its debugger exits
			os.RemoveAll(cmd.BuildExecName)
			os.Exit(0)
		}
	}
}
