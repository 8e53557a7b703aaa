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
package cmd

import (
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hitzhangjie/wdbg/pkg/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wdbg",
	Short: "wdbg is a debugger for native windows programs",
	Long: `wdbg is a debugger for native windows programs.

It launches or attaches to a process through the windows debug api and
offers an interactive shell to control its threads, inspect registers and
memory, and set breakpoints.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if err = cfg.SetupLogging(); err != nil {
			return err
		}
		sessionConfig = cfg
		return nil
	},
}

// sessionConfig is loaded before any subcommand runs.
var sessionConfig *config.Config

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wdbg.yaml)")
	rootCmd.PersistentFlags().String("log", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug-events", false, "trace every debug event")
	rootCmd.PersistentFlags().Bool("debug-exceptions", false, "trace exception details")

	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log"))
	viper.BindPFlag(config.KeyDebugEvents, rootCmd.PersistentFlags().Lookup("debug-events"))
	viper.BindPFlag(config.KeyDebugExceptions, rootCmd.PersistentFlags().Lookup("debug-exceptions"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".wdbg" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".wdbg")
	}

	viper.SetEnvPrefix("wdbg")
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}
