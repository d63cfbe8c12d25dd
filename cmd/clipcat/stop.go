package main

import (
	"clipcat/internal/config"
	"clipcat/internal/server"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(stopCmd)
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pid, err := server.StopRunning(viper.GetString(config.KeyDataDir))
		if err != nil {
			return err
		}
		if pid == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "clipcat is not running")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stopped clipcat (pid %d)\n", pid)
		return nil
	},
}
