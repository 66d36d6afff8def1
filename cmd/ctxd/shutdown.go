package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/rpc"
)

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Ask the running daemon to stop",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		if err := client.CallFireAndForget(rpc.Request{Action: rpc.ActionShutdown}); err != nil {
			return err
		}
		fmt.Println(clistyle.Ack("shutdown requested"))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("ctxd 0.1.0")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shutdownCmd)
	rootCmd.AddCommand(versionCmd)
}
