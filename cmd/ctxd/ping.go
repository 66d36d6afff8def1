package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/rpc"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionPing})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(clistyle.Ok("pong"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
