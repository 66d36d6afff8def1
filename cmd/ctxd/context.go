package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/rpc"
)

var contextPrompt string

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Fetch the rendered context blob for the current project",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		req := rpc.Request{Action: rpc.ActionGetContext, Cwd: cwd}
		if contextPrompt != "" {
			req.Prompt = &contextPrompt
		}
		resp, err := client.Call(req)
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(resp.Data.Context)
		return nil
	},
}

var prepareContextCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Warm the context cache for the current project in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		req := rpc.Request{Action: rpc.ActionPrepareContext, Cwd: cwd}
		if contextPrompt != "" {
			req.Prompt = &contextPrompt
		}
		if err := client.CallFireAndForget(req); err != nil {
			return err
		}
		fmt.Println(clistyle.Ack("context warm requested"))
		return nil
	},
}

func init() {
	contextCmd.Flags().StringVar(&contextPrompt, "prompt", "", "prompt shown as the heading of the rendered context")
	prepareContextCmd.Flags().StringVar(&contextPrompt, "prompt", "", "prompt sent with the warm request (the daemon's warm step does not use it)")
	contextCmd.AddCommand(prepareContextCmd)
	rootCmd.AddCommand(contextCmd)
}
