package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/rpc"
)

var initAsync bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the current directory as a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionInitProject, Cwd: cwd, AsyncMode: initAsync})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(clistyle.Ok("project initialized"))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the current directory is initialized",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionCheckInit, Cwd: cwd})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		if resp.Data.Initialized {
			fmt.Println(clistyle.Ok("initialized"))
		} else {
			fmt.Println(clistyle.Error("not initialized"))
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initAsync, "async", false, "defer the initial scan to the background")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
}
