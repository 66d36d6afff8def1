package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/rpc"
	"github.com/ctxmemd/ctxd/internal/storage"
)

var (
	expAgentID      string
	expDecision     string
	expRationale    string
	expFilesTouched []string
)

var experienceCmd = &cobra.Command{
	Use:   "experience",
	Short: "Post agent-decision records for the current project",
}

var experienceAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Graft an experience record (fire-and-forget)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		exp := storage.Experience{AgentID: expAgentID, Decision: expDecision, FilesTouched: expFilesTouched}
		if expRationale != "" {
			exp.Rationale = &expRationale
		}
		if err := client.CallFireAndForget(rpc.Request{Action: rpc.ActionGraftExperience, Cwd: cwd, Experience: &exp}); err != nil {
			return err
		}
		fmt.Println(clistyle.Ack("experience grafted"))
		return nil
	},
}

func init() {
	experienceAddCmd.Flags().StringVar(&expAgentID, "agent-id", "", "agent identifier")
	experienceAddCmd.Flags().StringVar(&expDecision, "decision", "", "decision made")
	experienceAddCmd.Flags().StringVar(&expRationale, "rationale", "", "optional rationale")
	experienceAddCmd.Flags().StringSliceVar(&expFilesTouched, "file", nil, "a touched file path (repeatable)")

	experienceCmd.AddCommand(experienceAddCmd)
	rootCmd.AddCommand(experienceCmd)
}
