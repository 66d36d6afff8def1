package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/memstore"
	"github.com/ctxmemd/ctxd/internal/rpc"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage durable memory entries for the current project",
}

var (
	memKind    string
	memContent string
	memTags    string
	memID      string
	memLimit   int
)

var memoryPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Append or upsert a memory entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		entry := memstore.Entry{ID: memID, Kind: memKind, Content: memContent, Tags: splitTags(memTags)}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionMemoryPut, Cwd: cwd, Entry: &entry})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(clistyle.Ok(fmt.Sprintf("stored %s", resp.Data.Entry.ID)))
		return nil
	},
}

var memoryPatchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Partially update a memory entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		patch := memstore.Patch{}
		if cmd.Flags().Changed("content") {
			patch.Content = &memContent
		}
		if cmd.Flags().Changed("kind") {
			patch.Kind = &memKind
		}
		if cmd.Flags().Changed("tags") {
			tags := splitTags(memTags)
			patch.Tags = &tags
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionMemoryPatch, Cwd: cwd, ID: memID, Patch: &patch})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(clistyle.Ok(fmt.Sprintf("patched %s", resp.Data.Entry.ID)))
		return nil
	},
}

var memoryDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Tombstone a memory entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionMemoryDelete, Cwd: cwd, ID: memID})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(clistyle.Ok(fmt.Sprintf("deleted %s", resp.Data.Entry.ID)))
		return nil
	},
}

var memoryGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Fetch the latest live version of a memory entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionMemoryGet, Cwd: cwd, ID: memID})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		if resp.Data.Entry == nil {
			fmt.Println(clistyle.Error("not found"))
			return nil
		}
		fmt.Println(clistyle.Ok(resp.Data.Entry.Content))
		return nil
	},
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionMemoryList, Cwd: cwd, Limit: memLimit})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		for _, e := range resp.Data.Entries {
			fmt.Printf("%s\t%s\t%s\n", e.ID, e.Kind, e.Content)
		}
		return nil
	},
}

var memorySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Force a full replay of the memory log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionMemorySync, Cwd: cwd})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(clistyle.Ok("synced"))
		return nil
	},
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	memoryPutCmd.Flags().StringVar(&memID, "id", "", "entry id (generated if blank)")
	memoryPutCmd.Flags().StringVar(&memKind, "kind", "", "entry kind")
	memoryPutCmd.Flags().StringVar(&memContent, "content", "", "entry content")
	memoryPutCmd.Flags().StringVar(&memTags, "tags", "", "comma-separated tags")

	memoryPatchCmd.Flags().StringVar(&memID, "id", "", "entry id")
	memoryPatchCmd.Flags().StringVar(&memKind, "kind", "", "new kind")
	memoryPatchCmd.Flags().StringVar(&memContent, "content", "", "new content")
	memoryPatchCmd.Flags().StringVar(&memTags, "tags", "", "new comma-separated tags")

	memoryDeleteCmd.Flags().StringVar(&memID, "id", "", "entry id")
	memoryGetCmd.Flags().StringVar(&memID, "id", "", "entry id")
	memoryListCmd.Flags().IntVar(&memLimit, "limit", 50, "max entries to list")

	memoryCmd.AddCommand(memoryPutCmd, memoryPatchCmd, memoryDeleteCmd, memoryGetCmd, memoryListCmd, memorySyncCmd)
	rootCmd.AddCommand(memoryCmd)
}
