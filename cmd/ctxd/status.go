package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/rpc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print daemon status and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		resp, err := client.Call(rpc.Request{Action: rpc.ActionStatus})
		if err != nil {
			return err
		}
		if resp.Status == rpc.StatusError {
			fmt.Println(clistyle.Error(resp.Message))
			return fmt.Errorf("%s", resp.Message)
		}
		d := resp.Data
		fmt.Println(clistyle.Ok(fmt.Sprintf(
			"version=%s uptime=%ds projects=%d mem=%dB requests=%d cache_hit_rate=%.2f avg_latency=%dms",
			d.Version, d.UptimeSecs, d.ProjectsLoaded, d.MemoryUsageBytes, d.RequestsTotal, d.CacheHitRate, d.AvgLatencyMs,
		)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
