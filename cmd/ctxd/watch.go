package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ctxmemd/ctxd/internal/clistyle"
	"github.com/ctxmemd/ctxd/internal/rpc"
	"github.com/ctxmemd/ctxd/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the current directory and push notify_file_change requests to the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := currentDir()
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		w, err := watch.New(cwd)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		defer w.Close()

		fmt.Println(clistyle.Ack(fmt.Sprintf("watching %s", cwd)))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		events := w.Events()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				req := rpc.Request{
					Action:     rpc.ActionNotifyFileChange,
					Cwd:        cwd,
					Path:       ev.Path,
					ChangeType: ev.ChangeType,
				}
				if err := client.CallFireAndForget(req); err != nil {
					fmt.Println(clistyle.Error(err.Error()))
				}
			case <-sigCh:
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
