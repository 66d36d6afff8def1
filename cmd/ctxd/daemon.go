package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ctxmemd/ctxd/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the context daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			level = slog.LevelInfo
		}
		var out io.Writer = os.Stderr
		if cfg.LogFile != "" {
			out = &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    20,
				MaxBackups: 5,
				MaxAge:     28,
				Compress:   true,
			}
		}
		logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

		d := daemon.New(cfg, logger)
		if err := d.Run(); err != nil {
			return fmt.Errorf("daemon exited: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
