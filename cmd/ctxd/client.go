package main

import (
	"os"

	"github.com/ctxmemd/ctxd/internal/rpc"
)

func newClient() (*rpc.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return rpc.NewClient(cfg.SocketPath), nil
}

func currentDir() (string, error) {
	return os.Getwd()
}
