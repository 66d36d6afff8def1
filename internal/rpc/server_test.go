package rpc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type pingHandler struct{}

func (pingHandler) Handle(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionPing:
		return OkWith(ResponseData{Type: DataTypePong, Timestamp: 42})
	default:
		return Ack()
	}
}

func TestServerPing(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "ctxd.sock")
	srv := NewServer(socketPath, pingHandler{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server never became ready")
	}

	client := NewClient(socketPath)
	resp, err := client.Call(Request{Action: ActionPing})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != StatusOK || resp.Data == nil || resp.Data.Type != DataTypePong {
		t.Fatalf("resp = %+v", resp)
	}

	srv.Shutdown()
}

func TestRequestTooLarge(t *testing.T) {
	if MaxFrameSize != 1<<20 {
		t.Fatalf("max frame size changed unexpectedly")
	}

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], MaxFrameSize+1)
	if _, err := readFrame(bytes.NewReader(hdr[:])); !errors.Is(err, ErrRequestTooLarge) {
		t.Fatalf("readFrame err = %v, want ErrRequestTooLarge", err)
	}
}
