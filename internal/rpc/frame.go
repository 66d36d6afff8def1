package rpc

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxFrameSize is the largest payload accepted on either side of the wire.
const MaxFrameSize = 1 << 20 // 1 MiB

// ErrRequestTooLarge is returned when a frame's declared length exceeds
// MaxFrameSize.
var ErrRequestTooLarge = errors.New("rpc: request too large")

// readFrame reads a length-prefixed frame: 4 little-endian length bytes,
// then that many payload bytes.
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, ErrRequestTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeFrame writes payload as a length-prefixed frame.
func writeFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// decodeRequest tries MessagePack first, then falls back to JSON, matching
// the wire format's dual-codec contract for incoming requests.
func decodeRequest(buf []byte) (Request, error) {
	var req Request
	if err := msgpack.Unmarshal(buf, &req); err == nil {
		return req, nil
	}
	if err := json.Unmarshal(buf, &req); err == nil {
		return req, nil
	}
	return Request{}, fmt.Errorf("rpc: decode request: not valid MessagePack or JSON")
}

// encodeResponse serializes a response as MessagePack only, per the wire
// format's response-side contract.
func encodeResponse(resp Response) ([]byte, error) {
	return msgpack.Marshal(resp)
}

// encodeRequest serializes a request as MessagePack, the canonical client
// encoding.
func encodeRequest(req Request) ([]byte, error) {
	return msgpack.Marshal(req)
}

// decodeResponse parses a MessagePack response frame.
func decodeResponse(buf []byte) (Response, error) {
	var resp Response
	if err := msgpack.Unmarshal(buf, &resp); err != nil {
		return Response{}, fmt.Errorf("rpc: decode response: %w", err)
	}
	return resp, nil
}
