// Package rpc implements the length-prefixed MessagePack/JSON request
// protocol the daemon exposes over a Unix domain socket.
package rpc

import (
	"github.com/ctxmemd/ctxd/internal/memstore"
	"github.com/ctxmemd/ctxd/internal/storage"
)

// Action names the request variants. Go has no tagged-union type, so
// Request is one flat envelope carrying every action's optional fields
// rather than a discriminated union keyed on Action.
type Action string

const (
	ActionPing              Action = "ping"
	ActionStatus            Action = "status"
	ActionCheckInit         Action = "check_init"
	ActionInitProject       Action = "init_project"
	ActionGetContext        Action = "get_context"
	ActionPrepareContext    Action = "prepare_context"
	ActionNotifyFileChange  Action = "notify_file_change"
	ActionGraftExperience   Action = "graft_experience"
	ActionMemoryPut         Action = "memory_put"
	ActionMemoryPatch       Action = "memory_patch"
	ActionMemoryDelete      Action = "memory_delete"
	ActionMemoryGet         Action = "memory_get"
	ActionMemoryList        Action = "memory_list"
	ActionMemorySync        Action = "memory_sync"
	ActionShutdown          Action = "shutdown"
)

// Request is the single envelope for every request variant.
type Request struct {
	Action Action `msgpack:"action" json:"action"`

	Cwd        string             `msgpack:"cwd,omitempty" json:"cwd,omitempty"`
	Prompt     *string            `msgpack:"prompt,omitempty" json:"prompt,omitempty"`
	AsyncMode  bool               `msgpack:"async_mode,omitempty" json:"async_mode,omitempty"`
	Path       string             `msgpack:"path,omitempty" json:"path,omitempty"`
	ChangeType storage.ChangeType `msgpack:"change_type,omitempty" json:"change_type,omitempty"`
	Experience *storage.Experience `msgpack:"experience,omitempty" json:"experience,omitempty"`
	Entry      *memstore.Entry    `msgpack:"entry,omitempty" json:"entry,omitempty"`
	ID         string             `msgpack:"id,omitempty" json:"id,omitempty"`
	Patch      *memstore.Patch    `msgpack:"patch,omitempty" json:"patch,omitempty"`
	Limit      int                `msgpack:"limit,omitempty" json:"limit,omitempty"`
}

// Status names the response envelope's outer status tag.
type Status string

const (
	StatusOK    Status = "ok"
	StatusAck   Status = "ack"
	StatusError Status = "error"
)

// ErrorCode enumerates the wire-level error taxonomy.
type ErrorCode string

const (
	ErrCodeNotInitialized ErrorCode = "not_initialized"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeInternal       ErrorCode = "internal_error"
	ErrCodeTimeout        ErrorCode = "timeout"
	ErrCodeShuttingDown   ErrorCode = "shutting_down"
)

// Response is the single envelope for every response variant.
type Response struct {
	Status  Status        `msgpack:"status" json:"status"`
	Data    *ResponseData `msgpack:"data,omitempty" json:"data,omitempty"`
	Code    ErrorCode     `msgpack:"code,omitempty" json:"code,omitempty"`
	Message string        `msgpack:"message,omitempty" json:"message,omitempty"`
}

// DataType discriminates the payload carried by ResponseData.
type DataType string

const (
	DataTypePong       DataType = "pong"
	DataTypeStatus     DataType = "status"
	DataTypeInitStatus DataType = "init_status"
	DataTypeContext    DataType = "context"
	DataTypeMemory     DataType = "memory"
	DataTypeMemoryList DataType = "memory_list"
	DataTypeSyncStats  DataType = "sync_stats"
)

// ResponseData is the typed payload of an Ok response.
type ResponseData struct {
	Type DataType `msgpack:"type" json:"type"`

	// pong
	Timestamp int64 `msgpack:"timestamp,omitempty" json:"timestamp,omitempty"`

	// status
	Version          string  `msgpack:"version,omitempty" json:"version,omitempty"`
	UptimeSecs       int64   `msgpack:"uptime_secs,omitempty" json:"uptime_secs,omitempty"`
	ProjectsLoaded   int     `msgpack:"projects_loaded,omitempty" json:"projects_loaded,omitempty"`
	MemoryUsageBytes uint64  `msgpack:"memory_usage_bytes,omitempty" json:"memory_usage_bytes,omitempty"`
	RequestsTotal    uint64  `msgpack:"requests_total,omitempty" json:"requests_total,omitempty"`
	CacheHitRate     float64 `msgpack:"cache_hit_rate,omitempty" json:"cache_hit_rate,omitempty"`
	AvgLatencyMs     int64   `msgpack:"avg_latency_ms,omitempty" json:"avg_latency_ms,omitempty"`

	// init_status
	Initialized bool `msgpack:"initialized,omitempty" json:"initialized,omitempty"`

	// context
	Context string   `msgpack:"context,omitempty" json:"context,omitempty"`
	Nodes   []string `msgpack:"nodes,omitempty" json:"nodes,omitempty"`

	// memory / memory_list
	Entry   *memstore.Entry `msgpack:"entry,omitempty" json:"entry,omitempty"`
	Entries []memstore.Entry `msgpack:"entries,omitempty" json:"entries,omitempty"`

	// sync_stats
	Total      int `msgpack:"total,omitempty" json:"total,omitempty"`
	Live       int `msgpack:"live,omitempty" json:"live,omitempty"`
	Tombstones int `msgpack:"tombstones,omitempty" json:"tombstones,omitempty"`
}

// Ok builds a successful response carrying no data.
func Ok() Response { return Response{Status: StatusOK} }

// OkWith builds a successful response carrying data.
func OkWith(data ResponseData) Response { return Response{Status: StatusOK, Data: &data} }

// Ack builds a fire-and-forget acknowledgement.
func Ack() Response { return Response{Status: StatusAck} }

// Err builds an error response.
func Err(code ErrorCode, message string) Response {
	return Response{Status: StatusError, Code: code, Message: message}
}
