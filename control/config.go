// File: control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and hot-reload
// propagation. The session layer reads its codec limits from here so a
// running host can tighten or relax them without rebuilding sessions.

package control

import (
	"sync"
)

// Well-known configuration keys.
const (
	KeyMaxFramePayload  = "codec.max_frame_payload"
	KeyMaxMessageSize   = "codec.max_message_size"
	KeyReadBufferSize   = "session.read_buffer_size"
	KeyHandshakeHeaders = "handshake.max_headers_size"
)

// DefaultReadBufferSize is the transport staging buffer size used when
// KeyReadBufferSize is not configured.
const DefaultReadBufferSize = 64 << 10

// ConfigStore is a dynamic key/value map with atomic snapshot and
// listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    make(map[string]any),
		listeners: make([]func(), 0),
	}
}

// Snapshot returns a copy of all config values.
func (cs *ConfigStore) Snapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		out[k] = v
	}
	return out
}

// Set merges new values and dispatches reload listeners.
func (cs *ConfigStore) Set(newCfg map[string]any) {
	cs.mu.Lock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	listeners := cs.listeners
	cs.mu.Unlock()
	for _, fn := range listeners {
		go fn()
	}
}

// Int64 returns the configured int64 for key, or def when the key is
// absent or holds another type. Integer literals stored as int are
// widened.
func (cs *ConfigStore) Int64(key string, def int64) int64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	switch v := cs.config[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return def
	}
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
