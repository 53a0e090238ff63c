package hub

import "errors"

var (
	// ErrStopped is returned by queries issued after the hub worker exited.
	ErrStopped = errors.New("hub stopped")

	// ErrProbeUnsupported is returned by Conn.Ping for transports that supervise
	// their own liveness (e.g. MQTT last will). Such connections are never evicted
	// by the liveness monitor.
	ErrProbeUnsupported = errors.New("liveness probe not supported by transport")
)

// Conn is one transport connection tracked by the hub.
// Implementations must be safe for concurrent use.
type Conn interface {
	ID() string
	RemoteAddr() string
	// Send queues msg without blocking. It returns false when the transport is
	// not open for writing or its send buffer is full.
	Send(msg []byte) bool
	// Ping sends a liveness probe; the acknowledgment is reported through Hub.Pong.
	Ping() error
	// Close terminates the transport. The transport reports the disconnect
	// through Hub.Disconnect.
	Close() error
}
