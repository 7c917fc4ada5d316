package cache

import (
	"time"

	"github.com/rohmanhakim/scrapecache/pkg/timeutil"
)

// ConnState is the explicit connection lifecycle of the client.
// Transitions are driven by Connect and the reconnect supervisor only;
// individual operations never change state, they just observe it.
//
//	disconnected -> connecting -> connected
//	                     |
//	                     v (attempts exhausted)
//	                  degraded
type ConnState int32

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnConnected
	ConnDegraded
)

func (s ConnState) String() string {
	switch s {
	case ConnDisconnected:
		return "disconnected"
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	case ConnDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// MemoryStats is the backend-reported memory picture.
// MaxBytes of zero means no configured ceiling.
type MemoryStats struct {
	usedBytes int64
	maxBytes  int64
}

func NewMemoryStats(usedBytes int64, maxBytes int64) MemoryStats {
	return MemoryStats{
		usedBytes: usedBytes,
		maxBytes:  maxBytes,
	}
}

func (m *MemoryStats) UsedBytes() int64 {
	return m.usedBytes
}

func (m *MemoryStats) MaxBytes() int64 {
	return m.maxBytes
}

// ConnParam holds the connection parameters for the remote backend.
type ConnParam struct {
	addr                 string
	password             string
	connectTimeout       time.Duration
	reconnectBackoff     timeutil.BackoffParam
	reconnectJitter      time.Duration
	reconnectMaxAttempts int
	randomSeed           int64
}

func NewConnParam(
	addr string,
	password string,
	connectTimeout time.Duration,
	reconnectBackoff timeutil.BackoffParam,
	reconnectJitter time.Duration,
	reconnectMaxAttempts int,
	randomSeed int64,
) ConnParam {
	return ConnParam{
		addr:                 addr,
		password:             password,
		connectTimeout:       connectTimeout,
		reconnectBackoff:     reconnectBackoff,
		reconnectJitter:      reconnectJitter,
		reconnectMaxAttempts: reconnectMaxAttempts,
		randomSeed:           randomSeed,
	}
}

func (p *ConnParam) Addr() string {
	return p.addr
}

func (p *ConnParam) Password() string {
	return p.password
}

func (p *ConnParam) ConnectTimeout() time.Duration {
	return p.connectTimeout
}

func (p *ConnParam) ReconnectBackoff() timeutil.BackoffParam {
	return p.reconnectBackoff
}

func (p *ConnParam) ReconnectJitter() time.Duration {
	return p.reconnectJitter
}

func (p *ConnParam) ReconnectMaxAttempts() int {
	return p.reconnectMaxAttempts
}

func (p *ConnParam) RandomSeed() int64 {
	return p.randomSeed
}
