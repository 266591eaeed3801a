package types

import "strconv"

// LockID names one mutually exclusive resource. The namespace is flat and
// shared by every client and the server.
type LockID uint64

func (id LockID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ClientID is the host:port of a client's callback endpoint.
// the server uses it verbatim to address revoke and retry calls
type ClientID string

// Status is the closed set of protocol statuses carried by every lock RPC.
type Status int

const (
	StatusOK Status = iota
	StatusRetry
	StatusNoEnt
	StatusIOErr
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusRetry:
		return "RETRY"
	case StatusNoEnt:
		return "NOENT"
	case StatusIOErr:
		return "IOERR"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// CacheState is the client-side state of one cached lock.
type CacheState int

const (
	StateNone      CacheState = iota // not held, not cached
	StateAcquiring                   // acquire sent, no grant yet
	StateOwn                         // held and in use by one local caller
	StateReleasing                   // being returned to the server
	StateFree                        // held by this process, idle
)

func (s CacheState) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateAcquiring:
		return "ACQUIRING"
	case StateOwn:
		return "OWN"
	case StateReleasing:
		return "RELEASING"
	case StateFree:
		return "FREE"
	default:
		return "CacheState(" + strconv.Itoa(int(s)) + ")"
	}
}
