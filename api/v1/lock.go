// Package v1 holds the lockcache wire API: the messages and gRPC service
// descriptors for lock.proto. Messages encode to the protobuf wire format
// through the codec registered in codec.go.
package v1

import (
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

type Status int32

const (
	Status_OK    Status = 0
	Status_RETRY Status = 1
	Status_NOENT Status = 2
	Status_IOERR Status = 3
)

func (s Status) String() string {
	switch s {
	case Status_OK:
		return "OK"
	case Status_RETRY:
		return "RETRY"
	case Status_NOENT:
		return "NOENT"
	case Status_IOERR:
		return "IOERR"
	default:
		return strconv.Itoa(int(s))
	}
}

type AcquireRequest struct {
	LockId   uint64
	ClientId string
}

func (x *AcquireRequest) GetLockId() uint64 {
	if x != nil {
		return x.LockId
	}
	return 0
}

func (x *AcquireRequest) GetClientId() string {
	if x != nil {
		return x.ClientId
	}
	return ""
}

func (x *AcquireRequest) appendWire(b []byte) []byte {
	b = appendVarint(b, 1, x.LockId)
	return appendString(b, 2, x.ClientId)
}

func (x *AcquireRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, &x.LockId)
		case 2:
			return consumeString(typ, b, &x.ClientId)
		}
		return 0, nil
	})
}

type AcquireResponse struct {
	Status Status
}

func (x *AcquireResponse) GetStatus() Status {
	if x != nil {
		return x.Status
	}
	return Status_OK
}

func (x *AcquireResponse) appendWire(b []byte) []byte {
	return appendVarint(b, 1, uint64(x.Status))
}

func (x *AcquireResponse) consumeWire(b []byte) error {
	return consumeStatus(b, &x.Status)
}

type ReleaseRequest struct {
	LockId   uint64
	ClientId string
}

func (x *ReleaseRequest) GetLockId() uint64 {
	if x != nil {
		return x.LockId
	}
	return 0
}

func (x *ReleaseRequest) GetClientId() string {
	if x != nil {
		return x.ClientId
	}
	return ""
}

func (x *ReleaseRequest) appendWire(b []byte) []byte {
	b = appendVarint(b, 1, x.LockId)
	return appendString(b, 2, x.ClientId)
}

func (x *ReleaseRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeVarint(typ, b, &x.LockId)
		case 2:
			return consumeString(typ, b, &x.ClientId)
		}
		return 0, nil
	})
}

type ReleaseResponse struct {
	Status Status
}

func (x *ReleaseResponse) GetStatus() Status {
	if x != nil {
		return x.Status
	}
	return Status_OK
}

func (x *ReleaseResponse) appendWire(b []byte) []byte {
	return appendVarint(b, 1, uint64(x.Status))
}

func (x *ReleaseResponse) consumeWire(b []byte) error {
	return consumeStatus(b, &x.Status)
}

type StatRequest struct {
	LockId uint64
}

func (x *StatRequest) appendWire(b []byte) []byte {
	return appendVarint(b, 1, x.LockId)
}

func (x *StatRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeVarint(typ, b, &x.LockId)
		}
		return 0, nil
	})
}

type StatResponse struct {
	Status Status
	Count  uint64
}

func (x *StatResponse) appendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(x.Status))
	return appendVarint(b, 2, x.Count)
}

func (x *StatResponse) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var v uint64
			n, err := consumeVarint(typ, b, &v)
			x.Status = Status(v)
			return n, err
		case 2:
			return consumeVarint(typ, b, &x.Count)
		}
		return 0, nil
	})
}

type GetStatusRequest struct{}

func (x *GetStatusRequest) appendWire(b []byte) []byte { return b }

func (x *GetStatusRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) {
		return 0, nil
	})
}

type GetStatusResponse struct {
	NodeId string
	Stats  *Stats
}

func (x *GetStatusResponse) GetStats() *Stats {
	if x != nil {
		return x.Stats
	}
	return nil
}

func (x *GetStatusResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, x.NodeId)
	if x.Stats != nil {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, x.Stats.appendWire(nil))
	}
	return b
}

func (x *GetStatusResponse) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &x.NodeId)
		case 2:
			x.Stats = &Stats{}
			return consumeMessage(typ, b, x.Stats)
		}
		return 0, nil
	})
}

type Stats struct {
	Locks        int32
	Held         int32
	Waiting      int32
	Acquisitions uint64
}

func (x *Stats) GetAcquisitions() uint64 {
	if x != nil {
		return x.Acquisitions
	}
	return 0
}

func (x *Stats) appendWire(b []byte) []byte {
	b = appendVarint(b, 1, uint64(x.Locks))
	b = appendVarint(b, 2, uint64(x.Held))
	b = appendVarint(b, 3, uint64(x.Waiting))
	return appendVarint(b, 4, x.Acquisitions)
}

func (x *Stats) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var v uint64
		var n int
		var err error
		switch num {
		case 1:
			n, err = consumeVarint(typ, b, &v)
			x.Locks = int32(v)
		case 2:
			n, err = consumeVarint(typ, b, &v)
			x.Held = int32(v)
		case 3:
			n, err = consumeVarint(typ, b, &v)
			x.Waiting = int32(v)
		case 4:
			n, err = consumeVarint(typ, b, &x.Acquisitions)
		}
		return n, err
	})
}

type RevokeRequest struct {
	LockId uint64
}

func (x *RevokeRequest) GetLockId() uint64 {
	if x != nil {
		return x.LockId
	}
	return 0
}

func (x *RevokeRequest) appendWire(b []byte) []byte {
	return appendVarint(b, 1, x.LockId)
}

func (x *RevokeRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeVarint(typ, b, &x.LockId)
		}
		return 0, nil
	})
}

type RetryRequest struct {
	LockId uint64
}

func (x *RetryRequest) GetLockId() uint64 {
	if x != nil {
		return x.LockId
	}
	return 0
}

func (x *RetryRequest) appendWire(b []byte) []byte {
	return appendVarint(b, 1, x.LockId)
}

func (x *RetryRequest) consumeWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeVarint(typ, b, &x.LockId)
		}
		return 0, nil
	})
}

type CallbackResponse struct {
	Status Status
}

func (x *CallbackResponse) GetStatus() Status {
	if x != nil {
		return x.Status
	}
	return Status_OK
}

func (x *CallbackResponse) appendWire(b []byte) []byte {
	return appendVarint(b, 1, uint64(x.Status))
}

func (x *CallbackResponse) consumeWire(b []byte) error {
	return consumeStatus(b, &x.Status)
}
