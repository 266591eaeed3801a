package v1

import "github.com/pixperk/lockcache/pkg/types"

func StatusFrom(st types.Status) Status {
	switch st {
	case types.StatusOK:
		return Status_OK
	case types.StatusRetry:
		return Status_RETRY
	case types.StatusNoEnt:
		return Status_NOENT
	default:
		return Status_IOERR
	}
}

// unknown wire values read as IOERR
func (s Status) Types() types.Status {
	switch s {
	case Status_OK:
		return types.StatusOK
	case Status_RETRY:
		return types.StatusRetry
	case Status_NOENT:
		return types.StatusNoEnt
	default:
		return types.StatusIOErr
	}
}
