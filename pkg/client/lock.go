package client

import (
	"context"

	"github.com/pixperk/lockcache/pkg/types"
)

type Lock struct {
	client *Client
	id     types.LockID
}

func (l *Lock) ID() types.LockID {
	return l.id
}

func (l *Lock) Release(ctx context.Context) error {
	return l.client.Release(ctx, l.id)
}
