package account

import "context"

// RemoteWriteSink appends one payload to the remote collection and returns
// the key generated for it.
type RemoteWriteSink interface {
	Append(ctx context.Context, payload Payload) (string, error)
}

type AccountRepository interface {
	List(ctx context.Context) ([]Account, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) (int64, error)
}
