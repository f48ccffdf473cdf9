package match

import "context"

// Repository describes match persistence needs from use cases.
type Repository interface {
	InsertMany(ctx context.Context, items []Record) (int64, error)
}
