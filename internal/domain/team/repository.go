package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	InsertMany(ctx context.Context, items []Record) (int64, error)
}
