package standing

import "context"

// Repository describes standing persistence needs from use cases.
type Repository interface {
	InsertMany(ctx context.Context, items []Record) (int64, error)
}
