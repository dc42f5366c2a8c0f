package cache

import "context"

// StatusCache is a short-TTL read cache for the operator status endpoint.
type StatusCache interface {
	StoreStatus(ctx context.Context, campaignID int, payload []byte) error
	GetStatus(ctx context.Context, campaignID int) ([]byte, bool, error)
	Invalidate(ctx context.Context, campaignID int) error
}
