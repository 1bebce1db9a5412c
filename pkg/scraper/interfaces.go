package scraper

import (
	"context"

	"daycaresync/pkg/procare"
)

// ProviderClient is the slice of the provider API the orchestrator needs
type ProviderClient interface {
	ListChildren(ctx context.Context) ([]procare.Kid, error)
	FetchActivities(ctx context.Context, kidID, dateFrom, dateTo string) ([]procare.Activity, error)
}

// MediaWriter persists one media item and returns its final path
type MediaWriter interface {
	Write(ctx context.Context, item procare.Media) (string, error)
}
