package service

import (
	"context"

	"github.com/HendryAvila/mcp-dataplex/internal/journal"
)

// StatusRecentLimit is how many journal entries Status includes.
const StatusRecentLimit = 10

// StatsSource reports journal aggregates and the latest calls.
// *journal.Journal satisfies it.
type StatsSource interface {
	Stats(ctx context.Context) (*journal.Stats, error)
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// CacheStatus describes the result cache.
type CacheStatus struct {
	Enabled bool `json:"enabled"`
	Entries int  `json:"entries"`
}

// Status is the server self-report used by get_server_stats and the status
// resource. Journal and RecentCalls are empty when the journal is disabled.
type Status struct {
	Project     string          `json:"project"`
	Tools       []string        `json:"tools"`
	Cache       CacheStatus     `json:"cache"`
	Journal     *journal.Stats  `json:"journal,omitempty"`
	RecentCalls []journal.Entry `json:"recentCalls,omitempty"`
}

// Status builds the current self-report. stats may be nil.
func (s *Service) Status(ctx context.Context, stats StatsSource) (*Status, error) {
	st := &Status{
		Project: s.project,
		Tools:   ToolNames(),
		Cache:   CacheStatus{Enabled: s.cache.Enabled(), Entries: s.cache.Len()},
	}
	if stats == nil {
		return st, nil
	}
	js, err := stats.Stats(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := stats.Recent(ctx, StatusRecentLimit)
	if err != nil {
		return nil, err
	}
	st.Journal = js
	st.RecentCalls = recent
	return st, nil
}
