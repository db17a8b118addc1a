package ports

import "time"

const (
	DefaultPollInterval   = 60 * time.Second // Delay between polls of a tracked wallet
	PollPageSize          = 1                // The poller only needs the head transaction
	HistoryPageSize       = 5                // Page size for history and pagination requests
	MaxHistoryRequests    = 5                // Per-address budget for history-style requests
	BroadcastWriteTimeout = 5 * time.Second  // Ceiling on a single websocket write
)
