package domain

// SyncJob is the queue message that triggers one sync run for one
// integration. RetryCount is incremented on every throttled requeue and
// bounded by the scheduler.
type SyncJob struct {
	GrantID    string `json:"grantId"`
	UserID     string `json:"userId"`
	RetryCount int    `json:"retryCount,omitempty"`
	MockMode   bool   `json:"mockMode,omitempty"`
}
