package services

type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

type SyncItemError struct {
	ReadingID string `json:"reading_id"`
	Message   string `json:"message"`
}

// SyncResult reports a batch run. Errors holds one entry per failed reading.
type SyncResult struct {
	Status  SyncStatus      `json:"status"`
	Total   int             `json:"total"`
	Created int             `json:"created"`
	Linked  int             `json:"linked"`
	Failed  int             `json:"failed"`
	Errors  []SyncItemError `json:"errors"`
}

type RebuildResult struct {
	Status    SyncStatus      `json:"status"`
	Checked   int             `json:"checked"`
	Marked    int             `json:"marked"`
	Cleared   int             `json:"cleared"`
	Unchanged int             `json:"unchanged"`
	Failed    int             `json:"failed"`
	Errors    []SyncItemError `json:"errors"`
}

type SyncProgress struct {
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	ReadingID string `json:"reading_id"`
}

func resolveSyncStatus(processed int, failed int) SyncStatus {
	switch {
	case failed == 0:
		return SyncStatusSuccess
	case failed < processed:
		return SyncStatusPartial
	default:
		return SyncStatusFailed
	}
}
