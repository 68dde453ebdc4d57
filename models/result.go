package models

const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// SubmitResult is returned by the hybrid write path. Status is "error" when
// the backend rejected the submission; SecondaryKey is always set once the
// secondary-store insert succeeded, so the caller can tell the user their
// data was preserved.
type SubmitResult struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	RequestID    string                 `json:"id,omitempty"`
	PDFURL       string                 `json:"pdfUrl,omitempty"`
	SecondaryKey string                 `json:"secondaryKey"`
	Data         map[string]interface{} `json:"data,omitempty"`
}

// SyncResult summarizes one reconciliation run.
type SyncResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
	Updated int    `json:"updated"`
}

func (r SyncResult) OK() bool {
	return r.Status == ResultSuccess
}
