package models

// Memo is a read-mostly completion record fetched from the backend. It is
// joined against requests by ReferenceNumber == Request.ID during
// reconciliation; no other invariant is required of it.
type Memo struct {
	ReferenceNumber     string `json:"referenceNumber"`
	MemoStatus          string `json:"memoStatus"`
	CompletedMemoURL    string `json:"completedMemoUrl"`
	CompletedCommandURL string `json:"completedCommandUrl"`
	DispatchBookURL     string `json:"dispatchBookUrl"`
}
