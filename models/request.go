package models

import (
	"time"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "Pending"
	StatusSubmitted RequestStatus = "Submitted"
	StatusApproved  RequestStatus = "Approved"
	// StatusErrorGAS marks a record whose secondary-store write succeeded but
	// whose backend submission was rejected. The record is kept for recovery.
	StatusErrorGAS RequestStatus = "Error_GAS"
)

const CommandStatusInProgress = "in-progress"

type Attendee struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// Request is one travel/memo request. ID is assigned by the backend and is
// the only authoritative identifier; SecondaryKey is the document key inside
// the secondary store and exists as soon as the record is written there.
type Request struct {
	ID            string        `json:"id"`
	SecondaryKey  string        `json:"secondaryKey,omitempty"`
	Owner         string        `json:"owner"`
	Status        RequestStatus `json:"status"`
	CommandStatus string        `json:"commandStatus,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	Timestamp     time.Time     `json:"timestamp"`
	DocDate       string        `json:"docDate,omitempty"`
	StartDate     string        `json:"startDate,omitempty"`
	EndDate       string        `json:"endDate,omitempty"`
	Topic         string        `json:"topic,omitempty"`
	Destination   string        `json:"destination,omitempty"`
	Attendees     []Attendee    `json:"attendees,omitempty"`
	PDFURL        string        `json:"pdfUrl,omitempty"`
	DocURL        string        `json:"docUrl,omitempty"`
	IsHybrid      bool          `json:"isHybrid,omitempty"`
	IsSynced      bool          `json:"isSynced,omitempty"`
	Note          string        `json:"note,omitempty"`

	// Completion artifacts joined from the memo set during reconciliation.
	MemoStatus          string `json:"memoStatus,omitempty"`
	CompletedMemoURL    string `json:"completedMemoUrl,omitempty"`
	CompletedCommandURL string `json:"completedCommandUrl,omitempty"`
	DispatchBookURL     string `json:"dispatchBookUrl,omitempty"`
}

// RequestForm is the user-submitted portion of a request, before any
// workflow fields or identifiers are attached.
type RequestForm struct {
	Owner       string     `json:"owner"`
	Topic       string     `json:"topic"`
	Destination string     `json:"destination"`
	DocDate     string     `json:"docDate"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	Attendees   []Attendee `json:"attendees"`
}

// Payload renders the form as the key/value mapping sent to the backend.
func (f *RequestForm) Payload() map[string]interface{} {
	attendees := make([]interface{}, 0, len(f.Attendees))
	for _, a := range f.Attendees {
		attendees = append(attendees, map[string]interface{}{
			"name":     a.Name,
			"position": a.Position,
		})
	}
	return map[string]interface{}{
		"owner":       f.Owner,
		"topic":       f.Topic,
		"destination": f.Destination,
		"docDate":     f.DocDate,
		"startDate":   f.StartDate,
		"endDate":     f.EndDate,
		"attendees":   attendees,
	}
}
