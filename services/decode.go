package services

import (
	"fmt"

	"github.com/peerawits/reqbridge/docstore"
	"github.com/peerawits/reqbridge/models"
)

// decodeRequest materializes a raw record (secondary-store document or
// backend row) into a Request. Timestamps become directly comparable
// instants; date fields become canonical date-only text. A present but
// unparseable timestamp is an error so the read path can refuse partial
// results.
func decodeRequest(key string, data map[string]interface{}) (models.Request, error) {
	rec := models.Request{
		SecondaryKey: key,
		ID:           recordID(data),
		Owner:        stringValue(data["owner"]),
		Status:       models.RequestStatus(stringValue(data["status"])),
		CommandStatus: stringValue(data["commandStatus"]),
		Topic:        stringValue(data["topic"]),
		Destination:  stringValue(data["destination"]),
		PDFURL:       stringValue(data["pdfUrl"]),
		DocURL:       stringValue(data["docUrl"]),
		Note:         stringValue(data["note"]),
		IsHybrid:     boolValue(data["isHybrid"]),
		IsSynced:     boolValue(data["isSynced"]),

		MemoStatus:          stringValue(data["memoStatus"]),
		CompletedMemoURL:    stringValue(data["completedMemoUrl"]),
		CompletedCommandURL: stringValue(data["completedCommandUrl"]),
		DispatchBookURL:     stringValue(data["dispatchBookUrl"]),
	}

	if v, ok := data["timestamp"]; ok && v != nil {
		t, valid := docstore.NormalizeTime(v)
		if !valid {
			return rec, fmt.Errorf("malformed timestamp %v", v)
		}
		rec.Timestamp = t
	}
	if v, ok := data["createdAt"]; ok && v != nil {
		if t, valid := docstore.NormalizeTime(v); valid {
			rec.CreatedAt = t
		}
	}

	if v := data["docDate"]; v != nil {
		rec.DocDate = docstore.DateOnly(v)
	}
	if v := data["startDate"]; v != nil {
		rec.StartDate = docstore.DateOnly(v)
	}
	if v := data["endDate"]; v != nil {
		rec.EndDate = docstore.DateOnly(v)
	}

	rec.Attendees = decodeAttendees(data["attendees"])

	return rec, nil
}

func decodeAttendees(v interface{}) []models.Attendee {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	attendees := make([]models.Attendee, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		attendees = append(attendees, models.Attendee{
			Name:     stringValue(m["name"]),
			Position: stringValue(m["position"]),
		})
	}
	return attendees
}

// recordID returns the record's authoritative identifier: id, with
// requestId as the legacy fallback. Empty means unassigned.
func recordID(data map[string]interface{}) string {
	if id := stringValue(data["id"]); id != "" {
		return id
	}
	return stringValue(data["requestId"])
}

// recordList pulls a list of row maps out of a backend response payload.
func recordList(data map[string]interface{}, field string) []map[string]interface{} {
	if data == nil {
		return nil
	}
	items, ok := data[field].([]interface{})
	if !ok {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			rows = append(rows, m)
		}
	}
	return rows
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func boolValue(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
