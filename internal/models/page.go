package models

// PageMarker is a synthetic timeline entry separating two pages. It is never
// persisted.
type PageMarker struct {
	PageNumber int `json:"page_number"`
}
