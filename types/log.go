package types

import "time"

// ApiCallEntry represents an outbound API call to be stored in the database
type ApiCallEntry struct {
	Provider       string
	Endpoint       string
	Method         string
	StatusCode     int
	RequestPayload string
	ResponseBody   string
	ErrorMessage   string
	DurationMs     int64
	CreatedAt      time.Time
}
