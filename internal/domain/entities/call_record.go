package entities

import "time"

type CallStatus string

const (
	CallStatusCommitted CallStatus = "committed"
	CallStatusFailed    CallStatus = "failed"
)

type CallRecord struct {
	Hash         string
	Kind         string
	Status       CallStatus
	ErrorType    string
	ErrorCode    string
	ErrorMessage string
	ProcessedAt  time.Time
}

func (r CallRecord) Committed() bool {
	return r.Status == CallStatusCommitted
}
