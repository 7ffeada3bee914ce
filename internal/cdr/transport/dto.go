// Package transport defines the HTTP DTOs for the call-record endpoints.
package transport

// ListCallsRequest are the query parameters for listing agent calls.
type ListCallsRequest struct {
	AgentCode  string `form:"agentCode" validate:"required,min=3"`
	Months     int    `form:"months" validate:"omitempty,min=1,max=12"`
	Undeclared bool   `form:"undeclared"`
}

// CallResponse is one qualifying call record.
type CallResponse struct {
	CallDate          string `json:"callDate"`
	Source            string `json:"source"`
	Destination       string `json:"destination"`
	DurationSeconds   int    `json:"durationSeconds"`
	DurationDisplay   string `json:"durationDisplay"`
	DedupKey          string `json:"dedupKey"`
	RecordingRef      string `json:"recordingRef,omitempty"`
	Declared          bool   `json:"declared"`
	DeclarationStatus string `json:"declarationStatus,omitempty"`
}

// BonusPreviewRequest are the query parameters for previewing a bonus.
type BonusPreviewRequest struct {
	CallType        string `form:"callType" validate:"required"`
	DurationSeconds int    `form:"durationSeconds" validate:"required,min=0"`
}

// BonusPreviewResponse is the computed payout for a prospective declaration.
type BonusPreviewResponse struct {
	CallType     string `json:"callType"`
	BaseCents    int64  `json:"baseCents"`
	OverageCents int64  `json:"overageCents"`
	TotalCents   int64  `json:"totalCents"`
}
