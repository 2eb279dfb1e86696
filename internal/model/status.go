package model

// ServerStatus is the aggregate returned by GET /status.
type ServerStatus struct {
	Server         string `json:"server"`
	MaterialsCount int    `json:"materials_count"`
	UploadsCount   int    `json:"uploads_count"`
	PendingCount   int    `json:"pending_count"`
	ApprovedCount  int    `json:"approved_count"`
	RejectedCount  int    `json:"rejected_count"`
	Timestamp      string `json:"timestamp"`
}
