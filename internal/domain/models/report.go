package models

import "time"

// BatchStats aggregates the outcome of generating messages for a broadcast.
type BatchStats struct {
	TotalContacts         int     `bson:"total_contacts" json:"totalContacts"`
	SuccessCount          int     `bson:"success_count" json:"successCount"`
	FailedCount           int     `bson:"failed_count" json:"failedCount"`
	ProcessingTimeSeconds float64 `bson:"processing_time_seconds" json:"processingTimeSeconds"`
}

// DeliveryResult is the normalized provider answer to one send call.
type DeliveryResult struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// Broadcast report statuses.
const (
	BroadcastCompleted = "completed"
	BroadcastFailed    = "failed"
)

// BroadcastReport is the record the service stores for every broadcast run.
type BroadcastReport struct {
	ID             string     `bson:"_id" json:"id"`
	TemplateName   string     `bson:"template_name" json:"templateName"`
	Status         string     `bson:"status" json:"status"`
	Stats          BatchStats `bson:"stats" json:"stats"`
	DeliveryStatus string     `bson:"delivery_status,omitempty" json:"deliveryStatus,omitempty"`
	Error          string     `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt      time.Time  `bson:"started_at" json:"startedAt"`
	CompletedAt    time.Time  `bson:"completed_at" json:"completedAt"`
}
