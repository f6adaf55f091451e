package server

import (
	"time"

	"github.com/raysh454/a11yscan/internal/model"
)

// CreateScanRequest is the payload for registering a scan. The author comes
// from the X-User-ID header.
type CreateScanRequest struct {
	URL       string       `json:"url" example:"http://localhost:9999"`
	Name      string       `json:"name" example:"Demo site"`
	Guidance  []string     `json:"guidance" example:"wcag2a,wcag2aa"`
	Depth     int          `json:"depth" example:"1"`
	Device    string       `json:"device,omitempty" example:"iphone x"`
	Steps     []model.Step `json:"steps,omitempty"`
	ProjectID string       `json:"project_id" example:"demo"`
}

// CreatedScanResponse carries the id of a new scan request.
type CreatedScanResponse struct {
	ID string `json:"id" example:"6f1c0a3e-6b9a-4d8e-9a57-0d0b8f0d2f11"`
}

// RunScanRequest optionally overrides the stored page set and device.
type RunScanRequest struct {
	URLs   []string `json:"urls,omitempty"`
	Device string   `json:"device,omitempty" example:"desktop"`
}

// ScheduleScanRequest sets when a request should run next.
type ScheduleScanRequest struct {
	ScheduledTime time.Time `json:"scheduled_time" example:"2026-01-02T15:04:05Z"`
}

// SetDescriptionRequest replaces a rule's description for the caller.
type SetDescriptionRequest struct {
	RuleID      string `json:"rule_id" example:"image-alt"`
	Description string `json:"description" example:"Every product photo needs alt text."`
}

// MessageResponse is returned by operations that only report an outcome.
type MessageResponse struct {
	Message string `json:"message" example:"scan request 6f1c0a3e completed successfully"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
