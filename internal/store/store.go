// Package store persists scan requests, results, schedules, the rule
// catalogue and per-user settings.
package store

import (
	"context"
	"time"

	"github.com/raysh454/a11yscan/internal/model"
)

// ScanStore holds scan requests with their results and schedules. Missing
// rows are reported as model.ErrNotFound, driver failures as
// model.ErrPersistence.
type ScanStore interface {
	CreateScanRequest(ctx context.Context, req *model.ScanRequest) error
	GetScanRequest(ctx context.Context, id string) (*model.ScanRequest, error)
	ListScanRequests(ctx context.Context, filter model.ScanRequestFilter) ([]model.ScanRequest, error)
	UpdateScanRequest(ctx context.Context, id string, upd model.ScanRequestUpdate) (*model.ScanRequest, error)

	// CompleteScanRequest marks the request Complete with its aggregate score.
	CompleteScanRequest(ctx context.Context, id string, score float64, at time.Time) error

	// DeleteScanRequest removes the request together with its results and
	// schedule.
	DeleteScanRequest(ctx context.Context, id string) error

	SaveScanResult(ctx context.Context, res *model.ScanResult) error
	ListScanResults(ctx context.Context, scanRequestID string) ([]model.ScanResult, error)

	// UpsertSchedule creates or replaces the schedule of a request.
	UpsertSchedule(ctx context.Context, s *model.ScheduledScan) error
	ListDueSchedules(ctx context.Context, now time.Time) ([]model.ScheduledScan, error)

	// ClearSchedule removes the request's schedule and unsets its scheduled time.
	ClearSchedule(ctx context.Context, scanRequestID string) error
}

// RuleCatalogue caches rule documentation keyed by rule id.
type RuleCatalogue interface {
	GetRule(ctx context.Context, ruleID string) (*model.Rule, error)

	// CreateRule stores rule unless one with the same id exists, and returns
	// whichever row ends up stored.
	CreateRule(ctx context.Context, rule *model.Rule) (*model.Rule, error)

	ListRules(ctx context.Context) ([]model.Rule, error)
}

// DescriptionStore keeps each user's replacement texts for rule descriptions.
type DescriptionStore interface {
	GetDescriptions(ctx context.Context, authorID string) (map[string]string, error)
	SetDescription(ctx context.Context, authorID, ruleID, description string) error
	DeleteDescription(ctx context.Context, authorID, ruleID string) error
}

// DeviceStore keeps custom device profiles.
type DeviceStore interface {
	GetDevice(ctx context.Context, name string) (*model.DeviceProfile, error)
	ListDevices(ctx context.Context) ([]model.DeviceProfile, error)
	UpsertDevice(ctx context.Context, d model.DeviceProfile) error
}
