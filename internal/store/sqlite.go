package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStore implements every store interface on a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

var (
	_ ScanStore        = (*SQLiteStore)(nil)
	_ RuleCatalogue    = (*SQLiteStore)(nil)
	_ DescriptionStore = (*SQLiteStore)(nil)
	_ DeviceStore      = (*SQLiteStore)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		return nil, errors.New("store: nil logger provided")
	}
	if path == "" {
		return nil, errors.New("store: database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir %s: %w", dir, err)
		}
	}

	// foreign_keys and busy_timeout are per connection, so they go in the DSN
	// to reach every pooled connection.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info("store initialized", logging.Field{Key: "path", Value: path})
	return &SQLiteStore{db: db, logger: logger}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-64000",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA mmap_size=268435456",
		"PRAGMA auto_vacuum=INCREMENTAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrPersistence, err)
}

// toJSON is for columns whose values always marshal (strings, steps).
func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}

// encodeJSON marshals v, storing null as the given text.
func encodeJSON(v any, null string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return null, nil
	}
	return string(b), nil
}

func fromJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ─── Scan requests ─────────────────────────────────────────────────────

const scanRequestColumns = `id, name, url, guidance, depth, device, steps, project_id, author_id,
       status, urls, scheduled_time, created_at, weighted_score, last_run_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequestRow(row rowScanner) (*model.ScanRequest, error) {
	var (
		r                  model.ScanRequest
		guidance, steps    string
		urls, status       string
		scheduled, lastRun sql.NullInt64
		createdAt          int64
		weighted           sql.NullFloat64
	)
	if err := row.Scan(&r.ID, &r.Name, &r.URL, &guidance, &r.Depth, &r.Device, &steps,
		&r.ProjectID, &r.AuthorID, &status, &urls, &scheduled, &createdAt, &weighted, &lastRun); err != nil {
		return nil, err
	}
	if err := fromJSON(guidance, &r.Guidance); err != nil {
		return nil, fmt.Errorf("decode guidance: %w", err)
	}
	if err := fromJSON(steps, &r.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if err := fromJSON(urls, &r.URLs); err != nil {
		return nil, fmt.Errorf("decode urls: %w", err)
	}
	r.Status = model.ScanStatus(status)
	r.ScheduledTime = timePtr(scheduled)
	r.LastRunAt = timePtr(lastRun)
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	if weighted.Valid {
		v := weighted.Float64
		r.Score = &v
	}
	return &r, nil
}

// CreateScanRequest inserts req, filling in ID, CreatedAt and Status when
// they are empty.
func (s *SQLiteStore) CreateScanRequest(ctx context.Context, req *model.ScanRequest) error {
	if req == nil {
		return fmt.Errorf("%w: nil scan request", model.ErrValidation)
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = model.ScanIncomplete
	}
	if req.URLs == nil {
		req.URLs = []string{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_requests (`+scanRequestColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.Name, req.URL, toJSON(req.Guidance), req.Depth, req.Device, toJSON(req.Steps),
		req.ProjectID, req.AuthorID, string(req.Status), toJSON(req.URLs),
		nullTime(req.ScheduledTime), req.CreatedAt.UnixNano(), nullFloat(req.Score), nullTime(req.LastRunAt),
	)
	if err != nil {
		return persistErr("insert scan request", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (s *SQLiteStore) GetScanRequest(ctx context.Context, id string) (*model.ScanRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+scanRequestColumns+` FROM scan_requests WHERE id = ? LIMIT 1`, id)
	r, err := scanRequestRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: scan request %s", model.ErrNotFound, id)
		}
		return nil, persistErr("get scan request", err)
	}
	return r, nil
}

func (s *SQLiteStore) ListScanRequests(ctx context.Context, filter model.ScanRequestFilter) ([]model.ScanRequest, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", model.ErrValidation)
	}
	var (
		where []string
		args  []any
	)
	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := `SELECT ` + scanRequestColumns + ` FROM scan_requests`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit == 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("list scan requests", err)
	}
	defer rows.Close()

	out := []model.ScanRequest{}
	for rows.Next() {
		r, err := scanRequestRow(rows)
		if err != nil {
			return nil, persistErr("scan scan request row", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list scan requests", err)
	}
	return out, nil
}

// UpdateScanRequest applies the non-nil fields of upd and returns the
// updated request.
func (s *SQLiteStore) UpdateScanRequest(ctx context.Context, id string, upd model.ScanRequestUpdate) (*model.ScanRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+scanRequestColumns+` FROM scan_requests WHERE id = ? LIMIT 1`, id)
	r, err := scanRequestRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: scan request %s", model.ErrNotFound, id)
		}
		return nil, persistErr("get scan request", err)
	}

	if upd.Name != nil {
		r.Name = *upd.Name
	}
	if upd.Device != nil {
		r.Device = *upd.Device
	}
	if upd.Depth != nil {
		r.Depth = *upd.Depth
	}
	if upd.Guidance != nil {
		r.Guidance = *upd.Guidance
	}
	if upd.Steps != nil {
		r.Steps = *upd.Steps
	}
	if upd.ProjectID != nil {
		r.ProjectID = *upd.ProjectID
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE scan_requests
         SET name = ?, device = ?, depth = ?, guidance = ?, steps = ?, project_id = ?
         WHERE id = ?`,
		r.Name, r.Device, r.Depth, toJSON(r.Guidance), toJSON(r.Steps), r.ProjectID, id,
	); err != nil {
		return nil, persistErr("update scan request", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, persistErr("commit", err)
	}
	return r, nil
}

func (s *SQLiteStore) CompleteScanRequest(ctx context.Context, id string, score float64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scan_requests SET status = ?, weighted_score = ?, last_run_at = ? WHERE id = ?`,
		string(model.ScanComplete), score, at.UnixNano(), id)
	if err != nil {
		return persistErr("complete scan request", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: scan request %s", model.ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) DeleteScanRequest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scan_requests WHERE id = ?`, id)
	if err != nil {
		return persistErr("delete scan request", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: scan request %s", model.ErrNotFound, id)
	}
	return nil
}

// ─── Scan results ──────────────────────────────────────────────────────

func (s *SQLiteStore) SaveScanResult(ctx context.Context, res *model.ScanResult) error {
	if res == nil {
		return fmt.Errorf("%w: nil scan result", model.ErrValidation)
	}
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = time.Now().UTC()
	}

	// Engine output carries free-form values that may not encode.
	var viol, pass, inc, inapp, engine, env string
	for _, col := range []struct {
		name string
		dst  *string
		v    any
		null string
	}{
		{"violations", &viol, res.Violations, "[]"},
		{"passes", &pass, res.Passes, "[]"},
		{"incomplete", &inc, res.Incomplete, "[]"},
		{"inapplicable", &inapp, res.Inapplicable, "[]"},
		{"test_engine", &engine, res.TestEngine, "null"},
		{"environment", &env, res.Environment, "null"},
	} {
		var err error
		if *col.dst, err = encodeJSON(col.v, col.null); err != nil {
			return persistErr("encode scan result "+col.name, err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_results (id, scan_request_id, url, timestamp, score, violations, passes,
                                   incomplete, inapplicable, test_engine, environment, author_id, project_id)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.ScanRequestID, res.URL, res.Timestamp.UnixNano(), res.Score,
		viol, pass, inc, inapp, engine, env, res.AuthorID, res.ProjectID,
	)
	if err != nil {
		return persistErr("insert scan result", err)
	}
	return nil
}

// ListScanResults returns every result of the request, oldest first.
func (s *SQLiteStore) ListScanResults(ctx context.Context, scanRequestID string) ([]model.ScanResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scan_request_id, url, timestamp, score, violations, passes, incomplete,
                inapplicable, test_engine, environment, author_id, project_id
         FROM scan_results
         WHERE scan_request_id = ?
         ORDER BY timestamp ASC, rowid ASC`, scanRequestID)
	if err != nil {
		return nil, persistErr("list scan results", err)
	}
	defer rows.Close()

	out := []model.ScanResult{}
	for rows.Next() {
		var (
			r                                   model.ScanResult
			ts                                  int64
			viol, pass, inc, inapp, engine, env string
		)
		if err := rows.Scan(&r.ID, &r.ScanRequestID, &r.URL, &ts, &r.Score, &viol, &pass, &inc,
			&inapp, &engine, &env, &r.AuthorID, &r.ProjectID); err != nil {
			return nil, persistErr("scan result row", err)
		}
		r.Timestamp = time.Unix(0, ts).UTC()
		for _, f := range []struct {
			raw string
			dst any
		}{
			{viol, &r.Violations}, {pass, &r.Passes}, {inc, &r.Incomplete}, {inapp, &r.Inapplicable},
			{engine, &r.TestEngine}, {env, &r.Environment},
		} {
			if err := fromJSON(f.raw, f.dst); err != nil {
				return nil, persistErr("decode scan result", err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list scan results", err)
	}
	return out, nil
}

// ─── Schedules ─────────────────────────────────────────────────────────

func (s *SQLiteStore) UpsertSchedule(ctx context.Context, sched *model.ScheduledScan) error {
	if sched == nil {
		return fmt.Errorf("%w: nil schedule", model.ErrValidation)
	}
	if sched.ID == "" {
		sched.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	at := sched.ScheduledTime.UTC().UnixNano()
	res, err := tx.ExecContext(ctx,
		`UPDATE scan_requests SET scheduled_time = ? WHERE id = ?`, at, sched.ScanRequestID)
	if err != nil {
		return persistErr("set scheduled time", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: scan request %s", model.ErrNotFound, sched.ScanRequestID)
	}

	row := tx.QueryRowContext(ctx,
		`INSERT INTO scheduled_scans (id, scan_request_id, scheduled_time, author_id)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(scan_request_id) DO UPDATE SET
             scheduled_time = excluded.scheduled_time,
             author_id = excluded.author_id
         RETURNING id`,
		sched.ID, sched.ScanRequestID, at, sched.AuthorID)
	if err := row.Scan(&sched.ID); err != nil {
		return persistErr("upsert schedule", err)
	}
	if err := tx.Commit(); err != nil {
		return persistErr("commit", err)
	}
	return nil
}

// ListDueSchedules returns schedules whose time is at or before now, earliest
// first.
func (s *SQLiteStore) ListDueSchedules(ctx context.Context, now time.Time) ([]model.ScheduledScan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scan_request_id, scheduled_time, author_id
         FROM scheduled_scans
         WHERE scheduled_time <= ?
         ORDER BY scheduled_time ASC, id`, now.UTC().UnixNano())
	if err != nil {
		return nil, persistErr("list due schedules", err)
	}
	defer rows.Close()

	out := []model.ScheduledScan{}
	for rows.Next() {
		var (
			sc model.ScheduledScan
			at int64
		)
		if err := rows.Scan(&sc.ID, &sc.ScanRequestID, &at, &sc.AuthorID); err != nil {
			return nil, persistErr("scan schedule row", err)
		}
		sc.ScheduledTime = time.Unix(0, at).UTC()
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list due schedules", err)
	}
	return out, nil
}

func (s *SQLiteStore) ClearSchedule(ctx context.Context, scanRequestID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM scheduled_scans WHERE scan_request_id = ?`, scanRequestID); err != nil {
		return persistErr("delete schedule", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE scan_requests SET scheduled_time = NULL WHERE id = ?`, scanRequestID); err != nil {
		return persistErr("unset scheduled time", err)
	}
	if err := tx.Commit(); err != nil {
		return persistErr("commit", err)
	}
	return nil
}

// ─── Rule catalogue ────────────────────────────────────────────────────

func scanRuleRow(row rowScanner) (*model.Rule, error) {
	var (
		r                model.Rule
		disabilities, sc string
		createdAt        int64
	)
	if err := row.Scan(&r.RuleID, &disabilities, &r.WhyItMatters, &r.HowToFix, &sc, &createdAt); err != nil {
		return nil, err
	}
	if err := fromJSON(disabilities, &r.DisabilitiesAffected); err != nil {
		return nil, fmt.Errorf("decode disabilities: %w", err)
	}
	if err := fromJSON(sc, &r.SuccessCriteria); err != nil {
		return nil, fmt.Errorf("decode success criteria: %w", err)
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	return &r, nil
}

func (s *SQLiteStore) GetRule(ctx context.Context, ruleID string) (*model.Rule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT rule_id, disabilities_affected, why_it_matters, how_to_fix, success_criteria, created_at
         FROM rules WHERE rule_id = ? LIMIT 1`, ruleID)
	r, err := scanRuleRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: rule %s", model.ErrNotFound, ruleID)
		}
		return nil, persistErr("get rule", err)
	}
	return r, nil
}

// CreateRule is first-write-wins: a concurrent insert of the same rule id is
// ignored and the stored row returned instead.
func (s *SQLiteStore) CreateRule(ctx context.Context, rule *model.Rule) (*model.Rule, error) {
	if rule == nil || rule.RuleID == "" {
		return nil, fmt.Errorf("%w: rule id is required", model.ErrValidation)
	}
	created := rule.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO rules (rule_id, disabilities_affected, why_it_matters, how_to_fix, success_criteria, created_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(rule_id) DO NOTHING`,
		rule.RuleID, toJSON(rule.DisabilitiesAffected), rule.WhyItMatters, rule.HowToFix,
		toJSON(rule.SuccessCriteria), created.UnixNano(),
	); err != nil {
		return nil, persistErr("insert rule", err)
	}
	return s.GetRule(ctx, rule.RuleID)
}

func (s *SQLiteStore) ListRules(ctx context.Context) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, disabilities_affected, why_it_matters, how_to_fix, success_criteria, created_at
         FROM rules ORDER BY rule_id`)
	if err != nil {
		return nil, persistErr("list rules", err)
	}
	defer rows.Close()

	out := []model.Rule{}
	for rows.Next() {
		r, err := scanRuleRow(rows)
		if err != nil {
			return nil, persistErr("scan rule row", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list rules", err)
	}
	return out, nil
}

// ─── Custom descriptions ───────────────────────────────────────────────

// GetDescriptions returns the author's overrides keyed by rule id. An author
// without overrides gets an empty map.
func (s *SQLiteStore) GetDescriptions(ctx context.Context, authorID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, description FROM violation_descriptions WHERE author_id = ?`, authorID)
	if err != nil {
		return nil, persistErr("list descriptions", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var ruleID, desc string
		if err := rows.Scan(&ruleID, &desc); err != nil {
			return nil, persistErr("scan description row", err)
		}
		out[ruleID] = desc
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list descriptions", err)
	}
	return out, nil
}

func (s *SQLiteStore) SetDescription(ctx context.Context, authorID, ruleID, description string) error {
	if authorID == "" || ruleID == "" {
		return fmt.Errorf("%w: author id and rule id are required", model.ErrValidation)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO violation_descriptions (author_id, rule_id, description, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(author_id, rule_id) DO UPDATE SET
             description = excluded.description,
             updated_at = excluded.updated_at`,
		authorID, ruleID, description, time.Now().UnixNano(),
	); err != nil {
		return persistErr("set description", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteDescription(ctx context.Context, authorID, ruleID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM violation_descriptions WHERE author_id = ? AND rule_id = ?`, authorID, ruleID)
	if err != nil {
		return persistErr("delete description", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: description for rule %s", model.ErrNotFound, ruleID)
	}
	return nil
}

// ─── Devices ───────────────────────────────────────────────────────────

func (s *SQLiteStore) GetDevice(ctx context.Context, name string) (*model.DeviceProfile, error) {
	var (
		d                        model.DeviceProfile
		landscape, mobile, touch int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, width, height, scale, landscape, mobile, touch, user_agent
         FROM device_profiles WHERE name = ? LIMIT 1`, strings.TrimSpace(name),
	).Scan(&d.Name, &d.Width, &d.Height, &d.Scale, &landscape, &mobile, &touch, &d.UserAgent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: device %q", model.ErrNotFound, name)
		}
		return nil, persistErr("get device", err)
	}
	d.Landscape, d.Mobile, d.Touch = landscape != 0, mobile != 0, touch != 0
	return &d, nil
}

func (s *SQLiteStore) ListDevices(ctx context.Context) ([]model.DeviceProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, width, height, scale, landscape, mobile, touch, user_agent
         FROM device_profiles ORDER BY name`)
	if err != nil {
		return nil, persistErr("list devices", err)
	}
	defer rows.Close()

	out := []model.DeviceProfile{}
	for rows.Next() {
		var (
			d                        model.DeviceProfile
			landscape, mobile, touch int
		)
		if err := rows.Scan(&d.Name, &d.Width, &d.Height, &d.Scale, &landscape, &mobile, &touch, &d.UserAgent); err != nil {
			return nil, persistErr("scan device row", err)
		}
		d.Landscape, d.Mobile, d.Touch = landscape != 0, mobile != 0, touch != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list devices", err)
	}
	return out, nil
}

func (s *SQLiteStore) UpsertDevice(ctx context.Context, d model.DeviceProfile) error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return fmt.Errorf("%w: device name is required", model.ErrValidation)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: device %q needs a positive viewport", model.ErrValidation, d.Name)
	}
	if d.Scale <= 0 {
		d.Scale = 1
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO device_profiles (name, width, height, scale, landscape, mobile, touch, user_agent)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET
             width = excluded.width, height = excluded.height, scale = excluded.scale,
             landscape = excluded.landscape, mobile = excluded.mobile, touch = excluded.touch,
             user_agent = excluded.user_agent`,
		d.Name, d.Width, d.Height, d.Scale, boolInt(d.Landscape), boolInt(d.Mobile), boolInt(d.Touch), d.UserAgent,
	); err != nil {
		return persistErr("upsert device", err)
	}
	return nil
}
