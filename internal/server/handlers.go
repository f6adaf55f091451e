package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/scan"
)

// --- Scan requests ---

// handleCreateScan crawls the site and stores a scan request.
//
// @Summary Create a scan request
// @Tags scans
// @Accept json
// @Produce json
// @Param X-User-ID header string false "caller id"
// @Param async query bool false "crawl in a background job"
// @Param body body CreateScanRequest true "scan definition"
// @Success 201 {object} CreatedScanResponse
// @Success 202 {object} app.Job
// @Failure 400 {object} ErrorResponse
// @Router /scans [post]
func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	var body CreateScanRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in := scan.CreateScanInput{
		URL:       body.URL,
		Guidance:  body.Guidance,
		Depth:     body.Depth,
		Device:    body.Device,
		Steps:     body.Steps,
		Name:      body.Name,
		ProjectID: body.ProjectID,
		AuthorID:  userID(r),
	}

	if r.URL.Query().Get("async") == "true" {
		job, err := s.app.Orch.StartCreateJob(context.Background(), in)
		if err != nil {
			s.fail(w, "starting create job", err)
			return
		}
		s.logger.Info("started create job", logging.Field{Key: "job_id", Value: job.ID})
		writeJSON(w, http.StatusAccepted, job)
		return
	}

	id, err := s.app.Runner.CreateScan(r.Context(), in)
	if err != nil {
		s.fail(w, "creating scan request", err)
		return
	}
	s.logger.Info("created scan request", logging.Field{Key: "id", Value: id})
	writeJSON(w, http.StatusCreated, CreatedScanResponse{ID: id})
}

// @Summary List scan requests
// @Tags scans
// @Produce json
// @Param project_id query string false "project filter"
// @Param author_id query string false "author filter"
// @Param status query string false "Complete or Incomplete"
// @Param limit query int false "page size, newest first"
// @Param offset query int false "rows to skip"
// @Success 200 {array} model.ScanRequest
// @Failure 400 {object} ErrorResponse
// @Router /scans [get]
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ScanRequestFilter{
		ProjectID: q.Get("project_id"),
		AuthorID:  q.Get("author_id"),
		Status:    model.ScanStatus(q.Get("status")),
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, key+" must be a non-negative integer")
			return
		}
		*dst = n
	}
	reqs, err := s.app.Store.ListScanRequests(r.Context(), filter)
	if err != nil {
		s.fail(w, "listing scan requests", err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	req, err := s.app.Store.GetScanRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "getting scan request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleUpdateScan(w http.ResponseWriter, r *http.Request) {
	var upd model.ScanRequestUpdate
	if err := decodeBody(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req, err := s.app.Runner.UpdateScan(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.fail(w, "updating scan request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.app.Store.DeleteScanRequest(r.Context(), id); err != nil {
		s.fail(w, "deleting scan request", err)
		return
	}
	s.logger.Info("deleted scan request", logging.Field{Key: "id", Value: id})
	writeJSON(w, http.StatusNoContent, nil)
}

// handleRunScan starts a run job, or runs inline with ?wait=true.
//
// @Summary Run a scan request
// @Tags scans
// @Accept json
// @Produce json
// @Param id path string true "scan request id"
// @Param wait query bool false "block until the run finishes"
// @Param body body RunScanRequest false "overrides"
// @Success 200 {object} MessageResponse
// @Success 202 {object} app.Job
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id}/run [post]
func (s *Server) handleRunScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body RunScanRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := s.app.Store.GetScanRequest(r.Context(), id); err != nil {
		s.fail(w, "running scan", err)
		return
	}
	opts := scan.RunOptions{URLs: body.URLs, Device: body.Device, AuthorID: userID(r)}

	if r.URL.Query().Get("wait") == "true" {
		msg, err := s.app.Runner.RunScan(r.Context(), id, opts)
		if err != nil {
			s.fail(w, "running scan", err)
			return
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
		return
	}

	job, err := s.app.Orch.StartRunJob(context.Background(), id, opts)
	if err != nil {
		s.fail(w, "starting run job", err)
		return
	}
	s.logger.Info("started run job", logging.Field{Key: "job_id", Value: job.ID}, logging.Field{Key: "scan_request_id", Value: id})
	writeJSON(w, http.StatusAccepted, job)
}

// @Summary Schedule a scan request
// @Tags scans
// @Accept json
// @Produce json
// @Param id path string true "scan request id"
// @Param body body ScheduleScanRequest true "when to run"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id}/schedule [post]
func (s *Server) handleScheduleScan(w http.ResponseWriter, r *http.Request) {
	var body ScheduleScanRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	msg, err := s.app.Runner.ScheduleScan(r.Context(), body.ScheduledTime, chi.URLParam(r, "id"), userID(r))
	if err != nil {
		s.fail(w, "scheduling scan", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msg})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.app.Store.GetScanRequest(r.Context(), id); err != nil {
		s.fail(w, "listing scan results", err)
		return
	}
	res, err := s.app.Store.ListScanResults(r.Context(), id)
	if err != nil {
		s.fail(w, "listing scan results", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary Build the report of a scan request
// @Tags reports
// @Produce json
// @Param id path string true "scan request id"
// @Param X-User-ID header string false "requester; selects custom descriptions"
// @Success 200 {object} report.Report
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id}/report [get]
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.app.Reports.Generate(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		s.fail(w, "generating report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// @Summary Compare the latest run of every page with the one before
// @Tags reports
// @Produce json
// @Param id path string true "scan request id"
// @Success 200 {object} report.Comparison
// @Failure 404 {object} ErrorResponse
// @Router /scans/{id}/compare [get]
func (s *Server) handleCompareRuns(w http.ResponseWriter, r *http.Request) {
	cmp, err := s.app.Reports.Compare(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "comparing runs", err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// --- Settings ---

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := userID(r)
	if u == "" {
		writeError(w, http.StatusBadRequest, "missing "+UserHeader+" header")
		return "", false
	}
	return u, true
}

func (s *Server) handleGetDescriptions(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	descs, err := s.app.Store.GetDescriptions(r.Context(), u)
	if err != nil {
		s.fail(w, "getting descriptions", err)
		return
	}
	writeJSON(w, http.StatusOK, descs)
}

func (s *Server) handleSetDescription(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var body SetDescriptionRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(body.RuleID) == "" {
		writeError(w, http.StatusBadRequest, "rule_id is required")
		return
	}
	if err := s.app.Store.SetDescription(r.Context(), u, body.RuleID, body.Description); err != nil {
		s.fail(w, "setting description", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("description for %s saved", body.RuleID)})
}

func (s *Server) handleDeleteDescription(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.app.Store.DeleteDescription(r.Context(), u, chi.URLParam(r, "ruleID")); err != nil {
		s.fail(w, "deleting description", err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.app.Devices.List(r.Context())
	if err != nil {
		s.fail(w, "listing devices", err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleUpsertDevice(w http.ResponseWriter, r *http.Request) {
	var d model.DeviceProfile
	if err := decodeBody(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(d.Name) == "" || d.Width <= 0 || d.Height <= 0 {
		writeError(w, http.StatusBadRequest, "device needs a name and a positive viewport")
		return
	}
	if d.Scale <= 0 {
		d.Scale = 1
	}
	if err := s.app.Store.UpsertDevice(r.Context(), d); err != nil {
		s.fail(w, "saving device", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListGuidance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.GuidanceLevels)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.app.Store.ListRules(r.Context())
	if err != nil {
		s.fail(w, "listing rules", err)
		return
	}
	writeJSON(w, http.StatusOK, rules)
}

// --- Jobs ---

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.app.Orch.GetJob(jobID)
	if job == nil {
		s.logger.Warn("getting job: not found", logging.Field{Key: "job_id", Value: jobID})
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	s.app.Orch.CancelJob(jobID)
	s.logger.Info("canceled job", logging.Field{Key: "job_id", Value: jobID})
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.app.Orch.ListJobs()
	writeJSON(w, http.StatusOK, jobs)
}

// --- WebSockets ---

// handleRunWS runs a scan request and streams its job events. Closing the
// socket cancels the run.
func (s *Server) handleRunWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts := scan.RunOptions{Device: r.URL.Query().Get("device"), AuthorID: userID(r)}
	if opts.AuthorID == "" {
		opts.AuthorID = r.URL.Query().Get("user")
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if _, err := s.app.Store.GetScanRequest(ctx, id); err != nil {
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	job, err := s.app.Orch.StartRunJob(ctx, id, opts)
	if err != nil {
		s.logger.Warn("starting run job", logging.Field{Key: "error", Value: err.Error()})
		_ = conn.WriteJSON(ErrorResponse{Error: err.Error()})
		return
	}

	s.logger.Info("started run job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.app.Orch.CancelJob(job.ID)
			return
		}
	}
}
