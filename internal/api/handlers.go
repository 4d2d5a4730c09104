package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
	"github.com/ignite/sendtime-optimizer/internal/datanorm"
	"github.com/ignite/sendtime-optimizer/internal/pkg/logger"
	"github.com/ignite/sendtime-optimizer/internal/report"
	"github.com/ignite/sendtime-optimizer/internal/repository/postgres"
)

// maxUploadBytes caps a single CSV upload at 256 MB.
const maxUploadBytes = 256 << 20

// RecordStore is the slice of the Postgres repository the handlers use.
type RecordStore interface {
	InsertRecords(ctx context.Context, records []analyzer.EmailRecord, sourceFile string) (int, error)
	ListRecords(ctx context.Context, f analyzer.Filters) ([]analyzer.EmailRecord, error)
	DistinctFilterValues(ctx context.Context) (*postgres.FilterValues, error)
	Count(ctx context.Context) (int, error)
}

// AnalysisCache caches computed analysis results per (mode, filters).
type AnalysisCache interface {
	Get(ctx context.Context, mode analyzer.Mode, f analyzer.Filters) (*analyzer.AnalysisResult, error)
	Set(ctx context.Context, result *analyzer.AnalysisResult) error
	Invalidate(ctx context.Context) error
}

// ReportSender emails rendered report summaries.
type ReportSender interface {
	Send(ctx context.Context, subject, body string, extra ...string) error
}

// Handlers holds the dependencies behind the HTTP API.
type Handlers struct {
	store    RecordStore
	cache    AnalysisCache
	analyzer *analyzer.Analyzer
	narrator *report.Narrator
	notifier ReportSender
}

// NewHandlers creates the API handler set. cache and notifier may be nil.
func NewHandlers(store RecordStore, cache AnalysisCache, az *analyzer.Analyzer, narrator *report.Narrator, notifier ReportSender) *Handlers {
	return &Handlers{
		store:    store,
		cache:    cache,
		analyzer: az,
		narrator: narrator,
		notifier: notifier,
	}
}

// HealthCheck reports service liveness.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleUploadRecords ingests a campaign-report CSV and invalidates the
// analysis cache.
// POST /api/records/upload  (multipart form, field "file")
func (h *Handlers) HandleUploadRecords(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "missing file upload: "+err.Error())
		return
	}
	defer file.Close()

	importer := datanorm.NewImporter(h.store)
	imported, skipped, err := importer.ImportFromReader(r.Context(), file, header.Filename)
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "import failed: "+err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(r.Context()); err != nil {
			logger.Warn("cache invalidation failed", "error", err.Error())
		}
	}

	logger.Info("records uploaded",
		"file", header.Filename,
		"imported", imported,
		"skipped", skipped,
	)
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"file":     header.Filename,
		"imported": imported,
		"skipped":  skipped,
	})
}

// HandleAnalysis runs the send-time analysis for the requested mode and
// filters.
// GET /api/analysis?mode=combined&business_unit=...&organization_type=...&campaign_type=...
func (h *Handlers) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	mode, filters, ok := h.parseAnalysisParams(w, r)
	if !ok {
		return
	}

	result, err := h.analyze(r.Context(), mode, filters)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// HandleHeatmap returns the 7x24 engagement grid for the filtered records.
// GET /api/analysis/heatmap
func (h *Handlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	records, ok := h.loadRecords(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"cells":        analyzer.Heatmap(records),
		"record_count": len(records),
	})
}

// HandleHours returns per-hour engagement aggregates.
// GET /api/analysis/hours
func (h *Handlers) HandleHours(w http.ResponseWriter, r *http.Request) {
	records, ok := h.loadRecords(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"hours":        analyzer.DistributionByHour(records),
		"record_count": len(records),
	})
}

// HandleDays returns per-weekday engagement aggregates.
// GET /api/analysis/days
func (h *Handlers) HandleDays(w http.ResponseWriter, r *http.Request) {
	records, ok := h.loadRecords(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"days":         analyzer.DistributionByDay(records),
		"record_count": len(records),
	})
}

// HandleExport streams the ranked analysis as CSV or JSON.
// GET /api/analysis/export?format=csv
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	mode, filters, ok := h.parseAnalysisParams(w, r)
	if !ok {
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", format))
		return
	}

	result, err := h.analyze(r.Context(), mode, filters)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	filename := fmt.Sprintf("send-time-analysis-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := report.WriteCSV(w, result); err != nil {
			logger.Error("csv export failed", "error", err.Error())
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := report.WriteJSON(w, result); err != nil {
		logger.Error("json export failed", "error", err.Error())
	}
}

// HandleFilters returns the distinct categorical values present in the
// record store, for populating filter dropdowns.
// GET /api/filters
func (h *Handlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	values, err := h.store.DistinctFilterValues(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "load filters: "+err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, values)
}

type notifyRequest struct {
	Mode             string   `json:"mode"`
	BusinessUnit     string   `json:"business_unit"`
	OrganizationType string   `json:"organization_type"`
	CampaignType     string   `json:"campaign_type"`
	Subject          string   `json:"subject"`
	Recipients       []string `json:"recipients"`
}

// HandleNotify renders the narrative report and emails it.
// POST /api/notify
func (h *Handlers) HandleNotify(w http.ResponseWriter, r *http.Request) {
	if h.notifier == nil || h.narrator == nil {
		jsonError(w, http.StatusServiceUnavailable, "notifications are not configured")
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	mode := analyzer.Mode(req.Mode)
	if mode == "" {
		mode = analyzer.ModeCombined
	}
	if !analyzer.ValidMode(mode) {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("unknown analysis mode %q", req.Mode))
		return
	}
	filters := normalizeFilters(analyzer.Filters{
		BusinessUnit:     req.BusinessUnit,
		OrganizationType: req.OrganizationType,
		CampaignType:     req.CampaignType,
	})

	result, err := h.analyze(r.Context(), mode, filters)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	body, err := h.narrator.Render(result, nil)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "render report: "+err.Error())
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = "Send-Time Analysis Report"
	}
	if err := h.notifier.Send(r.Context(), subject, body, req.Recipients...); err != nil {
		jsonError(w, http.StatusBadGateway, "send report: "+err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "sent"})
}

// analyze loads filtered records, consults the cache, and runs the
// analyzer. Best-practices mode never touches the store.
func (h *Handlers) analyze(ctx context.Context, mode analyzer.Mode, filters analyzer.Filters) (*analyzer.AnalysisResult, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, mode, filters); err != nil {
			logger.Warn("cache read failed", "error", err.Error())
		} else if cached != nil {
			return cached, nil
		}
	}

	var records []analyzer.EmailRecord
	if mode != analyzer.ModeBestPractices {
		var err error
		records, err = h.store.ListRecords(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("load records: %w", err)
		}
	}

	result, err := h.analyzer.Analyze(records, mode, filters)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, result); err != nil {
			logger.Warn("cache write failed", "error", err.Error())
		}
	}
	return result, nil
}

func (h *Handlers) parseAnalysisParams(w http.ResponseWriter, r *http.Request) (analyzer.Mode, analyzer.Filters, bool) {
	q := r.URL.Query()
	mode := analyzer.Mode(q.Get("mode"))
	if mode == "" {
		mode = analyzer.ModeCombined
	}
	if !analyzer.ValidMode(mode) {
		jsonError(w, http.StatusBadRequest, fmt.Sprintf("unknown analysis mode %q", q.Get("mode")))
		return "", analyzer.Filters{}, false
	}
	filters := normalizeFilters(analyzer.Filters{
		BusinessUnit:     q.Get("business_unit"),
		OrganizationType: q.Get("organization_type"),
		CampaignType:     q.Get("campaign_type"),
	})
	return mode, filters, true
}

func (h *Handlers) loadRecords(w http.ResponseWriter, r *http.Request) ([]analyzer.EmailRecord, bool) {
	q := r.URL.Query()
	filters := normalizeFilters(analyzer.Filters{
		BusinessUnit:     q.Get("business_unit"),
		OrganizationType: q.Get("organization_type"),
		CampaignType:     q.Get("campaign_type"),
	})
	records, err := h.store.ListRecords(r.Context(), filters)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "load records: "+err.Error())
		return nil, false
	}
	return records, true
}

func normalizeFilters(f analyzer.Filters) analyzer.Filters {
	if f.BusinessUnit == "" {
		f.BusinessUnit = analyzer.FilterAll
	}
	if f.OrganizationType == "" {
		f.OrganizationType = analyzer.FilterAll
	}
	if f.CampaignType == "" {
		f.CampaignType = analyzer.FilterAll
	}
	return f
}

func writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analyzer.ErrEmptyDataset):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, analyzer.ErrUnknownMode):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		jsonError(w, http.StatusInternalServerError, err.Error())
	}
}

func jsonResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}
