package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-metrics-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

// TicketFieldLister is the slice of the acquisition gateway the handler
// needs for the ticket-field listing endpoint.
type TicketFieldLister interface {
	ListTicketFields(ctx context.Context) ([]domain.TicketField, error)
}

// ReportHandler handles HTTP requests for activity reports and ticket
// snapshots.
type ReportHandler struct {
	reportService ports.ReportService
	fields        TicketFieldLister
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	reportService ports.ReportService,
	fields TicketFieldLister,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		fields:        fields,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "report"),
	}
}

// RegisterRoutes sets up the routing for all report endpoints.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/activity", h.HandleGenerateReport)
		r.Get("/latest", h.HandleLatestReport)
		r.Get("/{runID}", h.HandleGetReport)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/active", h.HandleActiveTickets)
		r.Put("/{ticketID}/category", h.HandleCategorizeTicket)
	})

	r.Get("/ticket-fields", h.HandleListTicketFields)
}

// GenerateReportRequest defines the expected JSON body for a report run
type GenerateReportRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// CategorizeTicketRequest defines the expected JSON body for categorizing
type CategorizeTicketRequest struct {
	Category string `json:"category"`
}

// HandleGenerateReport runs the full pipeline for the requested window and
// returns the finished report. Long windows take a while; progress is
// streamed separately over the websocket endpoint.
func (h *ReportHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid JSON body",
			Code:  "INVALID_BODY",
		})
		return
	}

	report, err := h.reportService.GenerateActivityReport(r.Context(), domain.Window{
		Start: req.Start,
		End:   req.End,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// HandleLatestReport returns the most recently generated report.
func (h *ReportHandler) HandleLatestReport(w http.ResponseWriter, r *http.Request) {
	report := h.reportService.LatestReport()
	if report == nil {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "No report has been generated yet",
			Code:  "NO_REPORT",
		})
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// HandleGetReport returns a retained report by run id.
func (h *ReportHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid run id",
			Code:  "INVALID_RUN_ID",
		})
		return
	}

	report := h.reportService.GetReport(runID)
	if report == nil {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "Report not found or no longer retained",
			Code:  "REPORT_NOT_FOUND",
		})
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// HandleActiveTickets returns the current snapshot of active tickets.
// Query parameters: status (repeatable or comma-separated numeric codes)
// and group_id (same shape).
func (h *ReportHandler) HandleActiveTickets(w http.ResponseWriter, r *http.Request) {
	params := ports.ActiveTicketsParams{}

	for _, raw := range splitMulti(r.URL.Query()["status"]) {
		code, err := strconv.Atoi(raw)
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "Invalid status code: " + raw,
				Code:  "INVALID_STATUS",
			})
			return
		}
		params.Statuses = append(params.Statuses, domain.TicketStatus(code))
	}

	for _, raw := range splitMulti(r.URL.Query()["group_id"]) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "Invalid group id: " + raw,
				Code:  "INVALID_GROUP_ID",
			})
			return
		}
		params.GroupIDs = append(params.GroupIDs, id)
	}

	tickets, err := h.reportService.ActiveTickets(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteList(w, tickets)
}

// HandleCategorizeTicket writes a category annotation back to the remote
// ticket.
func (h *ReportHandler) HandleCategorizeTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.ErrTicketIDRequired)
		return
	}

	var req CategorizeTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid JSON body",
			Code:  "INVALID_BODY",
		})
		return
	}

	if err := h.reportService.CategorizeTicket(r.Context(), ticketID, req.Category); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteNoContent(w)
}

// HandleListTicketFields returns the remote ticket form's field definitions.
func (h *ReportHandler) HandleListTicketFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.fields.ListTicketFields(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteList(w, fields)
}

// splitMulti flattens repeated query values and comma-separated lists into
// one slice of trimmed, non-empty tokens.
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
