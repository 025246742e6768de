package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/segyhp/khaata-engine/internal/service"
	"github.com/segyhp/khaata-engine/pkg/response"
)

type DashboardHandler struct {
	summary    *service.SummaryService
	loc        *time.Location
	withinDays int
}

func NewDashboardHandler(summary *service.SummaryService, loc *time.Location, defaultWithinDays int) *DashboardHandler {
	return &DashboardHandler{
		summary:    summary,
		loc:        loc,
		withinDays: defaultWithinDays,
	}
}

// Summary serves GET /dashboard/summary?as_of=YYYY-MM-DD; as_of defaults to
// today.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	asOf, ok := queryDate(w, r, "as_of", h.loc)
	if !ok {
		return
	}

	summary, err := h.summary.Summary(r.Context(), ownerID, asOf)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, summary)
}

func (h *DashboardHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	asOf, ok := queryDate(w, r, "as_of", h.loc)
	if !ok {
		return
	}

	overdue, err := h.summary.OverdueLoans(r.Context(), ownerID, asOf)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, overdue)
}

func (h *DashboardHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireOwner(w, r)
	if !ok {
		return
	}
	asOf, ok := queryDate(w, r, "as_of", h.loc)
	if !ok {
		return
	}

	withinDays := h.withinDays
	if raw := r.URL.Query().Get("within_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "within_days must be an integer")
			return
		}
		withinDays = n
	}

	upcoming, err := h.summary.UpcomingDue(r.Context(), ownerID, asOf, withinDays)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, upcoming)
}
