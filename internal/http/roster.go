package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"team-roster-service/internal/service"
)

func (h *Handler) handleRosterGet(w http.ResponseWriter, r *http.Request) {
	const handlerName = "roster_get"

	collectiveID := chi.URLParam(r, "collectiveID")
	if err := ValidateCollectiveID(collectiveID); err != nil {
		h.writeError(w, handlerName, err)
		return
	}

	ctx := r.Context()
	snap, err := h.Rosters.FetchRoster(ctx, UserIDFromContext(ctx), collectiveID)
	if err != nil {
		h.writeError(w, handlerName, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rosterResponse{Roster: snap})
}

func (h *Handler) handleRosterUpdate(w http.ResponseWriter, r *http.Request) {
	const handlerName = "roster_update"

	collectiveID := chi.URLParam(r, "collectiveID")
	if err := ValidateCollectiveID(collectiveID); err != nil {
		h.writeError(w, handlerName, err)
		return
	}

	var req updateRosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, handlerName, service.ErrBadRequest("invalid JSON"))
		return
	}

	if err := ValidateUpdateRosterRequest(req); err != nil {
		h.recordUpdate(err)
		h.writeError(w, handlerName, err)
		return
	}

	ctx := r.Context()
	snap, err := h.Rosters.UpdateRoster(ctx, UserIDFromContext(ctx), collectiveID, req.Members)
	h.recordUpdate(err)
	if err != nil {
		h.writeError(w, handlerName, err)
		return
	}

	h.writeJSON(w, http.StatusOK, rosterResponse{Roster: snap})
}

func (h *Handler) recordUpdate(err error) {
	if h.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "INTERNAL"
		var appErr *service.AppError
		if errors.As(err, &appErr) {
			outcome = appErr.Code
		}
	}
	h.metrics.RosterUpdate(outcome)
}
