package http

import (
	"net/http"

	"team-roster-service/internal/model"
)

func (h *Handler) handlePeopleSearch(w http.ResponseWriter, r *http.Request) {
	const handlerName = "people_search"

	q := r.URL.Query()
	exclude, err := ParseExclude(q.Get("exclude"))
	if err != nil {
		h.writeError(w, handlerName, err)
		return
	}

	ctx := r.Context()
	people, err := h.People.Search(ctx, UserIDFromContext(ctx), q.Get("q"), q.Get("type"), exclude)
	if err != nil {
		h.writeError(w, handlerName, err)
		return
	}
	if people == nil {
		people = []model.Person{}
	}

	h.writeJSON(w, http.StatusOK, searchPeopleResponse{People: people})
}
