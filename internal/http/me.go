package http

import "net/http"

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	const handlerName = "me"

	ctx := r.Context()
	user, err := h.Users.Me(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.writeError(w, handlerName, err)
		return
	}

	h.writeJSON(w, http.StatusOK, meResponse{User: user})
}
