package http

import (
	"context"
	"net/http"
	"strings"

	"team-roster-service/internal/service"
)

type ctxKey struct{}

// UserIDFromContext возвращает идентификатор аутентифицированного пользователя.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const handlerName = "auth"

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			h.writeError(w, handlerName, service.ErrUnauthorized("missing bearer token"))
			return
		}

		userID, err := h.Tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			h.writeError(w, handlerName, service.ErrUnauthorized("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
