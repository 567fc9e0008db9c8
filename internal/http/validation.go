package http

import (
	"fmt"
	"regexp"
	"strings"

	"team-roster-service/internal/service"
)

// Регулярка для идентификаторов коллективов и людей
var reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// maxExclude ограничивает длину списка exclude в поиске.
const maxExclude = 500

// ValidateCollectiveID Валидация параметра пути collectiveID
func ValidateCollectiveID(id string) error {
	if id == "" {
		return service.ErrBadRequest("collective_id is required")
	}
	if !reID.MatchString(id) {
		return service.ErrBadRequest("collective_id must contain only letters, digits, '-' and '_'")
	}
	return nil
}

// ValidateUpdateRosterRequest PUT /collectives/{collectiveID}/roster: тело запроса
func ValidateUpdateRosterRequest(req updateRosterRequest) error {
	if req.Members == nil {
		return service.ErrBadRequest("members is required")
	}
	for i, m := range req.Members {
		if m.ID != "" && !reID.MatchString(m.ID) {
			return service.ErrBadRequest(fmt.Sprintf("members[%d].id is malformed", i))
		}
		if m.Member.ID != "" && !reID.MatchString(m.Member.ID) {
			return service.ErrBadRequest(fmt.Sprintf("members[%d].member.id is malformed", i))
		}
	}
	return service.ValidateEntries(req.Members)
}

// ParseExclude Разбор query-параметра exclude для /people/search
func ParseExclude(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) > maxExclude {
		return nil, service.ErrBadRequest(fmt.Sprintf("exclude must list at most %d ids", maxExclude))
	}
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !reID.MatchString(p) {
			return nil, service.ErrBadRequest("exclude must be a comma-separated list of ids")
		}
		ids = append(ids, p)
	}
	return ids, nil
}
