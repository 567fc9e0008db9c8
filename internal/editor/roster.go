package editor

import "team-roster-service/internal/model"

// MergeRoster собирает черновик состава из снимка: сначала подтверждённые участники,
// затем приглашения. У приглашений идентификатор отбрасывается: при сохранении
// они отправляются как новые записи. Пустой снимок даёт одну незаполненную запись.
func MergeRoster(snap model.RosterSnapshot) []model.MemberEntry {
	roster := make([]model.MemberEntry, 0, len(snap.ConfirmedMembers)+len(snap.PendingInvitations))
	for _, m := range snap.ConfirmedMembers {
		entry := m.Clone()
		entry.Kind = model.KindMember
		roster = append(roster, entry)
	}
	for _, inv := range snap.PendingInvitations {
		entry := inv.Clone()
		entry.ID = ""
		entry.Kind = model.KindInvitation
		roster = append(roster, entry)
	}
	if len(roster) == 0 {
		roster = append(roster, model.MemberEntry{})
	}
	return roster
}

// Validate сообщает, что у каждой записи состава выбран человек.
func Validate(roster []model.MemberEntry) bool {
	return firstUnbound(roster) < 0
}

func firstUnbound(roster []model.MemberEntry) int {
	for i, e := range roster {
		if !e.HasMember() {
			return i
		}
	}
	return -1
}

// BuildPayload проецирует состав в запрос на обновление.
// Запись без роли отправляется с ролью по умолчанию.
func BuildPayload(roster []model.MemberEntry) []model.UpdateEntry {
	out := make([]model.UpdateEntry, 0, len(roster))
	for _, e := range roster {
		u := model.ToUpdateEntry(e.Clone())
		if u.Role == "" {
			u.Role = model.DefaultRole
		}
		out = append(out, u)
	}
	return out
}

// AdminCount считает сохранённых администраторов в составе.
func AdminCount(roster []model.MemberEntry) int {
	n := 0
	for _, e := range roster {
		if e.Role == model.RoleAdmin && e.ID != "" {
			n++
		}
	}
	return n
}

// MemberIDs возвращает идентификаторы людей, уже выбранных в составе.
func MemberIDs(roster []model.MemberEntry) []string {
	ids := make([]string, 0, len(roster))
	for _, e := range roster {
		if e.Member != nil && e.Member.ID != "" {
			ids = append(ids, e.Member.ID)
		}
	}
	return ids
}

func cloneRoster(roster []model.MemberEntry) []model.MemberEntry {
	if roster == nil {
		return nil
	}
	out := make([]model.MemberEntry, len(roster))
	for i, e := range roster {
		out[i] = e.Clone()
	}
	return out
}
