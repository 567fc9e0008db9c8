package model

import "time"

// CollectiveRef: краткая ссылка на коллектив (используется для родительского коллектива).
type CollectiveRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Collective описывает коллектив и, если есть, его родителя.
// Команда дочернего коллектива управляется на уровне родителя.
type Collective struct {
	CollectiveRef
	Parent *CollectiveRef `json:"parent,omitempty"`
}

// RosterSnapshot: состояние команды коллектива, полученное от сервиса участников.
type RosterSnapshot struct {
	CollectiveID       string         `json:"collective_id"`
	ConfirmedMembers   []MemberEntry  `json:"confirmed_members"`
	PendingInvitations []MemberEntry  `json:"pending_invitations"`
	ParentCollective   *CollectiveRef `json:"parent_collective,omitempty"`
}

// UpdatePerson: проекция человека в запросе на обновление состава.
type UpdatePerson struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UpdateEntry: одна запись в запросе на обновление состава команды.
type UpdateEntry struct {
	ID          string       `json:"id,omitempty"`
	Role        Role         `json:"role"`
	Description string       `json:"description,omitempty"`
	Since       *time.Time   `json:"since,omitempty"`
	Member      UpdatePerson `json:"member"`
}

// ToUpdateEntry проецирует запись состава в элемент запроса на обновление.
// Запись должна иметь привязанного человека.
func ToUpdateEntry(e MemberEntry) UpdateEntry {
	out := UpdateEntry{
		ID:          e.ID,
		Role:        e.Role,
		Description: e.Description,
		Since:       e.Since,
	}
	if e.Member != nil {
		out.Member = UpdatePerson{
			ID:    e.Member.ID,
			Name:  e.Member.Name,
			Email: e.Member.Email,
		}
	}
	return out
}
