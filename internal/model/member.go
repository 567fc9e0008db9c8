package model

import "time"

// Role: роль участника в команде коллектива.
type Role string

const (
	// RoleAdmin может редактировать коллектив и одобрять расходы.
	RoleAdmin Role = "ADMIN"
	// RoleMember: обычный участник команды.
	RoleMember Role = "MEMBER"
	// RoleAccountant имеет доступ к финансовой информации.
	RoleAccountant Role = "ACCOUNTANT"
)

// DefaultRole назначается новым записям в составе команды.
const DefaultRole = RoleAdmin

// MaxDescriptionLength: максимальная длина описания участника (в символах).
const MaxDescriptionLength = 255

// Roles возвращает допустимые роли в порядке отображения.
func Roles() []Role {
	return []Role{RoleAdmin, RoleMember, RoleAccountant}
}

// Valid сообщает, является ли роль одной из допустимых.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleAccountant:
		return true
	}
	return false
}

// EntryKind отличает подтверждённого участника от ожидающего приглашения.
type EntryKind string

const (
	KindMember     EntryKind = "member"
	KindInvitation EntryKind = "invitation"
)

// MemberEntry описывает одну строку состава команды: роль, привязанного человека и метаданные.
// Пустой ID означает, что запись ещё не сохранена.
type MemberEntry struct {
	ID          string     `json:"id,omitempty"`
	Role        Role       `json:"role,omitempty"`
	Description string     `json:"description,omitempty"`
	Since       *time.Time `json:"since,omitempty"`
	Member      *Person    `json:"member,omitempty"`
	Kind        EntryKind  `json:"kind,omitempty"`
}

// HasMember сообщает, привязан ли к записи человек.
func (e MemberEntry) HasMember() bool {
	return e.Member != nil
}

// Clone возвращает копию записи, не разделяющую указатели с исходной.
func (e MemberEntry) Clone() MemberEntry {
	out := e
	if e.Since != nil {
		since := *e.Since
		out.Since = &since
	}
	if e.Member != nil {
		p := *e.Member
		out.Member = &p
	}
	return out
}
