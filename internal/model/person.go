// Package model содержит доменные структуры для коллективов, людей и состава команды.
package model

// PersonTypeUser: тип профиля, который можно добавить в команду.
const PersonTypeUser = "USER"

// Person описывает человека, которого можно выбрать участником команды.
type Person struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Type     string `json:"type,omitempty"`
}

// CurrentUser: профиль текущего пользователя вместе с его членствами.
type CurrentUser struct {
	Person      Person             `json:"person"`
	Memberships []PersonMembership `json:"memberships"`
}

// PersonMembership описывает роль пользователя в конкретном коллективе.
type PersonMembership struct {
	CollectiveID string `json:"collective_id"`
	Role         Role   `json:"role"`
}
