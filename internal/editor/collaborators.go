package editor

import (
	"context"

	"team-roster-service/internal/model"
)

// MembershipService описывает удалённый сервис участников, с которым редактор
// обменивается составом команды.
type MembershipService interface {
	FetchRoster(ctx context.Context, collectiveID string) (model.RosterSnapshot, error)
	UpdateRoster(ctx context.Context, collectiveID string, entries []model.UpdateEntry) (model.RosterSnapshot, error)
}

// UserRefresher обновляет данные текущего пользователя после сохранения состава.
type UserRefresher interface {
	RefreshCurrentUser(ctx context.Context) error
}

// Confirmer спрашивает у пользователя подтверждение удаления участника.
// Ответ может прийти асинхронно; отмена ctx прерывает ожидание.
type Confirmer interface {
	Confirm(ctx context.Context, entry model.MemberEntry) (bool, error)
}

// ConfirmFunc позволяет использовать обычную функцию как Confirmer.
type ConfirmFunc func(ctx context.Context, entry model.MemberEntry) (bool, error)

// Confirm вызывает f(ctx, entry).
func (f ConfirmFunc) Confirm(ctx context.Context, entry model.MemberEntry) (bool, error) {
	return f(ctx, entry)
}

// PickerQuery: запрос к выбору человека: только профили нужного типа,
// без тех, кто уже есть в составе.
type PickerQuery struct {
	Text    string
	Type    string
	Exclude []string
}

// PersonSearcher ищет людей для добавления в команду.
type PersonSearcher interface {
	SearchPeople(ctx context.Context, q PickerQuery) ([]model.Person, error)
}

var declineAll = ConfirmFunc(func(context.Context, model.MemberEntry) (bool, error) {
	return false, nil
})
