package editor

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange возвращается, если индекс записи вне текущего состава.
	ErrIndexOutOfRange = errors.New("entry index out of range")

	// ErrInvalidField возвращается при неизвестном поле или недопустимом значении.
	ErrInvalidField = errors.New("invalid field value")

	// ErrManagedByParent возвращается при попытке редактировать команду,
	// которая определена в настройках родительского коллектива.
	ErrManagedByParent = errors.New("team is managed by the parent collective")

	// ErrRosterChanged возвращается, если состав изменился, пока пользователь подтверждал удаление.
	ErrRosterChanged = errors.New("roster changed while awaiting confirmation")

	// ErrInvalidModal возвращается при открытии неизвестного модального окна.
	ErrInvalidModal = errors.New("unknown modal kind")
)

// ValidationError: локальная ошибка валидации: в составе есть запись без выбранного человека.
// Запрос к сервису в этом случае не отправляется.
type ValidationError struct {
	Index int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("entry %d has no member selected", e.Index)
}

// TransportError: ошибка обращения к сервису участников (сеть, авторизация, серверная валидация).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap возвращает вложенную ошибку для поддержки errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message возвращает человекочитаемое сообщение для показа пользователю.
func (e *TransportError) Message() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Err.Error()
}
