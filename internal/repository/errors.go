package repository

import "errors"

var (
	// ErrPersonNotFound возвращается, если человек не найден в БД.
	ErrPersonNotFound = errors.New("person not found")

	// ErrPersonExists возвращается при конфликте email или slug профиля.
	ErrPersonExists = errors.New("person already exists")

	// ErrCollectiveNotFound возвращается, если коллектив не найден.
	ErrCollectiveNotFound = errors.New("collective not found")

	// ErrDuplicateMember возвращается, если человек уже состоит в команде коллектива.
	ErrDuplicateMember = errors.New("person is already in the roster")
)

// pgUniqueViolation: код ошибки PostgreSQL при нарушении уникального ограничения.
const pgUniqueViolation = "23505"
