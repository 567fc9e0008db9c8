package service

import (
	"context"

	"team-roster-service/internal/model"
)

// DefaultSearchLimit ограничивает выдачу поиска людей.
const DefaultSearchLimit = 20

// PersonService ищет людей для добавления в команду.
type PersonService struct {
	repo PersonRepository
}

// NewPersonService создаёт новый сервис поиска людей.
func NewPersonService(repo PersonRepository) *PersonService {
	return &PersonService{repo: repo}
}

// Search возвращает профили заданного типа (по умолчанию USER), подходящие под запрос,
// без людей из exclude, то есть тех, кто уже есть в составе. Email в выдаче остаётся
// только у самого actorID.
func (s *PersonService) Search(ctx context.Context, actorID, query, personType string, exclude []string) ([]model.Person, error) {
	if actorID == "" {
		return nil, ErrUnauthorized("authentication required")
	}
	if personType == "" {
		personType = model.PersonTypeUser
	}
	if len(query) > 255 {
		return nil, ErrBadRequest("query is too long")
	}
	people, err := s.repo.Search(ctx, query, personType, exclude, DefaultSearchLimit)
	if err != nil {
		return nil, ErrInternal("failed to search people", err)
	}
	for i := range people {
		if people[i].ID != actorID {
			people[i].Email = ""
		}
	}
	return people, nil
}
