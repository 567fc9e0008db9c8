package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"team-roster-service/internal/model"
	"team-roster-service/internal/repository"
)

// CollectiveRepository описывает контракт репозитория коллективов для бизнес-слоя.
type CollectiveRepository interface {
	GetByID(ctx context.Context, id string) (model.Collective, error)
}

// MemberRepository описывает контракт репозитория участников для бизнес-слоя.
type MemberRepository interface {
	ListByCollective(ctx context.Context, collectiveID string, roles []model.Role) ([]model.MemberEntry, error)
	Upsert(ctx context.Context, collectiveID string, e model.MemberEntry) (model.MemberEntry, error)
	DeleteExcept(ctx context.Context, collectiveID string, keepIDs []string) (int64, error)
	ListByPerson(ctx context.Context, personID string) ([]model.PersonMembership, error)
}

// InvitationRepository описывает контракт репозитория приглашений для бизнес-слоя.
type InvitationRepository interface {
	ListByCollective(ctx context.Context, collectiveID string, roles []model.Role) ([]model.MemberEntry, error)
	Upsert(ctx context.Context, collectiveID string, e model.MemberEntry) (model.MemberEntry, error)
	DeleteExcept(ctx context.Context, collectiveID string, keepIDs []string) (int64, error)
}

// PersonRepository описывает контракт репозитория профилей для бизнес-слоя.
type PersonRepository interface {
	GetByID(ctx context.Context, id string) (model.Person, error)
	GetByEmail(ctx context.Context, email string) (model.Person, error)
	Search(ctx context.Context, query, personType string, exclude []string, limit int) ([]model.Person, error)
	Create(ctx context.Context, p model.Person) (model.Person, error)
}

// TransactionManager выполняет функцию в рамках одной транзакции.
type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SnapshotCache кеширует снимки состава по идентификатору коллектива.
// Invalidate сдвигает поколение коллектива, а Set записывает снимок только если
// поколение не изменилось с момента чтения через Generation.
type SnapshotCache interface {
	Get(ctx context.Context, collectiveID string) (model.RosterSnapshot, bool, error)
	Generation(ctx context.Context, collectiveID string) (int64, error)
	Set(ctx context.Context, snap model.RosterSnapshot, generation int64) error
	Invalidate(ctx context.Context, collectiveID string) error
}

// lastAdminMessage: сообщение для попытки оставить команду без администраторов.
const lastAdminMessage = "The last admin cannot be removed. Please add another admin first."

// rosterRoles: роли, которые входят в состав команды.
var rosterRoles = []model.Role{model.RoleAdmin, model.RoleMember, model.RoleAccountant}

// RosterService содержит бизнес-логику чтения и обновления состава команды коллектива.
type RosterService struct {
	collectives CollectiveRepository
	members     MemberRepository
	invitations InvitationRepository
	people      PersonRepository
	tx          TransactionManager
	cache       SnapshotCache
	log         *slog.Logger
	now         func() time.Time
}

// NewRosterService создаёт новый сервис состава. cache может быть nil.
func NewRosterService(
	collectives CollectiveRepository,
	members MemberRepository,
	invitations InvitationRepository,
	people PersonRepository,
	tx TransactionManager,
	cache SnapshotCache,
	log *slog.Logger,
) *RosterService {
	if cache == nil {
		cache = noCache{}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RosterService{
		collectives: collectives,
		members:     members,
		invitations: invitations,
		people:      people,
		tx:          tx,
		cache:       cache,
		log:         log,
		now:         time.Now,
	}
}

// FetchRoster возвращает снимок состава: подтверждённых участников, ожидающие приглашения
// и родительский коллектив, если команда управляется им. Смотреть состав могут только
// подтверждённые участники; не-администраторы не видят чужие email.
func (s *RosterService) FetchRoster(ctx context.Context, actorID, collectiveID string) (model.RosterSnapshot, error) {
	if collectiveID == "" {
		return model.RosterSnapshot{}, ErrBadRequest("collective_id is required")
	}
	if actorID == "" {
		return model.RosterSnapshot{}, ErrUnauthorized("authentication required")
	}

	snap, err := s.snapshot(ctx, collectiveID)
	if err != nil {
		return model.RosterSnapshot{}, err
	}
	return viewFor(actorID, snap)
}

func (s *RosterService) snapshot(ctx context.Context, collectiveID string) (model.RosterSnapshot, error) {
	if snap, ok, err := s.cache.Get(ctx, collectiveID); err != nil {
		s.log.Warn("roster cache get failed", slog.String("collective_id", collectiveID), slog.Any("err", err))
	} else if ok {
		return snap, nil
	}

	// Поколение читается до похода в хранилище.
	gen, genErr := s.cache.Generation(ctx, collectiveID)
	if genErr != nil {
		s.log.Warn("roster cache generation failed", slog.String("collective_id", collectiveID), slog.Any("err", genErr))
	}

	collective, err := s.getCollective(ctx, collectiveID)
	if err != nil {
		return model.RosterSnapshot{}, err
	}
	snap, err := s.loadSnapshot(ctx, collective)
	if err != nil {
		return model.RosterSnapshot{}, err
	}

	if genErr == nil {
		if err := s.cache.Set(ctx, snap, gen); err != nil {
			s.log.Warn("roster cache set failed", slog.String("collective_id", collectiveID), slog.Any("err", err))
		}
	}
	return snap, nil
}

func viewFor(actorID string, snap model.RosterSnapshot) (model.RosterSnapshot, error) {
	role, ok := roleOf(snap.ConfirmedMembers, actorID)
	if !ok {
		return model.RosterSnapshot{}, ErrForbidden("only team members can view the team")
	}
	if role == model.RoleAdmin {
		return snap, nil
	}
	out := snap
	out.ConfirmedMembers = redactEmails(snap.ConfirmedMembers, actorID)
	out.PendingInvitations = redactEmails(snap.PendingInvitations, actorID)
	return out, nil
}

func roleOf(members []model.MemberEntry, personID string) (model.Role, bool) {
	for _, m := range members {
		if m.Member != nil && m.Member.ID == personID {
			return m.Role, true
		}
	}
	return "", false
}

// redactEmails возвращает копии записей без email, кроме email самого actorID.
func redactEmails(entries []model.MemberEntry, actorID string) []model.MemberEntry {
	if entries == nil {
		return nil
	}
	out := make([]model.MemberEntry, len(entries))
	for i, e := range entries {
		c := e.Clone()
		if c.Member != nil && c.Member.ID != actorID {
			c.Member.Email = ""
		}
		out[i] = c
	}
	return out
}

func (s *RosterService) getCollective(ctx context.Context, collectiveID string) (model.Collective, error) {
	c, err := s.collectives.GetByID(ctx, collectiveID)
	if err != nil {
		if errors.Is(err, repository.ErrCollectiveNotFound) {
			return model.Collective{}, ErrNotFound("collective not found")
		}
		return model.Collective{}, ErrInternal("failed to get collective", err)
	}
	return c, nil
}

func (s *RosterService) loadSnapshot(ctx context.Context, c model.Collective) (model.RosterSnapshot, error) {
	members, err := s.members.ListByCollective(ctx, c.ID, rosterRoles)
	if err != nil {
		return model.RosterSnapshot{}, ErrInternal("failed to list members", err)
	}
	invitations, err := s.invitations.ListByCollective(ctx, c.ID, rosterRoles)
	if err != nil {
		return model.RosterSnapshot{}, ErrInternal("failed to list invitations", err)
	}
	return model.RosterSnapshot{
		CollectiveID:       c.ID,
		ConfirmedMembers:   members,
		PendingInvitations: invitations,
		ParentCollective:   c.Parent,
	}, nil
}

// ValidateEntries проверяет записи запроса на обновление состава.
func ValidateEntries(entries []model.UpdateEntry) error {
	for i, e := range entries {
		if !e.Role.Valid() {
			return ErrBadRequest(fmt.Sprintf("members[%d].role must be one of ADMIN, MEMBER, ACCOUNTANT", i))
		}
		if utf8.RuneCountInString(e.Description) > model.MaxDescriptionLength {
			return ErrBadRequest(fmt.Sprintf("members[%d].description must be at most %d characters", i, model.MaxDescriptionLength))
		}
		if e.Member.ID == "" && strings.TrimSpace(e.Member.Email) == "" {
			return ErrBadRequest(fmt.Sprintf("members[%d].member is required", i))
		}
	}
	return nil
}

// rosterPlan: результат сопоставления запроса с текущим составом.
type rosterPlan struct {
	members     []model.MemberEntry
	invitations []model.MemberEntry
}

func (p rosterPlan) adminCount() int {
	n := 0
	for _, m := range p.members {
		if m.Role == model.RoleAdmin {
			n++
		}
	}
	return n
}

// UpdateRoster заменяет состав команды коллектива переданным списком записей.
// Записи с ID обновляют участников, записи без ID для людей, уже состоящих в команде,
// обновляют их членство, остальные становятся приглашениями. Участники и приглашения,
// которых нет в запросе, удаляются. Выполнять операцию может только администратор.
func (s *RosterService) UpdateRoster(ctx context.Context, actorID, collectiveID string, entries []model.UpdateEntry) (model.RosterSnapshot, error) {
	if collectiveID == "" {
		return model.RosterSnapshot{}, ErrBadRequest("collective_id is required")
	}
	if actorID == "" {
		return model.RosterSnapshot{}, ErrUnauthorized("authentication required")
	}
	if err := ValidateEntries(entries); err != nil {
		return model.RosterSnapshot{}, err
	}

	collective, err := s.getCollective(ctx, collectiveID)
	if err != nil {
		return model.RosterSnapshot{}, err
	}
	if collective.Parent != nil {
		return model.RosterSnapshot{}, ErrDomain("MANAGED_BY_PARENT",
			fmt.Sprintf("Team members are defined in the settings of %s", collective.Parent.Name))
	}

	err = s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.plan(ctx, actorID, collectiveID, entries)
		if err != nil {
			return err
		}
		return s.apply(ctx, collectiveID, plan)
	})
	if err != nil {
		var app *AppError
		if errors.As(err, &app) {
			return model.RosterSnapshot{}, app
		}
		if errors.Is(err, repository.ErrDuplicateMember) {
			return model.RosterSnapshot{}, ErrDomain("DUPLICATE_MEMBER", "person is already in the team")
		}
		return model.RosterSnapshot{}, ErrInternal("failed to update roster", err)
	}

	if err := s.cache.Invalidate(ctx, collectiveID); err != nil {
		s.log.Warn("roster cache invalidate failed", slog.String("collective_id", collectiveID), slog.Any("err", err))
	}

	snap, err := s.loadSnapshot(ctx, collective)
	if err != nil {
		return model.RosterSnapshot{}, err
	}
	s.log.Info("roster updated",
		slog.String("collective_id", collectiveID),
		slog.String("actor_id", actorID),
		slog.Int("members", len(snap.ConfirmedMembers)),
		slog.Int("invitations", len(snap.PendingInvitations)),
	)
	return snap, nil
}

func (s *RosterService) plan(ctx context.Context, actorID, collectiveID string, entries []model.UpdateEntry) (rosterPlan, error) {
	current, err := s.members.ListByCollective(ctx, collectiveID, rosterRoles)
	if err != nil {
		return rosterPlan{}, ErrInternal("failed to list members", err)
	}
	pending, err := s.invitations.ListByCollective(ctx, collectiveID, rosterRoles)
	if err != nil {
		return rosterPlan{}, ErrInternal("failed to list invitations", err)
	}

	byID := make(map[string]model.MemberEntry, len(current))
	memberByPerson := make(map[string]model.MemberEntry, len(current))
	isAdmin := false
	for _, m := range current {
		byID[m.ID] = m
		if m.Member != nil {
			memberByPerson[m.Member.ID] = m
			if m.Member.ID == actorID && m.Role == model.RoleAdmin {
				isAdmin = true
			}
		}
	}
	if !isAdmin {
		return rosterPlan{}, ErrForbidden("only collective admins can edit the team")
	}

	invitationByPerson := make(map[string]model.MemberEntry, len(pending))
	for _, inv := range pending {
		if inv.Member != nil {
			invitationByPerson[inv.Member.ID] = inv
		}
	}

	var plan rosterPlan
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		person, err := s.resolvePerson(ctx, i, e.Member)
		if err != nil {
			return rosterPlan{}, err
		}
		if _, dup := seen[person.ID]; dup {
			return rosterPlan{}, ErrBadRequest(fmt.Sprintf("members[%d]: %s is listed more than once", i, person.Name))
		}
		seen[person.ID] = struct{}{}

		entry := model.MemberEntry{
			Role:        e.Role,
			Description: e.Description,
			Since:       e.Since,
			Member:      &person,
		}

		switch existing, ok := byID[e.ID]; {
		case e.ID != "" && !ok:
			return rosterPlan{}, ErrBadRequest(fmt.Sprintf("members[%d].id does not belong to this team", i))
		case e.ID != "":
			if existing.Member == nil || existing.Member.ID != person.ID {
				return rosterPlan{}, ErrBadRequest(fmt.Sprintf("members[%d].member does not match members[%d].id", i, i))
			}
			entry.ID = existing.ID
			entry.Kind = model.KindMember
			plan.members = append(plan.members, entry)
		default:
			if m, ok := memberByPerson[person.ID]; ok {
				entry.ID = m.ID
				entry.Kind = model.KindMember
				plan.members = append(plan.members, entry)
				continue
			}
			if inv, ok := invitationByPerson[person.ID]; ok {
				entry.ID = inv.ID
			}
			entry.Kind = model.KindInvitation
			plan.invitations = append(plan.invitations, entry)
		}
	}

	if plan.adminCount() == 0 {
		return rosterPlan{}, ErrDomain("LAST_ADMIN", lastAdminMessage)
	}
	return plan, nil
}

// resolvePerson находит профиль по ID или email; неизвестный email создаёт новый профиль.
func (s *RosterService) resolvePerson(ctx context.Context, i int, p model.UpdatePerson) (model.Person, error) {
	if p.ID != "" {
		person, err := s.people.GetByID(ctx, p.ID)
		if err != nil {
			if errors.Is(err, repository.ErrPersonNotFound) {
				return model.Person{}, ErrBadRequest(fmt.Sprintf("members[%d].member not found", i))
			}
			return model.Person{}, ErrInternal("failed to get person", err)
		}
		return person, nil
	}

	email := strings.TrimSpace(p.Email)
	person, err := s.people.GetByEmail(ctx, email)
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, repository.ErrPersonNotFound) {
		return model.Person{}, ErrInternal("failed to get person", err)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = email
	}
	person, err = s.people.Create(ctx, model.Person{Name: name, Email: email, Type: model.PersonTypeUser})
	if err != nil {
		return model.Person{}, ErrInternal("failed to create person", err)
	}
	return person, nil
}

func (s *RosterService) apply(ctx context.Context, collectiveID string, plan rosterPlan) error {
	now := s.now().UTC()

	keepMembers := make([]string, 0, len(plan.members))
	for _, m := range plan.members {
		if m.Since == nil {
			m.Since = &now
		}
		saved, err := s.members.Upsert(ctx, collectiveID, m)
		if err != nil {
			return fmt.Errorf("save member: %w", err)
		}
		keepMembers = append(keepMembers, saved.ID)
	}

	keepInvitations := make([]string, 0, len(plan.invitations))
	for _, inv := range plan.invitations {
		if inv.Since == nil {
			inv.Since = &now
		}
		saved, err := s.invitations.Upsert(ctx, collectiveID, inv)
		if err != nil {
			return fmt.Errorf("save invitation: %w", err)
		}
		keepInvitations = append(keepInvitations, saved.ID)
	}

	if _, err := s.members.DeleteExcept(ctx, collectiveID, keepMembers); err != nil {
		return fmt.Errorf("remove members: %w", err)
	}
	if _, err := s.invitations.DeleteExcept(ctx, collectiveID, keepInvitations); err != nil {
		return fmt.Errorf("revoke invitations: %w", err)
	}
	return nil
}

type noCache struct{}

func (noCache) Get(context.Context, string) (model.RosterSnapshot, bool, error) {
	return model.RosterSnapshot{}, false, nil
}
func (noCache) Generation(context.Context, string) (int64, error)      { return 0, nil }
func (noCache) Set(context.Context, model.RosterSnapshot, int64) error { return nil }
func (noCache) Invalidate(context.Context, string) error               { return nil }
