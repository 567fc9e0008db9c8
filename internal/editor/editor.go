// Package editor реализует черновик состава команды коллектива: локальные правки,
// валидацию и отправку изменений в сервис участников.
package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"team-roster-service/internal/model"
)

// Field: редактируемое поле записи состава.
type Field string

const (
	FieldRole        Field = "role"
	FieldDescription Field = "description"
	FieldSince       Field = "since"
	FieldMember      Field = "member"
)

// ModalKind: вид модального окна редактора.
type ModalKind string

const (
	ModalNone   ModalKind = ""
	ModalInvite ModalKind = "invite"
	ModalEdit   ModalKind = "edit"
)

// Modal описывает открытое модальное окно. Index равен -1, если окно не привязано к записи.
type Modal struct {
	Kind  ModalKind
	Index int
}

var noModal = Modal{Kind: ModalNone, Index: -1}

// SubmitOutcome: результат вызова Submit.
type SubmitOutcome int

const (
	// SubmitSkipped: отправка уже идёт или команда управляется родителем; запрос не отправлен.
	SubmitSkipped SubmitOutcome = iota
	// SubmitInvalid: в составе есть запись без человека; запрос не отправлен.
	SubmitInvalid
	// SubmitFailed: сервис вернул ошибку, она сохранена в State.LastError.
	SubmitFailed
	// SubmitSucceeded: состав сохранён и перечитан.
	SubmitSucceeded
)

func (o SubmitOutcome) String() string {
	switch o {
	case SubmitSkipped:
		return "skipped"
	case SubmitInvalid:
		return "invalid"
	case SubmitFailed:
		return "failed"
	case SubmitSucceeded:
		return "succeeded"
	}
	return fmt.Sprintf("SubmitOutcome(%d)", int(o))
}

// State: снимок состояния редактора. Roster в нём является независимой копией.
type State struct {
	Roster           []model.MemberEntry
	IsDirty          bool
	IsSubmitting     bool
	IsSubmitted      bool
	LastError        error
	ActiveModal      Modal
	ManagedBy        *model.CollectiveRef
	HasStaleSnapshot bool
}

// Editor владеет черновиком состава одного коллектива.
type Editor struct {
	collectiveID string
	svc          MembershipService
	users        UserRefresher
	confirm      Confirmer
	log          *slog.Logger

	mu         sync.Mutex
	roster     []model.MemberEntry
	revision   uint64 // любые замены состава, включая внешние снимки
	editRev    uint64 // только правки пользователя
	dirty      bool
	submitting bool
	submitted  bool
	lastErr    error
	modal      Modal
	managedBy  *model.CollectiveRef
	base       *model.RosterSnapshot
	pending    *model.RosterSnapshot
}

// Option настраивает Editor.
type Option func(*Editor)

// WithLogger задаёт логгер редактора.
func WithLogger(log *slog.Logger) Option {
	return func(e *Editor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithUserRefresher задаёт обновление текущего пользователя после сохранения.
func WithUserRefresher(users UserRefresher) Option {
	return func(e *Editor) {
		e.users = users
	}
}

// New создаёт редактор для коллектива. Если confirm равен nil,
// удаление записей с выбранным человеком всегда отклоняется.
func New(collectiveID string, svc MembershipService, confirm Confirmer, opts ...Option) *Editor {
	if confirm == nil {
		confirm = declineAll
	}
	e := &Editor{
		collectiveID: collectiveID,
		svc:          svc,
		confirm:      confirm,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		modal:        noModal,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(slog.String("collective_id", collectiveID))
	return e
}

// Load запрашивает снимок состава у сервиса и применяет его через LoadSnapshot.
func (e *Editor) Load(ctx context.Context) error {
	snap, err := e.svc.FetchRoster(ctx, e.collectiveID)
	if err != nil {
		terr := &TransportError{Op: "fetch roster", Err: err}
		e.mu.Lock()
		e.lastErr = terr
		e.mu.Unlock()
		return terr
	}
	e.LoadSnapshot(snap)
	return nil
}

// LoadSnapshot заменяет черновик составом из снимка. Пока в черновике есть
// несохранённые правки, снимок откладывается (HasStaleSnapshot) и возвращается false.
func (e *Editor) LoadSnapshot(snap model.RosterSnapshot) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dirty {
		s := snap
		e.pending = &s
		e.log.Warn("roster snapshot deferred: draft has unsaved changes")
		return false
	}
	e.applyLocked(snap)
	return true
}

// DiscardChanges отбрасывает локальные правки и применяет последний полученный снимок.
func (e *Editor) DiscardChanges() {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.pending
	if snap == nil {
		snap = e.base
	}
	e.dirty = false
	if snap != nil {
		e.applyLocked(*snap)
	}
}

func (e *Editor) applyLocked(snap model.RosterSnapshot) {
	s := snap
	e.base = &s
	e.pending = nil
	e.roster = MergeRoster(snap)
	e.revision++
	e.managedBy = nil
	if snap.ParentCollective != nil {
		parent := *snap.ParentCollective
		e.managedBy = &parent
	}
	if e.modal.Kind == ModalEdit && e.modal.Index >= len(e.roster) {
		e.modal = noModal
	}
}

// State возвращает текущее состояние редактора.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		Roster:           cloneRoster(e.roster),
		IsDirty:          e.dirty,
		IsSubmitting:     e.submitting,
		IsSubmitted:      e.submitted,
		LastError:        e.lastErr,
		ActiveModal:      e.modal,
		HasStaleSnapshot: e.pending != nil,
	}
	if e.managedBy != nil {
		parent := *e.managedBy
		st.ManagedBy = &parent
	}
	return st
}

func (e *Editor) checkEditableLocked(index int) error {
	if e.managedBy != nil {
		return ErrManagedByParent
	}
	if index < 0 || index >= len(e.roster) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return nil
}

// EditField заменяет запись с индексом index копией, в которой изменено одно поле.
func (e *Editor) EditField(index int, field Field, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkEditableLocked(index); err != nil {
		return err
	}

	entry := e.roster[index].Clone()
	if err := setField(&entry, field, value); err != nil {
		return err
	}

	roster := make([]model.MemberEntry, len(e.roster))
	copy(roster, e.roster)
	roster[index] = entry
	e.roster = roster
	e.dirty = true
	e.revision++
	e.editRev++
	return nil
}

func setField(entry *model.MemberEntry, field Field, value any) error {
	switch field {
	case FieldRole:
		var role model.Role
		switch v := value.(type) {
		case model.Role:
			role = v
		case string:
			role = model.Role(v)
		default:
			return fmt.Errorf("%w: role must be a string, got %T", ErrInvalidField, value)
		}
		if !role.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidField, role)
		}
		entry.Role = role

	case FieldDescription:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: description must be a string, got %T", ErrInvalidField, value)
		}
		if utf8.RuneCountInString(s) > model.MaxDescriptionLength {
			return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidField, model.MaxDescriptionLength)
		}
		entry.Description = s

	case FieldSince:
		switch v := value.(type) {
		case time.Time:
			entry.Since = &v
		case *time.Time:
			if v == nil {
				entry.Since = nil
			} else {
				since := *v
				entry.Since = &since
			}
		default:
			return fmt.Errorf("%w: since must be a time, got %T", ErrInvalidField, value)
		}

	case FieldMember:
		switch v := value.(type) {
		case model.Person:
			entry.Member = &v
		case *model.Person:
			if v == nil {
				entry.Member = nil
			} else {
				p := *v
				entry.Member = &p
			}
		default:
			return fmt.Errorf("%w: member must be a person, got %T", ErrInvalidField, value)
		}

	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidField, field)
	}
	return nil
}

// AddEntry добавляет в конец состава новую запись с ролью ADMIN без выбранного человека
// и возвращает её индекс.
func (e *Editor) AddEntry() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.managedBy != nil {
		return -1, ErrManagedByParent
	}
	roster := make([]model.MemberEntry, len(e.roster), len(e.roster)+1)
	copy(roster, e.roster)
	roster = append(roster, model.MemberEntry{Role: model.DefaultRole})
	e.roster = roster
	e.dirty = true
	e.revision++
	e.editRev++
	return len(roster) - 1, nil
}

// RemoveEntry удаляет запись. Если к записи привязан человек, сначала запрашивается
// подтверждение; отказ возвращает false без ошибки и не меняет состав.
func (e *Editor) RemoveEntry(ctx context.Context, index int) (bool, error) {
	e.mu.Lock()
	if err := e.checkEditableLocked(index); err != nil {
		e.mu.Unlock()
		return false, err
	}
	entry := e.roster[index].Clone()
	rev := e.revision
	e.mu.Unlock()

	if entry.HasMember() {
		ok, err := e.confirm.Confirm(ctx, entry)
		if err != nil {
			return false, fmt.Errorf("confirm removal: %w", err)
		}
		if !ok {
			e.log.Debug("member removal declined", slog.Int("index", index))
			return false, nil
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.revision != rev {
		return false, ErrRosterChanged
	}

	roster := make([]model.MemberEntry, 0, len(e.roster)-1)
	roster = append(roster, e.roster[:index]...)
	roster = append(roster, e.roster[index+1:]...)
	e.roster = roster
	e.dirty = true
	e.revision++
	e.editRev++

	if e.modal.Kind == ModalEdit {
		switch {
		case e.modal.Index == index:
			e.modal = noModal
		case e.modal.Index > index:
			e.modal.Index--
		}
	}
	return true, nil
}

// Valid сообщает, можно ли отправить текущий состав.
func (e *Editor) Valid() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Validate(e.roster)
}

// CanSubmit сообщает, доступна ли кнопка сохранения.
func (e *Editor) CanSubmit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitting || e.managedBy != nil {
		return false
	}
	if e.submitted && !e.dirty {
		return false
	}
	return Validate(e.roster)
}

// Submit отправляет состав в сервис участников, затем перечитывает снимок и
// обновляет текущего пользователя. Ошибки не возвращаются, а сохраняются в State.LastError.
// Пока предыдущая отправка не завершилась, вызов ничего не делает.
func (e *Editor) Submit(ctx context.Context) SubmitOutcome {
	e.mu.Lock()
	if e.submitting || e.managedBy != nil {
		e.mu.Unlock()
		return SubmitSkipped
	}
	if i := firstUnbound(e.roster); i >= 0 {
		e.lastErr = &ValidationError{Index: i}
		e.mu.Unlock()
		return SubmitInvalid
	}
	payload := BuildPayload(e.roster)
	rev := e.editRev
	e.submitting = true
	e.lastErr = nil
	e.mu.Unlock()

	snap, err := e.roundTrip(ctx, payload)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.submitting = false
	if err != nil {
		e.lastErr = err
		e.submitted = false
		e.log.Error("roster submit failed", slog.Any("err", err))
		return SubmitFailed
	}

	e.submitted = true
	if e.editRev == rev {
		e.dirty = false
		e.applyLocked(snap)
	} else {
		// Черновик правили во время отправки: правки сохраняем, снимок откладываем.
		s := snap
		e.base = &s
		e.pending = &s
	}
	e.log.Info("roster saved", slog.Int("entries", len(payload)))
	return SubmitSucceeded
}

func (e *Editor) roundTrip(ctx context.Context, payload []model.UpdateEntry) (model.RosterSnapshot, error) {
	if _, err := e.svc.UpdateRoster(ctx, e.collectiveID, payload); err != nil {
		return model.RosterSnapshot{}, &TransportError{Op: "update roster", Err: err}
	}
	snap, err := e.svc.FetchRoster(ctx, e.collectiveID)
	if err != nil {
		return model.RosterSnapshot{}, &TransportError{Op: "fetch roster", Err: err}
	}
	if e.users != nil {
		if err := e.users.RefreshCurrentUser(ctx); err != nil {
			return model.RosterSnapshot{}, &TransportError{Op: "refresh current user", Err: err}
		}
	}
	return snap, nil
}

// OpenModal открывает модальное окно. Для ModalEdit index указывает редактируемую запись.
// Ранее открытое окно закрывается.
func (e *Editor) OpenModal(kind ModalKind, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case ModalInvite:
		e.modal = Modal{Kind: ModalInvite, Index: -1}
	case ModalEdit:
		if index < 0 || index >= len(e.roster) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		e.modal = Modal{Kind: ModalEdit, Index: index}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidModal, kind)
	}
	return nil
}

// CloseModal закрывает модальное окно. Правки, сделанные в окне, уже в черновике.
func (e *Editor) CloseModal() {
	e.mu.Lock()
	e.modal = noModal
	e.mu.Unlock()
}

// ModalEntry возвращает запись, открытую в окне редактирования.
func (e *Editor) ModalEntry() (model.MemberEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.modal.Kind != ModalEdit || e.modal.Index < 0 || e.modal.Index >= len(e.roster) {
		return model.MemberEntry{}, false
	}
	return e.roster[e.modal.Index].Clone(), true
}

// IsLastAdmin сообщает, что запись является единственным сохранённым администратором.
// Такую запись нельзя удалять без предупреждения.
func (e *Editor) IsLastAdmin(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 0 || index >= len(e.roster) {
		return false
	}
	entry := e.roster[index]
	return entry.Role == model.RoleAdmin && entry.ID != "" && AdminCount(e.roster) == 1
}

// PickerQuery возвращает запрос для выбора человека: только пользователи,
// которых ещё нет в составе.
func (e *Editor) PickerQuery(text string) PickerQuery {
	e.mu.Lock()
	defer e.mu.Unlock()

	return PickerQuery{
		Text:    text,
		Type:    model.PersonTypeUser,
		Exclude: MemberIDs(e.roster),
	}
}
