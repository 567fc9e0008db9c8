package editor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"team-roster-service/internal/editor"
	"team-roster-service/internal/editor/mocks"
	"team-roster-service/internal/model"
)

const collectiveID = "c1"

func newEditor(t *testing.T, snap model.RosterSnapshot) (*editor.Editor, *mocks.MembershipService, *mocks.Confirmer, *mocks.UserRefresher) {
	t.Helper()

	svc := new(mocks.MembershipService)
	confirm := new(mocks.Confirmer)
	users := new(mocks.UserRefresher)

	ed := editor.New(collectiveID, svc, confirm, editor.WithUserRefresher(users))
	require.True(t, ed.LoadSnapshot(snap))
	return ed, svc, confirm, users
}

func adminSnapshot() model.RosterSnapshot {
	return model.RosterSnapshot{
		CollectiveID: collectiveID,
		ConfirmedMembers: []model.MemberEntry{
			{ID: "1", Role: model.RoleAdmin, Member: person("u1")},
		},
	}
}

func TestEditor_Load(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(mocks.MembershipService)
		svc.On("FetchRoster", mock.Anything, collectiveID).Return(adminSnapshot(), nil)

		ed := editor.New(collectiveID, svc, nil)
		require.NoError(t, ed.Load(context.Background()))

		st := ed.State()
		require.Len(t, st.Roster, 1)
		assert.False(t, st.IsDirty)
		svc.AssertExpectations(t)
	})

	t.Run("Transport error is kept in state", func(t *testing.T) {
		svc := new(mocks.MembershipService)
		svc.On("FetchRoster", mock.Anything, collectiveID).Return(model.RosterSnapshot{}, errors.New("connection refused"))

		ed := editor.New(collectiveID, svc, nil)
		err := ed.Load(context.Background())

		var terr *editor.TransportError
		require.ErrorAs(t, err, &terr)
		assert.ErrorAs(t, ed.State().LastError, &terr)
	})
}

func TestEditor_AddEntry(t *testing.T) {
	ed, _, _, _ := newEditor(t, adminSnapshot())
	before := ed.State()

	idx, err := ed.AddEntry()
	require.NoError(t, err)

	after := ed.State()
	assert.Equal(t, len(before.Roster), idx)
	assert.Len(t, after.Roster, len(before.Roster)+1)
	assert.Equal(t, model.RoleAdmin, after.Roster[idx].Role)
	assert.False(t, after.Roster[idx].HasMember())
	assert.True(t, after.IsDirty)
	assert.False(t, ed.Valid())
}

func TestEditor_RemoveEntry(t *testing.T) {
	t.Run("Declined confirmation leaves roster unchanged", func(t *testing.T) {
		ed, _, confirm, _ := newEditor(t, adminSnapshot())
		confirm.On("Confirm", mock.Anything, mock.MatchedBy(func(e model.MemberEntry) bool {
			return e.Member != nil && e.Member.ID == "u1"
		})).Return(false, nil).Once()

		before := ed.State()
		removed, err := ed.RemoveEntry(context.Background(), 0)

		require.NoError(t, err)
		assert.False(t, removed)
		after := ed.State()
		assert.Equal(t, before.Roster, after.Roster)
		assert.False(t, after.IsDirty)
		confirm.AssertExpectations(t)
	})

	t.Run("Accepted confirmation removes entry", func(t *testing.T) {
		ed, _, confirm, _ := newEditor(t, adminSnapshot())
		confirm.On("Confirm", mock.Anything, mock.Anything).Return(true, nil).Once()

		removed, err := ed.RemoveEntry(context.Background(), 0)

		require.NoError(t, err)
		assert.True(t, removed)
		st := ed.State()
		assert.Empty(t, st.Roster)
		assert.True(t, st.IsDirty)
	})

	t.Run("Unbound entry is removed without confirmation", func(t *testing.T) {
		ed, _, confirm, _ := newEditor(t, adminSnapshot())
		idx, err := ed.AddEntry()
		require.NoError(t, err)

		removed, err := ed.RemoveEntry(context.Background(), idx)

		require.NoError(t, err)
		assert.True(t, removed)
		assert.Len(t, ed.State().Roster, 1)
		confirm.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	})

	t.Run("Index out of range", func(t *testing.T) {
		ed, _, _, _ := newEditor(t, adminSnapshot())

		_, err := ed.RemoveEntry(context.Background(), 5)
		assert.ErrorIs(t, err, editor.ErrIndexOutOfRange)
	})

	t.Run("Roster changed while confirming", func(t *testing.T) {
		ed, _, confirm, _ := newEditor(t, adminSnapshot())
		confirm.On("Confirm", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) {
				_, _ = ed.AddEntry()
			}).
			Return(true, nil).Once()

		removed, err := ed.RemoveEntry(context.Background(), 0)

		assert.False(t, removed)
		assert.ErrorIs(t, err, editor.ErrRosterChanged)
		assert.Len(t, ed.State().Roster, 2)
	})

	t.Run("Nil confirmer declines", func(t *testing.T) {
		ed := editor.New(collectiveID, new(mocks.MembershipService), nil)
		ed.LoadSnapshot(adminSnapshot())

		removed, err := ed.RemoveEntry(context.Background(), 0)

		require.NoError(t, err)
		assert.False(t, removed)
		assert.Len(t, ed.State().Roster, 1)
	})
}

func TestEditor_EditField(t *testing.T) {
	since := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := model.RosterSnapshot{
		ConfirmedMembers: []model.MemberEntry{
			{ID: "1", Role: model.RoleAdmin, Description: "Founder", Since: &since, Member: person("u1")},
			{ID: "2", Role: model.RoleAdmin, Member: person("u2")},
		},
	}

	t.Run("Role change touches only that field", func(t *testing.T) {
		ed, _, _, _ := newEditor(t, snap)
		before := ed.State()

		require.NoError(t, ed.EditField(0, editor.FieldRole, "MEMBER"))

		after := ed.State()
		assert.Equal(t, model.RoleMember, after.Roster[0].Role)
		assert.Equal(t, before.Roster[1], after.Roster[1])

		expected := before.Roster[0]
		expected.Role = model.RoleMember
		assert.Equal(t, expected, after.Roster[0])

		// ранее полученный State не меняется
		assert.Equal(t, model.RoleAdmin, before.Roster[0].Role)
		assert.True(t, after.IsDirty)
	})

	t.Run("Member and since", func(t *testing.T) {
		ed, _, _, _ := newEditor(t, snap)
		idx, err := ed.AddEntry()
		require.NoError(t, err)

		p := model.Person{ID: "u3", Name: "Carol"}
		require.NoError(t, ed.EditField(idx, editor.FieldMember, p))
		require.NoError(t, ed.EditField(idx, editor.FieldSince, since))
		require.NoError(t, ed.EditField(idx, editor.FieldDescription, "Treasurer"))

		p.Name = "mutated after edit"
		entry := ed.State().Roster[idx]
		assert.Equal(t, "Carol", entry.Member.Name)
		assert.Equal(t, since, *entry.Since)
		assert.Equal(t, "Treasurer", entry.Description)
		assert.True(t, ed.Valid())
	})

	tests := []struct {
		name    string
		index   int
		field   editor.Field
		value   any
		wantErr error
	}{
		{name: "Out of range", index: 2, field: editor.FieldRole, value: "MEMBER", wantErr: editor.ErrIndexOutOfRange},
		{name: "Negative index", index: -1, field: editor.FieldRole, value: "MEMBER", wantErr: editor.ErrIndexOutOfRange},
		{name: "Unknown role", index: 0, field: editor.FieldRole, value: "OWNER", wantErr: editor.ErrInvalidField},
		{name: "Role of wrong type", index: 0, field: editor.FieldRole, value: 42, wantErr: editor.ErrInvalidField},
		{name: "Description too long", index: 0, field: editor.FieldDescription, value: string(make([]rune, 256)), wantErr: editor.ErrInvalidField},
		{name: "Since of wrong type", index: 0, field: editor.FieldSince, value: "2021-01-01", wantErr: editor.ErrInvalidField},
		{name: "Unknown field", index: 0, field: editor.Field("email"), value: "x", wantErr: editor.ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed, _, _, _ := newEditor(t, snap)

			err := ed.EditField(tt.index, tt.field, tt.value)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, ed.State().IsDirty)
		})
	}
}

func TestEditor_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Unbound entry never reaches the service", func(t *testing.T) {
		ed, svc, _, _ := newEditor(t, model.RosterSnapshot{CollectiveID: collectiveID})

		outcome := ed.Submit(ctx)

		assert.Equal(t, editor.SubmitInvalid, outcome)
		var verr *editor.ValidationError
		require.ErrorAs(t, ed.State().LastError, &verr)
		assert.Equal(t, 0, verr.Index)
		svc.AssertNotCalled(t, "UpdateRoster", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success refetches and refreshes the user", func(t *testing.T) {
		ed, svc, _, users := newEditor(t, adminSnapshot())
		require.NoError(t, ed.EditField(0, editor.FieldDescription, "Lead"))

		refreshed := adminSnapshot()
		refreshed.ConfirmedMembers[0].Description = "Lead"

		expectedPayload := []model.UpdateEntry{{
			ID:          "1",
			Role:        model.RoleAdmin,
			Description: "Lead",
			Member:      model.UpdatePerson{ID: "u1", Name: "Person u1", Email: "u1@example.com"},
		}}
		svc.On("UpdateRoster", mock.Anything, collectiveID, expectedPayload).Return(refreshed, nil).Once()
		svc.On("FetchRoster", mock.Anything, collectiveID).Return(refreshed, nil).Once()
		users.On("RefreshCurrentUser", mock.Anything).Return(nil).Once()

		outcome := ed.Submit(ctx)

		assert.Equal(t, editor.SubmitSucceeded, outcome)
		st := ed.State()
		assert.False(t, st.IsDirty)
		assert.False(t, st.IsSubmitting)
		assert.True(t, st.IsSubmitted)
		assert.NoError(t, st.LastError)
		assert.Equal(t, "Lead", st.Roster[0].Description)
		assert.False(t, ed.CanSubmit())
		svc.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("Service failure keeps the draft", func(t *testing.T) {
		ed, svc, _, users := newEditor(t, adminSnapshot())
		require.NoError(t, ed.EditField(0, editor.FieldRole, model.RoleAccountant))
		before := ed.State()

		svc.On("UpdateRoster", mock.Anything, collectiveID, mock.Anything).
			Return(model.RosterSnapshot{}, errors.New("The last admin cannot be removed. Please add another admin first.")).Once()

		outcome := ed.Submit(ctx)

		assert.Equal(t, editor.SubmitFailed, outcome)
		st := ed.State()
		assert.Equal(t, before.Roster, st.Roster)
		assert.True(t, st.IsDirty)
		assert.False(t, st.IsSubmitting)
		assert.False(t, st.IsSubmitted)

		var terr *editor.TransportError
		require.ErrorAs(t, st.LastError, &terr)
		assert.Equal(t, "The last admin cannot be removed. Please add another admin first.", terr.Message())
		svc.AssertNotCalled(t, "FetchRoster", mock.Anything, mock.Anything)
		users.AssertNotCalled(t, "RefreshCurrentUser", mock.Anything)
		assert.True(t, ed.CanSubmit())
	})

	t.Run("Second submit while in flight sends nothing", func(t *testing.T) {
		ed, svc, _, users := newEditor(t, adminSnapshot())

		started := make(chan struct{})
		release := make(chan struct{})
		svc.On("UpdateRoster", mock.Anything, collectiveID, mock.Anything).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(adminSnapshot(), nil).Once()
		svc.On("FetchRoster", mock.Anything, collectiveID).Return(adminSnapshot(), nil).Once()
		users.On("RefreshCurrentUser", mock.Anything).Return(nil).Once()

		done := make(chan editor.SubmitOutcome, 1)
		go func() {
			done <- ed.Submit(ctx)
		}()

		<-started
		assert.True(t, ed.State().IsSubmitting)
		assert.False(t, ed.CanSubmit())
		assert.Equal(t, editor.SubmitSkipped, ed.Submit(ctx))

		close(release)
		assert.Equal(t, editor.SubmitSucceeded, <-done)
		svc.AssertNumberOfCalls(t, "UpdateRoster", 1)
	})

	t.Run("Edits during submit stay in the draft", func(t *testing.T) {
		ed, svc, _, users := newEditor(t, adminSnapshot())

		svc.On("UpdateRoster", mock.Anything, collectiveID, mock.Anything).
			Run(func(mock.Arguments) {
				_, _ = ed.AddEntry()
			}).
			Return(adminSnapshot(), nil).Once()
		svc.On("FetchRoster", mock.Anything, collectiveID).Return(adminSnapshot(), nil).Once()
		users.On("RefreshCurrentUser", mock.Anything).Return(nil).Once()

		assert.Equal(t, editor.SubmitSucceeded, ed.Submit(ctx))

		st := ed.State()
		assert.Len(t, st.Roster, 2)
		assert.True(t, st.IsDirty)
		assert.True(t, st.HasStaleSnapshot)
	})

	t.Run("External reload during submit does not hold back the saved snapshot", func(t *testing.T) {
		ed, svc, _, users := newEditor(t, adminSnapshot())

		external := adminSnapshot()
		external.ConfirmedMembers[0].Description = "external"
		saved := adminSnapshot()
		saved.ConfirmedMembers[0].Description = "saved"

		svc.On("UpdateRoster", mock.Anything, collectiveID, mock.Anything).
			Run(func(mock.Arguments) {
				assert.True(t, ed.LoadSnapshot(external))
			}).
			Return(saved, nil).Once()
		svc.On("FetchRoster", mock.Anything, collectiveID).Return(saved, nil).Once()
		users.On("RefreshCurrentUser", mock.Anything).Return(nil).Once()

		assert.Equal(t, editor.SubmitSucceeded, ed.Submit(ctx))

		st := ed.State()
		assert.Equal(t, editor.MergeRoster(saved), st.Roster)
		assert.False(t, st.IsDirty)
		assert.False(t, st.HasStaleSnapshot)
	})

	t.Run("Failed retry clears the submitted flag", func(t *testing.T) {
		ed, svc, _, users := newEditor(t, adminSnapshot())

		svc.On("UpdateRoster", mock.Anything, collectiveID, mock.Anything).Return(adminSnapshot(), nil).Once()
		svc.On("FetchRoster", mock.Anything, collectiveID).Return(adminSnapshot(), nil).Once()
		users.On("RefreshCurrentUser", mock.Anything).Return(nil).Once()
		require.Equal(t, editor.SubmitSucceeded, ed.Submit(ctx))
		require.True(t, ed.State().IsSubmitted)

		require.NoError(t, ed.EditField(0, editor.FieldDescription, "retry"))
		svc.On("UpdateRoster", mock.Anything, collectiveID, mock.Anything).
			Return(model.RosterSnapshot{}, errors.New("unavailable")).Once()

		assert.Equal(t, editor.SubmitFailed, ed.Submit(ctx))

		st := ed.State()
		assert.False(t, st.IsSubmitted)
		assert.Error(t, st.LastError)
		assert.True(t, st.IsDirty)
		assert.True(t, ed.CanSubmit())
	})

	t.Run("Refresh failure is reported", func(t *testing.T) {
		ed, svc, _, users := newEditor(t, adminSnapshot())

		svc.On("UpdateRoster", mock.Anything, collectiveID, mock.Anything).Return(adminSnapshot(), nil).Once()
		svc.On("FetchRoster", mock.Anything, collectiveID).Return(adminSnapshot(), nil).Once()
		users.On("RefreshCurrentUser", mock.Anything).Return(errors.New("unauthorized")).Once()

		assert.Equal(t, editor.SubmitFailed, ed.Submit(ctx))

		var terr *editor.TransportError
		require.ErrorAs(t, ed.State().LastError, &terr)
		assert.Equal(t, "refresh current user", terr.Op)
	})
}

func TestEditor_LoadSnapshotWhileDirty(t *testing.T) {
	ed, _, _, _ := newEditor(t, adminSnapshot())
	require.NoError(t, ed.EditField(0, editor.FieldDescription, "draft"))

	external := adminSnapshot()
	external.ConfirmedMembers = append(external.ConfirmedMembers, model.MemberEntry{ID: "2", Role: model.RoleMember, Member: person("u2")})

	applied := ed.LoadSnapshot(external)

	assert.False(t, applied)
	st := ed.State()
	assert.True(t, st.HasStaleSnapshot)
	assert.Equal(t, "draft", st.Roster[0].Description)
	assert.Len(t, st.Roster, 1)

	ed.DiscardChanges()

	st = ed.State()
	assert.False(t, st.IsDirty)
	assert.False(t, st.HasStaleSnapshot)
	assert.Len(t, st.Roster, 2)
	assert.Empty(t, st.Roster[0].Description)
}

func TestEditor_ManagedByParent(t *testing.T) {
	snap := adminSnapshot()
	snap.ParentCollective = &model.CollectiveRef{ID: "p1", Slug: "parent", Name: "Parent"}

	ed, svc, _, _ := newEditor(t, snap)

	st := ed.State()
	require.NotNil(t, st.ManagedBy)
	assert.Equal(t, "parent", st.ManagedBy.Slug)

	_, err := ed.AddEntry()
	assert.ErrorIs(t, err, editor.ErrManagedByParent)
	assert.ErrorIs(t, ed.EditField(0, editor.FieldRole, "MEMBER"), editor.ErrManagedByParent)
	_, err = ed.RemoveEntry(context.Background(), 0)
	assert.ErrorIs(t, err, editor.ErrManagedByParent)

	assert.Equal(t, editor.SubmitSkipped, ed.Submit(context.Background()))
	assert.False(t, ed.CanSubmit())
	svc.AssertNotCalled(t, "UpdateRoster", mock.Anything, mock.Anything, mock.Anything)
}

func TestEditor_IsLastAdmin(t *testing.T) {
	snap := model.RosterSnapshot{
		ConfirmedMembers: []model.MemberEntry{
			{ID: "1", Role: model.RoleAdmin, Member: person("u1")},
			{ID: "2", Role: model.RoleMember, Member: person("u2")},
		},
		PendingInvitations: []model.MemberEntry{
			{ID: "inv", Role: model.RoleAdmin, Member: person("u3")},
		},
	}
	ed, _, _, _ := newEditor(t, snap)

	assert.True(t, ed.IsLastAdmin(0))
	assert.False(t, ed.IsLastAdmin(1))
	assert.False(t, ed.IsLastAdmin(2), "pending invitation is not persisted")
	assert.False(t, ed.IsLastAdmin(9))

	require.NoError(t, ed.EditField(1, editor.FieldRole, model.RoleAdmin))
	assert.False(t, ed.IsLastAdmin(0))
}

func TestEditor_PickerQuery(t *testing.T) {
	ed, _, _, _ := newEditor(t, adminSnapshot())
	_, err := ed.AddEntry()
	require.NoError(t, err)

	q := ed.PickerQuery("ali")

	assert.Equal(t, editor.PickerQuery{Text: "ali", Type: model.PersonTypeUser, Exclude: []string{"u1"}}, q)
}

func TestEditor_Modal(t *testing.T) {
	ed, _, confirm, _ := newEditor(t, model.RosterSnapshot{
		ConfirmedMembers: []model.MemberEntry{
			{ID: "1", Role: model.RoleAdmin, Member: person("u1")},
			{ID: "2", Role: model.RoleMember, Member: person("u2")},
		},
	})

	require.NoError(t, ed.OpenModal(editor.ModalEdit, 1))
	entry, ok := ed.ModalEntry()
	require.True(t, ok)
	assert.Equal(t, "u2", entry.Member.ID)

	// правка в окне сразу попадает в черновик
	require.NoError(t, ed.EditField(1, editor.FieldDescription, "Designer"))
	ed.CloseModal()
	assert.Equal(t, editor.ModalNone, ed.State().ActiveModal.Kind)
	assert.Equal(t, "Designer", ed.State().Roster[1].Description)

	require.NoError(t, ed.OpenModal(editor.ModalEdit, 1))
	require.NoError(t, ed.OpenModal(editor.ModalInvite, 0))
	assert.Equal(t, editor.Modal{Kind: editor.ModalInvite, Index: -1}, ed.State().ActiveModal)

	assert.ErrorIs(t, ed.OpenModal(editor.ModalEdit, 7), editor.ErrIndexOutOfRange)
	assert.ErrorIs(t, ed.OpenModal("picker", 0), editor.ErrInvalidModal)

	// удаление записи перед открытой сдвигает индекс окна
	require.NoError(t, ed.OpenModal(editor.ModalEdit, 1))
	confirm.On("Confirm", mock.Anything, mock.Anything).Return(true, nil).Once()
	removed, err := ed.RemoveEntry(context.Background(), 0)
	require.NoError(t, err)
	require.True(t, removed)
	assert.Equal(t, editor.Modal{Kind: editor.ModalEdit, Index: 0}, ed.State().ActiveModal)
}
