package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"team-roster-service/internal/auth"
	"team-roster-service/internal/editor"
	"team-roster-service/internal/model"
)

const dateLayout = "2006-01-02"

// lastAdminMessage совпадает с ответом сервиса на удаление последнего администратора.
const lastAdminMessage = "The last admin cannot be removed. Please add another admin first."

func withTimeout(cmd *cobra.Command, flags *globalFlags) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), flags.timeout)
}

func showCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the team roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, flags)
			defer cancel()

			s, err := openSession(ctx, cmd, flags, nil)
			if err != nil {
				return err
			}
			printRoster(cmd.OutOrStdout(), s.editor.State())
			return nil
		},
	}
}

type entryFlags struct {
	role        string
	description string
	since       string
}

func (f *entryFlags) bind(cmd *cobra.Command, defaultRole string) {
	cmd.Flags().StringVar(&f.role, "role", defaultRole, "role: ADMIN, MEMBER or ACCOUNTANT")
	cmd.Flags().StringVar(&f.description, "description", "", "role description")
	cmd.Flags().StringVar(&f.since, "since", "", "membership start date (YYYY-MM-DD)")
}

// apply переносит заданные флаги в запись index.
func (f *entryFlags) apply(cmd *cobra.Command, ed *editor.Editor, index int) error {
	if cmd.Flags().Changed("role") || f.role != "" {
		if err := ed.EditField(index, editor.FieldRole, strings.ToUpper(f.role)); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("description") {
		if err := ed.EditField(index, editor.FieldDescription, f.description); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("since") {
		since, err := time.Parse(dateLayout, f.since)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		if err := ed.EditField(index, editor.FieldSince, since); err != nil {
			return err
		}
	}
	return nil
}

func addCommand(flags *globalFlags) *cobra.Command {
	var (
		personID string
		email    string
		name     string
		entry    entryFlags
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a person to the team or invite them by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (personID == "") == (email == "") {
				return errors.New("exactly one of --person or --email is required")
			}

			ctx, cancel := withTimeout(cmd, flags)
			defer cancel()

			s, err := openSession(ctx, cmd, flags, nil)
			if err != nil {
				return err
			}
			ed := s.editor

			if err := ed.OpenModal(editor.ModalInvite, -1); err != nil {
				return err
			}
			defer ed.CloseModal()

			// Пустая заготовка из пустого состава занимает первую строку.
			index := placeholderIndex(ed.State().Roster)
			if index < 0 {
				if index, err = ed.AddEntry(); err != nil {
					return err
				}
			}

			person := model.Person{ID: personID, Name: name, Email: email, Type: model.PersonTypeUser}
			if err := ed.EditField(index, editor.FieldMember, person); err != nil {
				return err
			}
			if err := entry.apply(cmd, ed, index); err != nil {
				return err
			}
			return submit(ctx, cmd.OutOrStdout(), ed)
		},
	}
	cmd.Flags().StringVar(&personID, "person", "", "id of an existing person")
	cmd.Flags().StringVar(&email, "email", "", "email of the person to invite")
	cmd.Flags().StringVar(&name, "name", "", "name for a new person invited by email")
	entry.bind(cmd, string(model.DefaultRole))
	return cmd
}

func setCommand(flags *globalFlags) *cobra.Command {
	var (
		index int
		entry entryFlags
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change role, description or start date of a roster entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, flags)
			defer cancel()

			s, err := openSession(ctx, cmd, flags, nil)
			if err != nil {
				return err
			}
			ed := s.editor

			if err := ed.OpenModal(editor.ModalEdit, index); err != nil {
				return err
			}
			defer ed.CloseModal()

			if err := entry.apply(cmd, ed, index); err != nil {
				return err
			}
			if !ed.State().IsDirty {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to change")
				return nil
			}
			return submit(ctx, cmd.OutOrStdout(), ed)
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "roster entry index (see show)")
	_ = cmd.MarkFlagRequired("index")
	entry.bind(cmd, "")
	return cmd
}

func removeCommand(flags *globalFlags) *cobra.Command {
	var (
		index int
		yes   bool
	)
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an entry from the team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, flags)
			defer cancel()

			var confirm editor.Confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirm = editor.ConfirmFunc(func(context.Context, model.MemberEntry) (bool, error) { return true, nil })
			}

			s, err := openSession(ctx, cmd, flags, confirm)
			if err != nil {
				return err
			}
			ed := s.editor

			if ed.IsLastAdmin(index) {
				return errors.New(lastAdminMessage)
			}

			removed, err := ed.RemoveEntry(ctx, index)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
			return submit(ctx, cmd.OutOrStdout(), ed)
		},
	}
	cmd.Flags().IntVar(&index, "index", -1, "roster entry index (see show)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}

func searchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Search people who can be added to the team",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, flags)
			defer cancel()

			s, err := openSession(ctx, cmd, flags, nil)
			if err != nil {
				return err
			}

			text := ""
			if len(args) > 0 {
				text = args[0]
			}
			people, err := s.client.SearchPeople(ctx, s.editor.PickerQuery(text))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(people) == 0 {
				fmt.Fprintln(out, "No people found.")
				return nil
			}
			for _, p := range people {
				fmt.Fprintf(out, "%-36s  %-24s  %s\n", p.ID, p.Name, p.Email)
			}
			return nil
		},
	}
}

func tokenCommand() *cobra.Command {
	var (
		subject string
		secret  string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or ROSTER_JWT_SECRET is required")
			}
			token, err := auth.NewTokens(secret).Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "user id")
	cmd.Flags().StringVar(&secret, "secret", envOr("ROSTER_JWT_SECRET", ""), "signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

// submit отправляет черновик и переводит исход в сообщение или ошибку.
func submit(ctx context.Context, out io.Writer, ed *editor.Editor) error {
	outcome := ed.Submit(ctx)
	st := ed.State()

	switch outcome {
	case editor.SubmitSucceeded:
		fmt.Fprintln(out, "Saved.")
		printRoster(out, st)
		return nil
	case editor.SubmitSkipped:
		if st.ManagedBy != nil {
			return fmt.Errorf("team members are defined in the settings of %s", st.ManagedBy.Name)
		}
		return errors.New("a submission is already in progress")
	case editor.SubmitFailed:
		var te *editor.TransportError
		if errors.As(st.LastError, &te) {
			return errors.New(te.Message())
		}
		return st.LastError
	default:
		return st.LastError
	}
}

func placeholderIndex(roster []model.MemberEntry) int {
	if len(roster) == 1 && !roster[0].HasMember() && roster[0].ID == "" {
		return 0
	}
	return -1
}

func printRoster(out io.Writer, st editor.State) {
	if st.ManagedBy != nil {
		fmt.Fprintf(out, "Team members are defined in the settings of %s (%s).\n", st.ManagedBy.Name, st.ManagedBy.Slug)
	}
	fmt.Fprintf(out, "%-3s  %-10s  %-10s  %-24s  %-10s  %s\n", "#", "STATUS", "ROLE", "MEMBER", "SINCE", "DESCRIPTION")
	for i, e := range st.Roster {
		status := "member"
		if e.Kind == model.KindInvitation {
			status = "invited"
		}
		member := "-"
		if e.Member != nil {
			member = e.Member.Name
			if member == "" {
				member = e.Member.Email
			}
		}
		since := "-"
		if e.Since != nil {
			since = e.Since.Format(dateLayout)
		}
		fmt.Fprintf(out, "%-3d  %-10s  %-10s  %-24s  %-10s  %s\n", i, status, e.Role, member, since, e.Description)
	}
}
