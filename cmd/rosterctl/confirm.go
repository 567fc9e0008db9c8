package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"team-roster-service/internal/model"
)

// promptConfirmer спрашивает подтверждение удаления в терминале.
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out}
}

func (p *promptConfirmer) Confirm(ctx context.Context, entry model.MemberEntry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	name := "this member"
	if entry.Member != nil && entry.Member.Name != "" {
		name = entry.Member.Name
	}
	fmt.Fprintf(p.out, "Remove %s from the team? [y/N] ", name)

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
