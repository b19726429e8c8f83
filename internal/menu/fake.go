package menu

import (
	"context"

	"github.com/zach-source/bwrofi/internal/secret"
)

// Scripted answers menu calls from a script, for tests. Lists past the
// end of the script are aborted.
type Scripted struct {
	Picks    []Selection
	Password string
	// PromptAborted makes SecretPrompt return ErrAborted.
	PromptAborted bool

	Lists   [][]string
	Prompts []string
	Secrets int
	Errors  []string
}

func (s *Scripted) ShowList(ctx context.Context, labels []string, prompt string) (Selection, error) {
	s.Lists = append(s.Lists, append([]string(nil), labels...))
	s.Prompts = append(s.Prompts, prompt)
	if len(s.Picks) == 0 {
		return Selection{Aborted: true}, nil
	}
	pick := s.Picks[0]
	s.Picks = s.Picks[1:]
	return pick, nil
}

func (s *Scripted) SecretPrompt(ctx context.Context, prompt string) (*secret.Secret, error) {
	s.Secrets++
	if s.PromptAborted {
		return nil, ErrAborted
	}
	return secret.New(s.Password), nil
}

func (s *Scripted) ShowError(ctx context.Context, msg string) error {
	s.Errors = append(s.Errors, msg)
	return nil
}

// LastList returns the labels of the most recent list.
func (s *Scripted) LastList() []string {
	if len(s.Lists) == 0 {
		return nil
	}
	return s.Lists[len(s.Lists)-1]
}
