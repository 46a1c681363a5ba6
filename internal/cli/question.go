package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/surveykn/internal/dataroot"
	"github.com/roach88/surveykn/internal/engine"
	"github.com/roach88/surveykn/internal/ir"
	"github.com/roach88/surveykn/internal/prompt"
	"github.com/roach88/surveykn/internal/questions"
)

// QuestionList is the output of commands printing questions.
type QuestionList struct {
	Questions []questions.Question `json:"questions"`
	Remaining int                  `json:"remaining"`
}

func (l QuestionList) String() string {
	if len(l.Questions) == 0 {
		return "No questions."
	}
	lines := make([]string, len(l.Questions))
	for i, q := range l.Questions {
		lines[i] = fmt.Sprintf("%s : %s", q.ID, q.Current)
	}
	return strings.Join(lines, "\n")
}

// HistoryResult is the output of question history.
type HistoryResult struct {
	ID      ir.QuestionID     `json:"id"`
	Current string            `json:"current"`
	History []questions.Usage `json:"history"`
}

func (h HistoryResult) String() string {
	lines := []string{fmt.Sprintf("%s : %s", h.ID, h.Current)}
	if len(h.History) == 0 {
		lines = append(lines, "  (never used)")
	}
	for _, u := range h.History {
		lines = append(lines, fmt.Sprintf("  [%s] %s", u.Run, u.Wording))
	}
	return strings.Join(lines, "\n")
}

// ImportResult is the output of question import.
type ImportResult struct {
	Registered []questions.Question `json:"registered"`
	Skipped    []string             `json:"skipped"`
}

func (r ImportResult) String() string {
	lines := []string{fmt.Sprintf("Registered %d question(s), skipped %d already known.", len(r.Registered), len(r.Skipped))}
	for _, q := range r.Registered {
		lines = append(lines, fmt.Sprintf("%s : %s", q.ID, q.Current))
	}
	return strings.Join(lines, "\n")
}

// Message is a plain text result.
type Message struct {
	Text string `json:"message"`
}

func (m Message) String() string { return m.Text }

// NewQuestionCommand creates the question command group.
func NewQuestionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Inspect and maintain the question store",
		Long: `Inspect and maintain the question store of the data root.

Every question has a permanent three-letter identifier. Its current wording
can be edited; the wording used by each past run is kept as history. A
question with history can never be deleted.`,
	}

	cmd.AddCommand(newQuestionNewCommand(rootOpts))
	cmd.AddCommand(newQuestionImportCommand(rootOpts))
	cmd.AddCommand(newQuestionEditCommand(rootOpts))
	cmd.AddCommand(newQuestionDeleteLastCommand(rootOpts))
	cmd.AddCommand(newQuestionLastCommand(rootOpts))
	cmd.AddCommand(newQuestionListCommand(rootOpts))
	cmd.AddCommand(newQuestionHistoryCommand(rootOpts))
	cmd.AddCommand(newQuestionCopyCommand(rootOpts))
	return cmd
}

// storeOp reports its output and whether it changed the store.
type storeOp func(cmd *cobra.Command, args []string, s *questions.Store) (out any, changed bool, err error)

// storeCommand wraps a question store operation: it opens the data root,
// loads the store, runs fn and saves the store when fn reports a change.
func storeCommand(opts *RootOptions, fn storeOp) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		formatter := newFormatter(opts, cmd)
		root, err := openRoot(opts)
		if err != nil {
			return fail(formatter, "failed to open data root", err)
		}
		s, err := loadStore(root)
		if err != nil {
			return fail(formatter, "failed to load question store", err)
		}

		out, changed, err := fn(cmd, args, s)
		if err != nil {
			return fail(formatter, "question store unchanged", err)
		}
		if changed {
			if err := s.Save(root.QuestionStore()); err != nil {
				return fail(formatter, "failed to save question store", writeErr(err))
			}
			opts.logger().Debug("saved question store", zap.String("path", root.QuestionStore()),
				zap.Int("questions", s.Len()))
		}
		return formatter.Success(out)
	}
}

func newQuestionNewCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new <wording...>",
		Short: "Register a question",
		Example: `  surveykn question new "Do you like pizza?"
  surveykn question new Do you like pizza?`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: storeCommand(opts, func(_ *cobra.Command, args []string, s *questions.Store) (any, bool, error) {
			wording := ir.CanonicalWording(strings.Join(args, " "))
			if wording == "" {
				return nil, false, &LoadError{Code: ErrCodeInvalidArgs, Message: "wording is blank"}
			}
			id, err := s.Register(wording)
			if err != nil {
				return nil, false, err
			}
			opts.logger().Info("registered question", zap.String("id", string(id)), zap.String("wording", wording))
			return QuestionList{Questions: []questions.Question{question(s, id)}, Remaining: s.Remaining()}, true, nil
		}),
	}
}

func newQuestionImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Register every question of a text file, one per line",
		Long: `Register every question of a text file, one per line.

Blank lines and questions already registered are skipped. Either every new
question is registered or, if the store cannot hold them all, none is.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: storeCommand(opts, func(_ *cobra.Command, args []string, s *questions.Store) (any, bool, error) {
			wordings, err := readLines(args[0])
			if err != nil {
				return nil, false, err
			}
			known := s.ReverseLookup()
			result := ImportResult{Registered: []questions.Question{}, Skipped: []string{}}
			var fresh []string
			seen := make(map[string]bool)
			for _, w := range wordings {
				if _, ok := known[w]; ok || seen[w] {
					result.Skipped = append(result.Skipped, w)
					continue
				}
				seen[w] = true
				fresh = append(fresh, w)
			}
			if len(fresh) > s.Remaining() {
				return nil, false, engine.NewCapacityError(len(fresh), s.Remaining())
			}
			for _, w := range fresh {
				id, err := s.Register(w)
				if err != nil {
					return nil, false, err
				}
				result.Registered = append(result.Registered, question(s, id))
			}
			return result, len(fresh) > 0, nil
		}),
	}
}

func newQuestionEditCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <wording...>",
		Short: "Change the current wording of a question",
		Long: `Change the current wording of a question. The wordings recorded for past
runs are kept.`,
		Example:       `  surveykn question edit AAB "Do you like pineapple?"`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: storeCommand(opts, func(_ *cobra.Command, args []string, s *questions.Store) (any, bool, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, false, err
			}
			wording := ir.CanonicalWording(strings.Join(args[1:], " "))
			if wording == "" {
				return nil, false, &LoadError{Code: ErrCodeInvalidArgs, Message: "wording is blank"}
			}
			if err := s.Edit(id, wording); err != nil {
				return nil, false, err
			}
			return QuestionList{Questions: []questions.Question{question(s, id)}, Remaining: s.Remaining()}, true, nil
		}),
	}
}

func newQuestionDeleteLastCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-last",
		Short: "Remove the most recently registered question",
		Long: `Remove the most recently registered question and free its identifier.
A question used by any run cannot be removed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: storeCommand(opts, func(cmd *cobra.Command, _ []string, s *questions.Store) (any, bool, error) {
			last, ok := s.Last()
			if !ok {
				return Message{Text: "The question store is empty."}, false, nil
			}
			if len(last.History) > 0 {
				return nil, false, fmt.Errorf("%s: %w", last.ID, questions.ErrHasHistory)
			}
			if !yes {
				c := prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr())
				ok, err := c.Confirm(cmd.Context(), "Remove this question?", fmt.Sprintf("%s : %s", last.ID, last.Current))
				if err != nil {
					return nil, false, err
				}
				if !ok {
					return Message{Text: "Canceled, no question was removed."}, false, nil
				}
			}
			id, err := s.DeleteLast()
			if err != nil {
				return nil, false, err
			}
			return Message{Text: fmt.Sprintf("Removed %s : %s", id, last.Current)}, true, nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newQuestionLastCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "last",
		Short:         "Print the most recently registered question",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: storeCommand(opts, func(_ *cobra.Command, _ []string, s *questions.Store) (any, bool, error) {
			out := QuestionList{Questions: []questions.Question{}, Remaining: s.Remaining()}
			if last, ok := s.Last(); ok {
				out.Questions = append(out.Questions, last)
			}
			return out, false, nil
		}),
	}
}

func newQuestionListCommand(opts *RootOptions) *cobra.Command {
	var first, last int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print registered questions",
		Example: `  surveykn question list
  surveykn question list --first 10
  surveykn question list --last 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: storeCommand(opts, func(_ *cobra.Command, _ []string, s *questions.Store) (any, bool, error) {
			if first < 0 || last < 0 {
				return nil, false, &LoadError{Code: ErrCodeInvalidArgs, Message: "--first and --last must not be negative"}
			}
			qs := s.All()
			switch {
			case first > 0:
				qs = s.First(first)
			case last > 0:
				qs = s.LastN(last)
			}
			return QuestionList{Questions: qs, Remaining: s.Remaining()}, false, nil
		}),
	}
	cmd.Flags().IntVar(&first, "first", 0, "print only the first N questions")
	cmd.Flags().IntVar(&last, "last", 0, "print only the last N questions")
	cmd.MarkFlagsMutuallyExclusive("first", "last")
	return cmd
}

func newQuestionHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <id>",
		Short:         "Print the wording a question had in every run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: storeCommand(opts, func(_ *cobra.Command, args []string, s *questions.Store) (any, bool, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, false, err
			}
			history, err := s.History(id)
			if err != nil {
				return nil, false, err
			}
			current, _ := s.Wording(id)
			return HistoryResult{ID: id, Current: current, History: history}, false, nil
		}),
	}
}

func newQuestionCopyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "copy <destination>",
		Short:         "Write a copy of the question store",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: storeCommand(opts, func(_ *cobra.Command, args []string, s *questions.Store) (any, bool, error) {
			dst := args[0]
			if info, err := os.Stat(dst); err == nil && info.IsDir() {
				dst = dst + string(os.PathSeparator) + dataroot.QuestionStoreFile
			}
			if err := s.Save(dst); err != nil {
				return nil, false, writeErr(err)
			}
			return Message{Text: "Copied the question store to " + dst}, false, nil
		}),
	}
}

func parseID(s string) (ir.QuestionID, error) {
	id, err := ir.ParseQuestionID(strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return "", &LoadError{Code: ErrCodeInvalidArgs, Message: err.Error(), Err: err}
	}
	return id, nil
}

func question(s *questions.Store, id ir.QuestionID) questions.Question {
	e, _ := s.Get(id)
	return questions.Question{ID: id, Entry: e}
}

// readLines reads the canonical non-blank lines of a file.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := ir.CanonicalWording(strings.TrimPrefix(sc.Text(), "\uFEFF")); w != "" {
			out = append(out, w)
		}
	}
	return out, sc.Err()
}
