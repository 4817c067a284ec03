package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/exercise"
	"github.com/GoCodeAlone/exercise/analytics"
	"github.com/GoCodeAlone/exercise/i18n"
	"github.com/GoCodeAlone/exercise/media"
	"github.com/GoCodeAlone/exercise/schema"
	"github.com/GoCodeAlone/exercise/selection"
)

// ErrUnknownChoice is returned when a prompt answer matches no option.
var ErrUnknownChoice = errors.New("unknown choice")

// Actions offered between submissions.
const (
	actionAnswer = "Answer"
	actionHint   = "Show a hint"
	actionListen = "Listen to the options"
	actionQuit   = "Give up"
)

// NewPlayCommand creates the play command
func NewPlayCommand(opts *globalOptions) *cobra.Command {
	var (
		analyticsPath string
		showEvents    bool
	)
	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Play an exercise in the terminal",
		Long: `Load a definition and run it with interactive prompts. Media paths are
resolved relative to the definition file. Speech is printed as text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg, err := opts.runtimeConfig()
			if err != nil {
				return err
			}
			logger := opts.logger(cmd.ErrOrStderr())

			def, err := (&definitionChecker{legacy: true}).load(args[0])
			if err != nil {
				return err
			}

			sink, err := newAnalyticsSink(cfg.EventSource, analyticsPath, showEvents, cmd.ErrOrStderr(), logger)
			if err != nil {
				return err
			}
			if err := sink.Start(ctx); err != nil {
				return err
			}
			defer sink.Stop(context.Background())

			rt, err := newPlayRuntime(def, cfg, cmd.OutOrStdout(), logger, sink, filepath.Dir(args[0]))
			if err != nil {
				return err
			}
			defer rt.Destroy()
			if showEvents {
				if err := rt.Events().RegisterObserver(sink.Forwarder(def.ID)); err != nil {
					return err
				}
			}

			s := &playSession{rt: rt, prompter: surveyPrompter{io: SurveyStdio}, out: cmd.OutOrStdout()}
			return s.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&analyticsPath, "analytics-file", "", "Append analytics CloudEvents as JSON lines to this file")
	cmd.Flags().BoolVar(&showEvents, "events", false, "Print every runtime event to stderr")
	return cmd
}

func newAnalyticsSink(source, path string, console bool, errOut io.Writer, logger exercise.Logger) (*analytics.Sink, error) {
	var targets []analytics.OutputTarget
	if path != "" {
		t, err := analytics.NewFileTarget(path, "json", logger)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	if console {
		targets = append(targets, analytics.NewConsoleTarget(errOut, "text", logger))
	}
	return analytics.NewSink(source, logger, targets...), nil
}

func newPlayRuntime(def *exercise.Definition, cfg exercise.Config, out io.Writer, logger exercise.Logger, sink exercise.AnalyticsSink, mediaRoot string, extra ...exercise.RuntimeOption) (*exercise.Runtime, error) {
	bundle, err := i18n.Default()
	if err != nil {
		return nil, err
	}
	validator, err := schema.New()
	if err != nil {
		return nil, err
	}
	opts := []exercise.RuntimeOption{
		exercise.WithLogger(logger),
		exercise.WithSchemaValidator(validator),
		exercise.WithLocalizer(bundle.Localizer(cfg.Locale)),
		exercise.WithAnnouncer(&consoleAnnouncer{w: out}),
		exercise.WithAnalytics(sink),
		exercise.WithMediaLoader(media.NewFSLoader(os.DirFS(mediaRoot))),
		exercise.WithAudioSpeaker(&consoleSpeaker{w: out}),
	}
	return exercise.NewRuntime(def, cfg, selection.New(), append(opts, extra...)...)
}

// playSession drives a runtime from prompts until it completes.
type playSession struct {
	rt       *exercise.Runtime
	prompter Prompter
	out      io.Writer
}

func (s *playSession) Run(ctx context.Context) error {
	if err := s.rt.Initialize(ctx); err != nil {
		return err
	}
	s.rt.Start()

	for s.rt.Phase() == exercise.PhaseRunning {
		p := s.rt.Project()
		fmt.Fprintf(s.out, "\n%s\n", p.Question)
		if p.Instructions != "" {
			fmt.Fprintf(s.out, "%s\n", p.Instructions)
		}
		if st := s.rt.State(); st.TimeRemaining > 0 {
			fmt.Fprintf(s.out, "Time remaining: %s\n", st.TimeRemaining)
		}

		actions := []string{actionAnswer, actionHint, actionListen, actionQuit}
		i, err := s.prompter.Select("What next?", actions)
		if err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				s.rt.Complete()
				break
			}
			return err
		}

		switch actions[i] {
		case actionAnswer:
			if err := s.answer(ctx, p); err != nil {
				if errors.Is(err, terminal.InterruptErr) {
					s.rt.Complete()
					break
				}
				return err
			}
		case actionHint:
			if _, ok := s.rt.ShowHint(); !ok {
				fmt.Fprintln(s.out, "No more hints.")
			}
		case actionListen:
			if err := s.rt.PlayAll(ctx); err != nil {
				fmt.Fprintf(s.out, "Cannot play audio: %v\n", err)
			}
		case actionQuit:
			s.rt.Complete()
		}
	}

	s.printResults(s.rt.Results())
	return nil
}

func (s *playSession) answer(ctx context.Context, p exercise.Projection) error {
	labels := make([]string, len(p.Options))
	for i, o := range p.Options {
		labels[i] = fmt.Sprintf("%d. %s", i+1, o.Label)
	}

	var picked []int
	if p.SelectionMode == exercise.SelectionMultiple {
		limit := p.RequiredSelections
		if limit == 0 {
			limit = len(labels)
		}
		idx, err := s.prompter.MultiSelect(fmt.Sprintf("Pick up to %d", limit), labels, limit)
		if err != nil {
			return err
		}
		picked = idx
	} else {
		i, err := s.prompter.Select("Pick one", labels)
		if err != nil {
			return err
		}
		picked = []int{i}
	}

	ids := make([]string, 0, len(picked))
	for _, i := range picked {
		ids = append(ids, p.Options[i].ID)
	}
	sub := s.rt.SubmitAnswer(ctx, selection.NewAnswer(ids...))
	if sub == nil {
		fmt.Fprintln(s.out, "The answer was not accepted.")
		return nil
	}
	fmt.Fprintf(s.out, "Attempt %d: score %.0f\n", sub.Attempt, sub.Score)
	return nil
}

func (s *playSession) printResults(r exercise.Results) {
	fmt.Fprintf(s.out, "\nResult for %s: score %.0f, accuracy %.0f%%, %d attempt(s), %d hint(s), %s\n",
		r.ExerciseID, r.Score, r.Accuracy, r.Attempts, r.HintsUsed, r.TotalTime)
	if r.TimeUp {
		fmt.Fprintln(s.out, "Time ran out.")
	}
}
