package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/exercise"
	"github.com/GoCodeAlone/exercise/feeders"
	"github.com/GoCodeAlone/exercise/schema"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-validate definitions whenever they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := schema.New()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			w := &definitionWatcher{
				dir:     args[0],
				out:     cmd.OutOrStdout(),
				checker: &definitionChecker{validator: v, legacy: true},
				logger:  opts.logger(cmd.ErrOrStderr()),
			}
			return w.Run(ctx)
		},
	}
	return cmd
}

// definitionWatcher validates every definition in dir once, then again on
// each write or create.
type definitionWatcher struct {
	dir     string
	out     io.Writer
	checker *definitionChecker
	logger  exercise.Logger

	// ready, when set, is closed once the watcher is registered.
	ready chan struct{}
}

func (w *definitionWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && isDefinitionFile(e.Name()) {
			w.checker.check(ctx, w.out, filepath.Join(w.dir, e.Name()))
		}
	}
	if w.ready != nil {
		close(w.ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if !isDefinitionFile(ev.Name) {
				continue
			}
			w.checker.check(ctx, w.out, ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", "dir", w.dir, "error", err)
		}
	}
}

func isDefinitionFile(name string) bool {
	_, err := feeders.FormatForPath(name)
	return err == nil
}
