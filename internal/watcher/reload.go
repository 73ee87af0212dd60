package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/bindcfg/internal/logging"
	"github.com/conneroisu/bindcfg/internal/persist"
)

// Reloader re-loads a profile through the persistence bridge whenever its
// file under the configs directory changes on disk, so externally edited
// profiles propagate to every bound field.
type Reloader struct {
	bridge  *persist.Bridge
	watcher *FileWatcher
	logger  logging.Logger
}

// NewReloader creates a reloader over the bridge's configs directory.
func NewReloader(bridge *persist.Bridge, debounce time.Duration, logger logging.Logger) (*Reloader, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	fw, err := NewFileWatcher(debounce, logger)
	if err != nil {
		return nil, err
	}

	fw.AddFilter(JSONFilter)
	fw.AddFilter(NoTempFilter)
	fw.AddFilter(NoHiddenFilter)

	r := &Reloader{
		bridge:  bridge,
		watcher: fw,
		logger:  logger.WithComponent("reloader"),
	}

	fw.AddHandler(r.handle)

	return r, nil
}

// Start begins watching the configs directory. The directory must exist;
// callers create it (the bridge does so on first save).
func (r *Reloader) Start(ctx context.Context) error {
	if err := r.watcher.AddPath(r.bridge.Dir()); err != nil {
		return err
	}
	return r.watcher.Start(ctx)
}

// Stop stops the underlying watcher.
func (r *Reloader) Stop() error {
	return r.watcher.Stop()
}

func (r *Reloader) handle(events []ChangeEvent) error {
	ctx := context.Background()
	for _, event := range events {
		if event.Type == EventTypeDeleted {
			continue
		}

		id := profileID(event.Path)
		if id == "" {
			continue
		}

		r.logger.Info(ctx, "profile changed on disk", "id", id, "event", event.Type.String())
		if err := r.bridge.Load(ctx, id); err != nil {
			r.logger.Error(ctx, err, "reload failed", "id", id)
		}
	}
	return nil
}

// profileID extracts the profile id from a configs file path.
func profileID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".json")
}
