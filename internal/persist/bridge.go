package persist

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/conneroisu/bindcfg/internal/broker"
	"github.com/conneroisu/bindcfg/internal/errors"
	"github.com/conneroisu/bindcfg/internal/logging"
)

// DefaultDir is the directory profiles are stored under when none is
// configured.
const DefaultDir = "configs"

// Bridge orchestrates save and load between the broker's store and the
// configs directory. Load always re-publishes every stored entry so all
// currently bound fields resynchronize, whether or not the value changed.
type Bridge struct {
	dir    string
	codec  *Codec
	broker *broker.Broker
	logger logging.Logger
}

// NewBridge creates a bridge storing profiles under dir. An empty dir
// means DefaultDir. A nil logger disables logging.
func NewBridge(dir string, b *broker.Broker, logger logging.Logger) *Bridge {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &Bridge{
		dir:    dir,
		codec:  NewCodec(),
		broker: b,
		logger: logger.WithComponent("persist"),
	}
}

// Dir returns the configs directory.
func (br *Bridge) Dir() string {
	return br.dir
}

// Path returns the file path for a profile id, rejecting ids that would
// escape the configs directory.
func (br *Bridge) Path(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	return filepath.Join(br.dir, id+".json"), nil
}

// validateID rejects profile ids containing separators or traversal.
func validateID(id string) error {
	if id == "" {
		return errors.NewValidationError("EMPTY_ID", "profile id must not be empty")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return errors.NewValidationError("BAD_ID", fmt.Sprintf("profile id %q contains path separators or traversal", id))
	}
	return nil
}

// Save writes the current store snapshot to <dir>/<id>.json.
func (br *Bridge) Save(ctx context.Context, id string) error {
	path, err := br.Path(id)
	if err != nil {
		return err
	}

	if err := br.codec.Write(br.broker.Store(), path); err != nil {
		return err
	}

	br.logger.Info(ctx, "profile saved", "id", id, "path", path, "entries", br.broker.Store().Len())
	return nil
}

// Load reads <dir>/<id>.json into the store (a missing file is a no-op),
// then re-publishes every entry now in the store so subscribers refresh.
func (br *Bridge) Load(ctx context.Context, id string) error {
	path, err := br.Path(id)
	if err != nil {
		return err
	}

	if err := br.codec.Read(br.broker.Store(), path); err != nil {
		return err
	}

	entries := br.broker.Store().All()
	for _, entry := range entries {
		if err := br.broker.Publish(ctx, entry); err != nil {
			return err
		}
	}

	br.logger.Info(ctx, "profile loaded", "id", id, "path", path, "entries", len(entries))
	return nil
}

// SaveAsync runs Save on its own goroutine and reports the result on the
// returned channel, so interactive callers do not block on file I/O.
func (br *Bridge) SaveAsync(ctx context.Context, id string) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- br.Save(ctx, id)
		close(result)
	}()
	return result
}

// LoadAsync runs Load on its own goroutine and reports the result on the
// returned channel.
func (br *Bridge) LoadAsync(ctx context.Context, id string) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- br.Load(ctx, id)
		close(result)
	}()
	return result
}
