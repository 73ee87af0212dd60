// Package persist moves store state to and from disk. Profiles live as
// pretty-printed JSON documents under a configs directory, one file per
// dialog id.
package persist

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/conneroisu/bindcfg/internal/errors"
	"github.com/conneroisu/bindcfg/internal/store"
)

// Codec serializes a store to a JSON file and back.
type Codec struct{}

// NewCodec creates a Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Write serializes the full entry mapping to path as pretty-printed JSON,
// creating parent directories as needed.
func (c *Codec) Write(st *store.Store, path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIOError("MKDIR_FAILED", "could not create config directory", err).WithPath(dir)
		}
	}

	data, err := json.MarshalIndent(st.Export(), "", "  ")
	if err != nil {
		return errors.NewCodecError("ENCODE_FAILED", "could not encode config entries", err).WithPath(path)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIOError("WRITE_FAILED", "could not write config file", err).WithPath(path)
	}

	return nil
}

// Read deserializes the JSON document at path and inserts each entry into
// st. A missing file is a no-op, not an error. A document that fails to
// decode rejects the whole load: the store is left untouched rather than
// partially populated.
func (c *Codec) Read(st *store.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.NewIOError("READ_FAILED", "could not read config file", err).WithPath(path)
	}

	var entries map[string]store.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.NewCodecError("DECODE_FAILED", "malformed config document", err).WithPath(path)
	}

	// Validate everything before inserting anything, so a bad document
	// never leaves the store partially populated.
	staged := make([]store.Entry, 0, len(entries))
	for key, entry := range entries {
		// Older documents may omit the embedded key; the map key is
		// authoritative then.
		if entry.Key == "" {
			entry.Key = key
		}
		if entry.Key == "" {
			return errors.NewCodecError("DECODE_FAILED", "entry with empty key", nil).WithPath(path)
		}
		staged = append(staged, entry)
	}

	for _, entry := range staged {
		if err := st.Put(entry); err != nil {
			return err
		}
	}

	return nil
}
