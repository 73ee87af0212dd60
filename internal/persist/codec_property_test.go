//go:build property
// +build property

package persist

import (
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/bindcfg/internal/store"
)

// TestCodecRoundTripProperties checks that arbitrary stores survive a
// write/read cycle with keys and value kinds intact.
func TestCodecRoundTripProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	codec := NewCodec()
	dir := t.TempDir()

	keyGen := gen.RegexMatch(`^[a-zA-Z][a-zA-Z0-9_.-]{0,30}$`)

	properties.Property("string entries round-trip", prop.ForAll(
		func(keys []string, values []string) bool {
			original := store.New()
			for i, key := range keys {
				value := ""
				if i < len(values) {
					value = values[i]
				}
				if err := original.Put(store.TextEntry(key, value)); err != nil {
					return false
				}
			}

			path := filepath.Join(dir, "prop-strings.json")
			if err := codec.Write(original, path); err != nil {
				return false
			}

			loaded := store.New()
			if err := codec.Read(loaded, path); err != nil {
				return false
			}

			if loaded.Len() != original.Len() {
				return false
			}
			for _, want := range original.All() {
				got, ok := loaded.Get(want.Key)
				if !ok || !want.Value.Equal(got.Value) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, keyGen),
		gen.SliceOfN(8, gen.AnyString()),
	))

	properties.Property("typed entries keep their kind", prop.ForAll(
		func(key string, i int64, b bool, f float64) bool {
			original := store.New()
			entries := []store.Entry{
				store.NewEntry(key+".int", store.IntValue(i)),
				store.NewEntry(key+".bool", store.BoolValue(b)),
				store.NewEntry(key+".float", store.FloatValue(f)),
			}
			for _, entry := range entries {
				if err := original.Put(entry); err != nil {
					return false
				}
			}

			path := filepath.Join(dir, "prop-typed.json")
			if err := codec.Write(original, path); err != nil {
				return false
			}

			loaded := store.New()
			if err := codec.Read(loaded, path); err != nil {
				return false
			}

			for _, want := range entries {
				got, ok := loaded.Get(want.Key)
				if !ok || got.Value.Kind() != want.Value.Kind() || !want.Value.Equal(got.Value) {
					return false
				}
			}
			return true
		},
		keyGen,
		gen.Int64(),
		gen.Bool(),
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}
