package fields

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefaultRequiredKeys(t *testing.T) {
	assert.Equal(t,
		[]string{"process_number", "weigh_number", "plate_tractor", "driver", "tare_weight", "gross_weight", "net_weight"},
		Default().RequiredKeys())
	s, ok := Default().Lookup("weigh_date")
	require.True(t, ok)
	assert.False(t, s.Required)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "fields.json")
	cfg := Default().with(Spec{Key: "provider", Extract: false, Display: "PROV"})
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.False(t, got.Enabled("provider"))
	assert.True(t, got.Enabled("guide_number"), "keys outside the config are extracted")
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"missing fields":  `{}`,
		"bad key":         `{"fields":[{"key":"Bad Key","extract":true,"display":"X"}]}`,
		"empty display":   `{"fields":[{"key":"driver","extract":true,"display":""}]}`,
		"extra property":  `{"fields":[{"key":"driver","extract":true,"display":"C","color":"red"}]}`,
		"duplicate field": `{"fields":[{"key":"driver","extract":true,"display":"C"},{"key":"driver","extract":false,"display":"D"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestColumnsKeepOrderAndSkipDisabled(t *testing.T) {
	cfg := Config{Fields: []Spec{
		{Key: "net_weight", Extract: true, Display: "NETO"},
		{Key: "driver", Extract: false, Display: "CONDUCTOR"},
		{Key: "process_number", Extract: true, Display: "PROCESO"},
	}}
	cols := cfg.Columns()
	require.Len(t, cols, 2)
	assert.Equal(t, "net_weight", cols[0].Key)
	assert.Equal(t, "process_number", cols[1].Key)
	assert.Equal(t, "CONDUCTOR", cfg.Display("driver"))
	assert.Equal(t, "guide_number", cfg.Display("guide_number"))
}

func TestStorePutPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.json")
	s := NewStore(Default(), path, nil)

	_, err := s.Put(Spec{Key: "guide_number", Extract: true, Display: "GUIA"})
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), got)
	assert.Equal(t, "guide_number", got.Fields[len(got.Fields)-1].Key)
}

func TestStoreSnapshotIsIsolated(t *testing.T) {
	s := NewStore(Default(), "", nil)
	snap := s.Snapshot()
	snap.Fields[0].Display = "changed"
	assert.Equal(t, "PROCESO", s.Snapshot().Fields[0].Display)
}

func TestStorePutKeepsStateOnSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := NewStore(Default(), filepath.Join(blocker, "fields.json"), nil)
	_, err := s.Put(Spec{Key: "driver", Extract: false, Display: "C"})
	require.Error(t, err)
	assert.True(t, s.Snapshot().Enabled("driver"))
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(Default(), "", nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Put(Spec{Key: "driver", Extract: true, Display: "CONDUCTOR"})
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot().Columns()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Snapshot().Fields, len(Default().Fields))
}
