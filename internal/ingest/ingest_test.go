package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/pipeline"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	names    []string
	bodies   []string
	rejectIf string
}

func (f *fakeSubmitter) Process(_ context.Context, up pipeline.Upload) (pipeline.Outcome, error) {
	body, _ := io.ReadAll(up.Body)
	f.mu.Lock()
	f.names = append(f.names, up.FileName)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()
	if f.rejectIf != "" && strings.Contains(up.FileName, f.rejectIf) {
		return pipeline.Outcome{State: pipeline.StateRejected}, &pipeline.RejectionError{
			Stage: pipeline.StateTextExtracted, Code: pipeline.CodeOCREmpty, Reason: "blank",
		}
	}
	return pipeline.Outcome{
		State:  pipeline.StateArtifactGenerated,
		Record: &entity.DocumentRecord{ID: uuid.New()},
	}, nil
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "pdf-a")
	writeFile(t, filepath.Join(root, "blank.png"), "png-blank")
	writeFile(t, filepath.Join(root, "notes.txt"), "skip me")
	writeFile(t, filepath.Join(root, ".hidden.png"), "hidden")
	writeFile(t, filepath.Join(root, ".cache", "b.png"), "hidden dir")
	writeFile(t, filepath.Join(root, "sub", "c.JPG"), "jpg-c")

	sub := &fakeSubmitter{rejectIf: "blank"}
	ing := NewIngestor(sub, nil, extract.ModeLegacy, nil)
	results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf", "blank.png", "c.JPG"}, sub.names)
	assert.Equal(t, []string{"pdf-a", "png-blank", "jpg-c"}, sub.bodies)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Rejected)
	assert.Zero(t, stats.Failed)

	require.Len(t, results, 3)
	assert.NotEqual(t, uuid.Nil, results[0].ID)
	assert.Equal(t, pipeline.StateRejected, results[1].State)
	assert.NotEmpty(t, results[1].Err)
}

func TestIngestDirectoryIncludesHiddenWhenAsked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".cache", "b.png"), "hidden dir")

	sub := &fakeSubmitter{}
	_, stats, err := NewIngestor(sub, nil, "", nil).IngestDirectory(context.Background(), root, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Succeeded)
	assert.Equal(t, []string{"b.png"}, sub.names)
}

func TestIngestDirectoryCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "pdf-a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sub := &fakeSubmitter{}
	_, _, err := NewIngestor(sub, nil, "", nil).IngestDirectory(ctx, root, true)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sub.names)
}

func TestIngestPathRejectsUnsupported(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	writeFile(t, txt, "x")
	ing := NewIngestor(&fakeSubmitter{}, nil, "", nil)

	_, err := ing.IngestPath(context.Background(), txt)
	assert.Error(t, err)
	_, err = ing.IngestPath(context.Background(), filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
	_, _, err = ing.IngestDirectory(context.Background(), " ", true)
	assert.Error(t, err)
}

func TestWatchEmitsNewFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paths, _, err := Watch(ctx, WatchConfig{Roots: []string{root}, SkipHidden: true, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "ignored.txt"), "x")
	writeFile(t, filepath.Join(root, "ticket.pdf"), "pdf")

	select {
	case p := <-paths:
		assert.Equal(t, filepath.Join(root, "ticket.pdf"), p)
	case <-time.After(5 * time.Second):
		t.Fatal("no path emitted")
	}

	cancel()
	for range paths {
	}
}

func TestWatchRequiresRoots(t *testing.T) {
	_, _, err := Watch(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
