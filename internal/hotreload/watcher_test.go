package hotreload

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vex/internal/catalog"
	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/testutil"
)

type reloadEvent struct {
	path string
	err  error
}

func newCounterStore(t *testing.T) *engine.Store {
	t.Helper()
	root, err := catalog.Build("counter")
	require.NoError(t, err)
	_, logger := testutil.NewLogRecorder()
	s, err := engine.New(root, engine.WithLogger(logger))
	require.NoError(t, err)
	return s
}

func count(s *engine.Store) int {
	var n int
	s.Read(func(root *reactive.Object) { n = root.Object("counter").Int("count") })
	return n
}

func TestReloadAppliesManifest(t *testing.T) {
	s := newCounterStore(t)
	path := filepath.Join(t.TempDir(), "modules.yaml")
	writeFile(t, path, "modules:\n  counter: {step: 5}\n  todos: {}\n")

	w, err := NewWatcher(s, ManifestLoader, []string{path})
	require.NoError(t, err)
	defer w.Close()

	s.Commit("increment", nil)
	require.NoError(t, w.Reload(path))
	s.Commit("increment", nil)

	assert.Equal(t, 6, count(s))
	assert.Contains(t, s.MutationNames(), "addTodo")
}

func TestReloadKeepsStoreOnLoadError(t *testing.T) {
	s := newCounterStore(t)
	path := filepath.Join(t.TempDir(), "modules.yaml")
	writeFile(t, path, "modules: [")

	var got []reloadEvent
	w, err := NewWatcher(s, ManifestLoader, []string{path}, WithOnReload(func(p string, err error) {
		got = append(got, reloadEvent{p, err})
	}))
	require.NoError(t, err)
	defer w.Close()

	assert.Error(t, w.Reload(path))
	require.Len(t, got, 1)
	assert.Error(t, got[0].err)

	s.Commit("increment", nil)
	assert.Equal(t, 1, count(s))
}

func TestStartReloadsOnWrite(t *testing.T) {
	s := newCounterStore(t)
	path := filepath.Join(t.TempDir(), "modules.yaml")
	writeFile(t, path, "modules:\n  counter: {step: 1}\n")

	events := make(chan reloadEvent, 16)
	w, err := NewWatcher(s, ManifestLoader, []string{path},
		WithDebounce(20*time.Millisecond),
		WithOnReload(func(p string, err error) {
			select {
			case events <- reloadEvent{p, err}:
			default:
			}
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	writeFile(t, path, "modules: [")
	ev := waitReload(t, events)
	assert.Error(t, ev.err, "broken manifest is reported")

	writeFile(t, path, "modules:\n  counter: {step: 3}\n")
	for ev = waitReload(t, events); ev.err != nil; ev = waitReload(t, events) {
	}

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, abs, ev.path)

	s.Commit("increment", nil)
	assert.Equal(t, 3, count(s))
}

func waitReload(t *testing.T, events <-chan reloadEvent) reloadEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return reloadEvent{}
	}
}
