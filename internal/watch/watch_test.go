package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultralog/ultralog/pkg/specs"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls []specs.Bundle
}

func (f *fakeRefresher) RefreshSpecs(bundle specs.Bundle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, bundle)
	return nil
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const fixtureVendor = "name: TestVendor\nchannels:\n  - canonical: RPM\n    display: RPM\n    category: none\n    unit: rpm\n    aliases: [RPM]\n"

func TestWatcher_InitialLoadPublishesBundle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor.yaml"), []byte(fixtureVendor), 0o644))

	refresher := &fakeRefresher{}
	w := New(dir, refresher, 0, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	<-done

	assert.GreaterOrEqual(t, refresher.callCount(), 1)
}

func TestWatcher_FileChangeTriggersDebouncedReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vendor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureVendor), 0o644))

	refresher := &fakeRefresher{}
	w := New(dir, refresher, 20*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)
	initial := refresher.callCount()

	require.NoError(t, os.WriteFile(path, []byte(fixtureVendor+"\n"), 0o644))

	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if refresher.callCount() > initial {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("reload was not triggered after file change")
}
