package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nspFixture = "%DataLog%\nTime,RPM,MAP\n0,800,95\n10,1200,100\n20,1600,105\n"

func writeFixture(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func awaitDone(t *testing.T, o *Orchestrator, h Handle) LoadingState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, err := o.GetState(h)
		require.NoError(t, err)
		if st.Done() {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("load did not complete in time")
	return LoadingState{}
}

func TestOrchestrator_SubmitAndPollCompletes(t *testing.T) {
	path := writeFixture(t, "a.csv", nspFixture)
	o := New(nil, nil, 2, nil)

	h, err := o.Submit(context.Background(), path)
	require.NoError(t, err)

	st := awaitDone(t, o, h)
	assert.Equal(t, StatusCompleted, st.Status)
	require.NotNil(t, st.Log)
	assert.Equal(t, 3, st.Log.RecordCount())
}

func TestOrchestrator_DuplicateFingerprintIsRejected(t *testing.T) {
	path := writeFixture(t, "a.csv", nspFixture)
	dup := writeFixture(t, "b.csv", nspFixture)
	o := New(nil, nil, 2, nil)

	h, err := o.Submit(context.Background(), path)
	require.NoError(t, err)
	awaitDone(t, o, h)

	_, err = o.Submit(context.Background(), dup)
	var dupErr *DuplicateLoadError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, h, dupErr.ExistingHandle)
}

func TestOrchestrator_CloseFreesFingerprintSlot(t *testing.T) {
	path := writeFixture(t, "a.csv", nspFixture)
	dup := writeFixture(t, "b.csv", nspFixture)
	o := New(nil, nil, 2, nil)

	h, err := o.Submit(context.Background(), path)
	require.NoError(t, err)
	awaitDone(t, o, h)
	require.NoError(t, o.Close(h))

	h2, err := o.Submit(context.Background(), dup)
	require.NoError(t, err)
	awaitDone(t, o, h2)
}

func TestOrchestrator_UnsupportedFormatFails(t *testing.T) {
	path := writeFixture(t, "a.csv", "not a recognized log format at all\n")
	o := New(nil, nil, 2, nil)

	h, err := o.Submit(context.Background(), path)
	require.NoError(t, err)

	st := awaitDone(t, o, h)
	assert.Equal(t, StatusFailed, st.Status)
	assert.Error(t, st.Err)
}

func TestOrchestrator_UnknownHandleErrors(t *testing.T) {
	o := New(nil, nil, 2, nil)
	_, err := o.GetState("nope")
	var unknown *UnknownHandleError
	assert.ErrorAs(t, err, &unknown)
}

func TestOrchestrator_AwaitBlocksUntilTerminal(t *testing.T) {
	path := writeFixture(t, "a.csv", nspFixture)
	o := New(nil, nil, 2, nil)

	h, err := o.Submit(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := o.Await(ctx, h)
	require.NoError(t, err)
	assert.True(t, st.Done())
}

func TestOrchestrator_AwaitRespectsCallerDeadline(t *testing.T) {
	path := writeFixture(t, "a.csv", nspFixture)
	o := New(nil, nil, 2, nil)

	h, err := o.Submit(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	_, err = o.Await(ctx, h)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOrchestrator_CancelMarksCancelledAndDiscardsResult(t *testing.T) {
	path := writeFixture(t, "a.csv", nspFixture)
	o := New(nil, nil, 2, nil)

	h, err := o.Submit(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, o.Cancel(h))

	st, err := o.GetState(h)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, st.Status)
	assert.Nil(t, st.Log)
}
