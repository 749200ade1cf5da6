package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/flow"
	"github.com/abdul-hamid-achik/hitflow/packages/core/flowctx"
	"github.com/abdul-hamid-achik/hitflow/packages/rules"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite://" + filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func runResult(name string, started time.Time, success bool) *flow.Result {
	result := &flow.Result{
		ID:        uuid.New(),
		Name:      name,
		State:     flow.StateCompleted,
		Success:   success,
		StartedAt: started,
		Duration:  250 * time.Millisecond,
		Variables: flowctx.New().Snapshot(),
		Steps: []*flow.StepResult{
			{
				Name:    "first",
				Success: success,
				Rules: []rules.Result{
					{RuleName: "Status Code", Verdict: rules.Pass},
					{RuleName: "Field Exists", Verdict: rules.Fail},
				},
			},
			{Name: "second", Skipped: true, SkipReason: "previous step failed"},
		},
	}
	if !success {
		result.State = flow.StateFailed
		result.Error = errors.New("boom")
	}
	return result
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		conn    string
		wantErr bool
	}{
		{"sqlite url", "sqlite://" + filepath.Join(dir, "a.db"), false},
		{"sqlite colon", "sqlite:" + filepath.Join(dir, "b.db"), false},
		{"bare path", filepath.Join(dir, "c.db"), false},
		{"unsupported scheme", "postgres://localhost/db", true},
		{"empty", "sqlite://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, store.Close())
		})
	}
}

func TestSaveAndGet(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	result := runResult("login", time.Now(), false)
	require.NoError(t, store.Save(ctx, result))

	run, err := store.Get(ctx, result.ID.String())
	require.NoError(t, err)
	assert.Equal(t, result.ID, run.ID)
	assert.Equal(t, "login", run.Name)
	assert.Equal(t, "failed", run.State)
	assert.False(t, run.Success)
	assert.Equal(t, "boom", run.Error)
	assert.Equal(t, 0, run.StepsPassed)
	assert.Equal(t, 1, run.StepsFailed)
	assert.Equal(t, 1, run.StepsSkipped)
	assert.Equal(t, 1, run.RulesPassed)
	assert.Equal(t, 1, run.RulesFailed)
	assert.Equal(t, 250*time.Millisecond, run.Duration)
	assert.True(t, result.StartedAt.Equal(run.StartedAt))
	assert.Contains(t, string(run.Report), `"name":"login"`)

	t.Run("by prefix", func(t *testing.T) {
		run, err := store.Get(ctx, result.ID.String()[:8])
		require.NoError(t, err)
		assert.Equal(t, result.ID, run.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New().String())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSaveReplaces(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	result := runResult("login", time.Now(), false)
	require.NoError(t, store.Save(ctx, result))

	result.Name = "renamed"
	require.NoError(t, store.Save(ctx, result))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "renamed", runs[0].Name)
}

func TestList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"one", "two", "three"} {
		require.NoError(t, store.Save(ctx, runResult(name, base.Add(time.Duration(i)*time.Minute), true)))
	}

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "three", runs[0].Name)
	assert.Equal(t, "one", runs[2].Name)
	assert.Nil(t, runs[0].Report)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
