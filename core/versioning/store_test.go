package versioning

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage/memory"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/workflow"
)

func newTestStore(t *testing.T, projectID string) *Store {
	t.Helper()
	mem := memory.NewStore()
	err := mem.CreateProject(context.Background(), &models.Project{
		ID:       projectID,
		UserID:   "u1",
		Name:     "forecast",
		Tier:     models.TierFree,
		Workflow: workflow.New(),
	})
	require.NoError(t, err)
	return NewStore(mem, mem, zap.NewNop())
}

func TestCommitAssignsVersionsAndMovesHead(t *testing.T) {
	s := newTestStore(t, "p1")
	ctx := context.Background()

	v1, err := s.Commit(ctx, "p1", "print('v1')", models.OriginUser)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, models.OriginUser, v1.GeneratedBy)

	v2, err := s.Commit(ctx, "p1", "print('v2')", models.OriginAI)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	latest, err := s.Latest(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "print('v2')", latest.Script)

	// earlier versions stay immutable and retrievable
	got, err := s.Get(ctx, "p1", 1)
	require.NoError(t, err)
	assert.Equal(t, "print('v1')", got.Script)
}

func TestCommitRejectsEmptyScript(t *testing.T) {
	s := newTestStore(t, "p1")

	_, err := s.Commit(context.Background(), "p1", "", models.OriginUser)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = s.Latest(context.Background(), "p1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCommitUnknownProject(t *testing.T) {
	s := newTestStore(t, "p1")

	_, err := s.Commit(context.Background(), "ghost", "print(1)", models.OriginUser)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

// Concurrent commits must produce a gap-free sequence with no reused
// numbers, whatever order they land in.
func TestConcurrentCommitsAreGapFree(t *testing.T) {
	s := newTestStore(t, "p1")
	ctx := context.Background()

	const commits = 25
	var wg sync.WaitGroup
	for i := 0; i < commits; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Commit(ctx, "p1", fmt.Sprintf("print(%d)", i), models.OriginUser)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	latest, err := s.Latest(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, commits, latest.Version)

	for v := 1; v <= commits; v++ {
		_, err := s.Get(ctx, "p1", v)
		assert.NoError(t, err, "version %d missing", v)
	}
}
