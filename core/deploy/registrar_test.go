package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/apperrors"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/events"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage/memory"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/workflow"
)

func seedSucceededJob(t *testing.T, store *memory.Store, metrics *models.Metrics) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.CreateProject(ctx, &models.Project{
		ID:       "p1",
		UserID:   "u1",
		Name:     "churn",
		Tier:     models.TierPro,
		Workflow: workflow.New(),
	}))
	require.NoError(t, store.SetDataset(ctx, "p1", &models.Dataset{
		VersionID: "dv1",
		Filename:  "data.csv",
		Columns: []models.Column{
			{Name: "age", Type: models.ColumnNumeric},
			{Name: "city", Type: models.ColumnCategorical},
		},
		RowCount: 50,
	}))
	require.NoError(t, store.CreateJob(ctx, &models.Job{
		ID:               "j1",
		ProjectID:        "p1",
		ScriptVersion:    3,
		DatasetVersionID: "dv1",
		Status:           models.JobStatusRunning,
	}))
	require.NoError(t, store.UpdateJobStatus(ctx, "j1", models.JobStatusRunning, models.JobStatusSucceeded, "training_complete"))
	require.NoError(t, store.SetJobMetrics(ctx, "j1", metrics))
}

func TestPromoteSucceededJob(t *testing.T) {
	store := memory.NewStore()
	acc := 0.91
	seedSucceededJob(t, store, &models.Metrics{TaskType: models.TaskClassification, Accuracy: &acc})

	bus := events.NewBus()
	ch, cancel := bus.Subscribe(events.ProjectTopic("p1"), 4)
	defer cancel()

	r := NewRegistrar(store, store, store, bus, zap.NewNop())
	rec, err := r.Promote(context.Background(), "p1", "j1")
	require.NoError(t, err)

	assert.Equal(t, "p1", rec.ProjectID)
	assert.Equal(t, "j1", rec.JobID)
	assert.Equal(t, 3, rec.ScriptVersion)
	assert.Equal(t, "dv1", rec.DatasetVersionID)
	assert.Equal(t, []string{"age", "city"}, rec.FeatureColumns)
	assert.Equal(t, models.VisibilityPrivate, rec.Visibility)
	require.NotNil(t, rec.Metrics.Accuracy)
	assert.InDelta(t, 0.91, *rec.Metrics.Accuracy, 1e-9)

	p, err := store.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p.Workflow.Step)
	assert.Equal(t, models.StepDeployed, *p.Workflow.Step)

	ev := <-ch
	assert.Equal(t, events.TypeModelPromoted, ev.Type)
	assert.Equal(t, rec.ID, ev.Payload)
}

func TestPromoteRejectsNonSucceededJob(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.CreateProject(ctx, &models.Project{ID: "p1", Tier: models.TierPro, Workflow: workflow.New()}))
	require.NoError(t, store.CreateJob(ctx, &models.Job{ID: "j1", ProjectID: "p1", Status: models.JobStatusRunning}))

	r := NewRegistrar(store, store, store, events.NewBus(), zap.NewNop())
	_, err := r.Promote(ctx, "p1", "j1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestPromoteRequiresMetrics(t *testing.T) {
	store := memory.NewStore()
	seedSucceededJob(t, store, nil)

	r := NewRegistrar(store, store, store, events.NewBus(), zap.NewNop())
	_, err := r.Promote(context.Background(), "p1", "j1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestPromoteChecksProjectOwnership(t *testing.T) {
	store := memory.NewStore()
	acc := 0.8
	seedSucceededJob(t, store, &models.Metrics{Accuracy: &acc})

	r := NewRegistrar(store, store, store, events.NewBus(), zap.NewNop())
	_, err := r.Promote(context.Background(), "p2", "j1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

// A dataset replaced after the training run should not lend its columns
// to the promoted record.
func TestPromoteSkipsFeaturesOfReplacedDataset(t *testing.T) {
	store := memory.NewStore()
	acc := 0.8
	seedSucceededJob(t, store, &models.Metrics{Accuracy: &acc})
	require.NoError(t, store.SetDataset(context.Background(), "p1", &models.Dataset{
		VersionID: "dv2",
		Columns:   []models.Column{{Name: "other", Type: models.ColumnNumeric}},
		RowCount:  10,
	}))

	r := NewRegistrar(store, store, store, events.NewBus(), zap.NewNop())
	rec, err := r.Promote(context.Background(), "p1", "j1")
	require.NoError(t, err)
	assert.Empty(t, rec.FeatureColumns)
	assert.Equal(t, "dv1", rec.DatasetVersionID)
}

func TestSetVisibility(t *testing.T) {
	store := memory.NewStore()
	acc := 0.8
	seedSucceededJob(t, store, &models.Metrics{Accuracy: &acc})

	r := NewRegistrar(store, store, store, events.NewBus(), zap.NewNop())
	rec, err := r.Promote(context.Background(), "p1", "j1")
	require.NoError(t, err)

	require.NoError(t, r.SetVisibility(context.Background(), rec.ID, models.VisibilityPublic))
	got, err := store.GetModel(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, got.Visibility)

	err = r.SetVisibility(context.Background(), rec.ID, "unlisted")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
