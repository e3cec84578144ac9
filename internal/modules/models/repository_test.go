package models

import (
	"testing"
	"time"

	testingpkg "github.com/aristath/qae/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_SaveAndGet(t *testing.T) {
	repo := NewRepository(testingpkg.NewMemoryDB(t), zerolog.Nop())
	model := testingpkg.NewModelFixture(t, 8)

	sm := &StoredModel{Name: "digits", Model: model}
	require.NoError(t, repo.Save(sm))
	assert.NotEmpty(t, sm.ID)
	assert.False(t, sm.CreatedAt.IsZero())

	got, err := repo.Get(sm.ID)
	require.NoError(t, err)

	assert.Equal(t, sm.ID, got.ID)
	assert.Equal(t, "digits", got.Name)
	assert.Equal(t, model.Layout, got.Model.Layout)
	assert.Equal(t, model.Config, got.Model.Config)
	assert.Equal(t, model.Params, got.Model.Params)
	assert.Equal(t, model.History, got.Model.History)
	assert.InDelta(t, 0.41, got.Model.InitialCost, 1e-12)
	assert.InDelta(t, 0.12, got.Model.FinalCost, 1e-12)
	assert.Equal(t, 3, got.Model.Iterations)
	assert.Equal(t, 17, got.Model.Evaluations)
	assert.True(t, model.TrainedAt.Equal(got.Model.TrainedAt))
}

func TestRepository_SaveKeepsExplicitID(t *testing.T) {
	repo := NewRepository(testingpkg.NewMemoryDB(t), zerolog.Nop())

	sm := &StoredModel{ID: "fixed-id", Model: testingpkg.NewModelFixture(t, 8)}
	require.NoError(t, repo.Save(sm))
	assert.Equal(t, "fixed-id", sm.ID)

	sm.Name = "renamed"
	require.NoError(t, repo.Save(sm))

	summaries, err := repo.List()
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "renamed", summaries[0].Name)
}

func TestRepository_SaveRejectsEmpty(t *testing.T) {
	repo := NewRepository(testingpkg.NewMemoryDB(t), zerolog.Nop())

	assert.Error(t, repo.Save(nil))
	assert.Error(t, repo.Save(&StoredModel{Name: "empty"}))
}

func TestRepository_List(t *testing.T) {
	repo := NewRepository(testingpkg.NewMemoryDB(t), zerolog.Nop())

	summaries, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, summaries)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second"} {
		require.NoError(t, repo.Save(&StoredModel{
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Model:     testingpkg.NewModelFixture(t, 8),
		}))
	}

	summaries, err = repo.List()
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "second", summaries[0].Name)
	assert.Equal(t, "first", summaries[1].Name)
	assert.Equal(t, 8, summaries[0].NFeatures)
	assert.Equal(t, 2, summaries[0].NClasses)
	assert.Equal(t, 6, summaries[0].NParameters)
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(testingpkg.NewMemoryDB(t), zerolog.Nop())

	sm := &StoredModel{Model: testingpkg.NewModelFixture(t, 8)}
	require.NoError(t, repo.Save(sm))

	require.NoError(t, repo.Delete(sm.ID))

	_, err := repo.Get(sm.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(sm.ID), ErrNotFound)
}
