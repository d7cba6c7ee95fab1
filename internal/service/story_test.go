package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ai-character-chat/backend/internal/jobs"
	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/repository"
	apperrors "ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/logger"
	"ai-character-chat/backend/pkg/vector"
)

// gatedInference blocks Embed until the gate is released, so tests can
// observe the pipeline mid-flight.
type gatedInference struct {
	fakeInference
	gate chan struct{}
}

func (g *gatedInference) Embed(ctx context.Context, content string) ([]float32, error) {
	<-g.gate
	return g.fakeInference.Embed(ctx, content)
}

func newTestStoryService(t *testing.T, db *gorm.DB, inference *gatedInference, queueSize int) (*StoryService, *jobs.Embedder) {
	t.Helper()

	stories := repository.NewStoryRepository(db)
	characters := repository.NewCharacterRepository(db)
	log := logger.New(logger.Config{Level: "error"})

	embedder := jobs.NewEmbedder(inference, stories, log, 1, queueSize, 5*time.Second)
	t.Cleanup(embedder.Close)

	return NewStoryService(stories, characters, embedder, inference, log), embedder
}

func openGate(inference *gatedInference) {
	close(inference.gate)
}

func TestCreateStory_EmbedsAsynchronously(t *testing.T) {
	db := openTestDB(t)
	_, character := seedUserAndCharacter(t, db)

	inference := &gatedInference{
		fakeInference: fakeInference{embedding: []float32{0.1, 0.2, 0.3}},
		gate:          make(chan struct{}),
	}
	svc, _ := newTestStoryService(t, db, inference, 10)

	story, err := svc.CreateStory(context.Background(), character.ID, "Origins", "once upon a time")
	require.NoError(t, err)
	require.NotZero(t, story.ID)

	// Creation returned while the embedding is still in flight.
	pending, err := svc.StoriesWithoutEmbedding(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, story.ID, pending[0].ID)

	openGate(inference)

	require.Eventually(t, func() bool {
		got, err := svc.GetStory(context.Background(), story.ID)
		return err == nil && got.HasEmbedding()
	}, 2*time.Second, 10*time.Millisecond)

	pending, err = svc.StoriesWithoutEmbedding(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCreateStory_UnknownCharacter(t *testing.T) {
	db := openTestDB(t)

	inference := &gatedInference{gate: make(chan struct{})}
	svc, _ := newTestStoryService(t, db, inference, 10)

	_, err := svc.CreateStory(context.Background(), 42, "Orphan", "no owner")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateStory_EmbeddingFailureLeavesStoryRetryable(t *testing.T) {
	db := openTestDB(t)
	_, character := seedUserAndCharacter(t, db)

	inference := &gatedInference{
		fakeInference: fakeInference{embedErr: apperrors.NewInferenceUnavailable("down")},
		gate:          make(chan struct{}),
	}
	svc, embedder := newTestStoryService(t, db, inference, 10)
	openGate(inference)

	story, err := svc.CreateStory(context.Background(), character.ID, "Origins", "once upon a time")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return embedder.Pending() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// The failure stayed inside the pipeline; the story is still a retry
	// candidate.
	pending, err := svc.StoriesWithoutEmbedding(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, story.ID, pending[0].ID)
}

func TestEmbedStory_OverwritesExistingVector(t *testing.T) {
	db := openTestDB(t)
	_, character := seedUserAndCharacter(t, db)

	oldBlob, err := vector.Encode([]float32{1, 1, 1})
	require.NoError(t, err)
	story := &models.Story{CharacterID: character.ID, Title: "Old", Content: "text", EmbeddingVector: oldBlob}
	require.NoError(t, db.Create(story).Error)

	inference := &gatedInference{
		fakeInference: fakeInference{embedding: []float32{2, 2, 2}},
		gate:          make(chan struct{}),
	}
	svc, _ := newTestStoryService(t, db, inference, 10)
	openGate(inference)

	require.NoError(t, svc.EmbedStory(context.Background(), story.ID))

	newBlob, err := vector.Encode([]float32{2, 2, 2})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := svc.GetStory(context.Background(), story.ID)
		return err == nil && got.EmbeddingVector == newBlob
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEmbedStory_UnknownStory(t *testing.T) {
	db := openTestDB(t)

	inference := &gatedInference{gate: make(chan struct{})}
	svc, _ := newTestStoryService(t, db, inference, 10)

	err := svc.EmbedStory(context.Background(), 123)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSearchSimilarStories_OrdersByDistance(t *testing.T) {
	db := openTestDB(t)
	_, character := seedUserAndCharacter(t, db)

	near, err := vector.Encode([]float32{1, 0, 0})
	require.NoError(t, err)
	far, err := vector.Encode([]float32{0, 10, 0})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.Story{CharacterID: character.ID, Title: "far", Content: "f", EmbeddingVector: far}).Error)
	require.NoError(t, db.Create(&models.Story{CharacterID: character.ID, Title: "near", Content: "n", EmbeddingVector: near}).Error)
	// No embedding: excluded from search results.
	require.NoError(t, db.Create(&models.Story{CharacterID: character.ID, Title: "unembedded", Content: "u"}).Error)

	inference := &gatedInference{
		fakeInference: fakeInference{embedding: []float32{1, 0, 0}},
		gate:          make(chan struct{}),
	}
	openGate(inference)
	svc, _ := newTestStoryService(t, db, inference, 10)

	stories, err := svc.SearchSimilarStories(context.Background(), "magic", character.ID, 2)
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, "near", stories[0].Title)
	assert.Equal(t, "far", stories[1].Title)
}

func TestSearchSimilarStories_FailsClosed(t *testing.T) {
	db := openTestDB(t)
	_, character := seedUserAndCharacter(t, db)

	blob, err := vector.Encode([]float32{1, 0, 0})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Story{CharacterID: character.ID, Title: "s", Content: "c", EmbeddingVector: blob}).Error)

	inference := &gatedInference{
		fakeInference: fakeInference{embedErr: apperrors.NewInferenceUnavailable("down")},
		gate:          make(chan struct{}),
	}
	openGate(inference)
	svc, _ := newTestStoryService(t, db, inference, 10)

	stories, err := svc.SearchSimilarStories(context.Background(), "magic", character.ID, 3)
	assert.Nil(t, stories)
	assert.True(t, apperrors.IsInferenceUnavailable(err))
}

func TestEmbedder_RejectsWhenQueueFull(t *testing.T) {
	db := openTestDB(t)
	_, character := seedUserAndCharacter(t, db)

	// Worker blocks on the gate; queue holds a single job.
	inference := &gatedInference{
		fakeInference: fakeInference{embedding: []float32{1}},
		gate:          make(chan struct{}),
	}
	svc, embedder := newTestStoryService(t, db, inference, 1)

	story, err := svc.CreateStory(context.Background(), character.ID, "A", "a")
	require.NoError(t, err)

	// Wait for the worker to pick up the first job, then fill the queue.
	require.Eventually(t, func() bool {
		return embedder.Pending() == 0
	}, 2*time.Second, 5*time.Millisecond)

	_, err = embedder.Enqueue(story.ID, story.Content)
	require.NoError(t, err)

	_, err = embedder.Enqueue(story.ID, story.Content)
	assert.ErrorIs(t, err, jobs.ErrQueueFull)

	openGate(inference)
}
