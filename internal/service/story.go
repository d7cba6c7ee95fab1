package service

import (
	"context"
	"errors"

	"ai-character-chat/backend/ai"
	"ai-character-chat/backend/internal/jobs"
	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/repository"
	"ai-character-chat/backend/pkg/logger"
)

// StoryService owns story documents and the asynchronous embedding pipeline
// around them.
type StoryService struct {
	stories    *repository.StoryRepository
	characters *repository.CharacterRepository
	embedder   *jobs.Embedder
	inference  ai.Inference
	log        *logger.Logger
}

func NewStoryService(
	stories *repository.StoryRepository,
	characters *repository.CharacterRepository,
	embedder *jobs.Embedder,
	inference ai.Inference,
	log *logger.Logger,
) *StoryService {
	return &StoryService{
		stories:    stories,
		characters: characters,
		embedder:   embedder,
		inference:  inference,
		log:        log,
	}
}

// CreateStory persists a story and schedules its embedding. The embedding
// runs detached: this returns before it starts, and a scheduling failure only
// leaves the story without an embedding, retryable via EmbedStory.
func (s *StoryService) CreateStory(ctx context.Context, characterID uint, title, content string) (*models.Story, error) {
	if _, err := s.characters.FindByID(ctx, characterID); err != nil {
		return nil, err
	}

	story := &models.Story{
		CharacterID: characterID,
		Title:       title,
		Content:     content,
	}
	if err := s.stories.Create(ctx, story); err != nil {
		return nil, err
	}

	if jobID, err := s.embedder.Enqueue(story.ID, story.Content); err != nil {
		s.log.LogError(err, "could not schedule embedding", "story_id", story.ID)
	} else {
		s.log.Info("embedding scheduled", "story_id", story.ID, "job_id", jobID)
	}

	return story, nil
}

// EmbedStory re-requests an embedding for an existing story. A story that
// already has one gets it overwritten with a freshly computed vector.
func (s *StoryService) EmbedStory(ctx context.Context, storyID uint) error {
	story, err := s.stories.FindByID(ctx, storyID)
	if err != nil {
		return err
	}

	jobID, err := s.embedder.Enqueue(story.ID, story.Content)
	if err != nil {
		return err
	}
	s.log.Info("embedding scheduled", "story_id", story.ID, "job_id", jobID)
	return nil
}

// SearchSimilarStories embeds the query text and returns up to limit of the
// character's embedded stories by ascending vector distance. When the query
// embedding fails the search fails closed: a distance ordering without a
// valid query vector would be meaningless.
func (s *StoryService) SearchSimilarStories(ctx context.Context, query string, characterID uint, limit int) ([]models.Story, error) {
	queryVector, err := s.inference.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.stories.FindNearest(ctx, characterID, queryVector, limit)
}

// StoriesWithoutEmbedding lists the stories still waiting for an embedding.
func (s *StoryService) StoriesWithoutEmbedding(ctx context.Context) ([]models.Story, error) {
	return s.stories.FindWithoutEmbedding(ctx)
}

// GetStory returns a single story by id.
func (s *StoryService) GetStory(ctx context.Context, id uint) (*models.Story, error) {
	return s.stories.FindByID(ctx, id)
}

// StoriesByCharacter returns a character's stories, newest first.
func (s *StoryService) StoriesByCharacter(ctx context.Context, characterID uint) ([]models.Story, error) {
	return s.stories.FindByCharacter(ctx, characterID)
}

// DeleteStory removes a story.
func (s *StoryService) DeleteStory(ctx context.Context, id uint) error {
	if _, err := s.stories.FindByID(ctx, id); err != nil {
		return err
	}
	return s.stories.Delete(ctx, id)
}

// IsQueueFull reports whether err is the embedder's backlog rejection.
func IsQueueFull(err error) bool {
	return errors.Is(err, jobs.ErrQueueFull)
}
