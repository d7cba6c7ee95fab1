package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"ai-character-chat/backend/internal/models"
	apperrors "ai-character-chat/backend/pkg/errors"
	"ai-character-chat/backend/pkg/vector"
)

type StoryRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

func (r *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	return r.db.WithContext(ctx).Create(story).Error
}

func (r *StoryRepository) FindByID(ctx context.Context, id uint) (*models.Story, error) {
	var story models.Story
	if err := r.db.WithContext(ctx).First(&story, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound(fmt.Sprintf("story %d not found", id))
		}
		return nil, err
	}
	return &story, nil
}

// FindByCharacter returns a character's stories, newest first.
func (r *StoryRepository) FindByCharacter(ctx context.Context, characterID uint) ([]models.Story, error) {
	var stories []models.Story
	err := r.db.WithContext(ctx).
		Where("character_id = ?", characterID).
		Order("created_at DESC").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// FindWithoutEmbedding returns stories still waiting for an embedding, across
// all characters. These are the retry candidates for the pipeline.
func (r *StoryRepository) FindWithoutEmbedding(ctx context.Context) ([]models.Story, error) {
	var stories []models.Story
	err := r.db.WithContext(ctx).
		Where("embedding_vector IS NULL OR embedding_vector = ''").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// FindWithEmbedding returns a character's stories that carry an embedding.
func (r *StoryRepository) FindWithEmbedding(ctx context.Context, characterID uint) ([]models.Story, error) {
	var stories []models.Story
	err := r.db.WithContext(ctx).
		Where("character_id = ? AND embedding_vector IS NOT NULL AND embedding_vector <> ''", characterID).
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// UpdateEmbedding writes the embedding blob onto an existing story. Only the
// embedding column is touched, so a concurrent overwrite leaves either the
// old or the new complete vector, never a mix.
func (r *StoryRepository) UpdateEmbedding(ctx context.Context, storyID uint, blob string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Story{}).
		Where("id = ?", storyID).
		Update("embedding_vector", blob)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound(fmt.Sprintf("story %d not found", storyID))
	}
	return nil
}

// FindNearest returns up to limit of the character's embedded stories ordered
// by ascending distance to the query vector. Stories with blobs that fail to
// decode are skipped.
func (r *StoryRepository) FindNearest(ctx context.Context, characterID uint, query []float32, limit int) ([]models.Story, error) {
	stories, err := r.FindWithEmbedding(ctx, characterID)
	if err != nil {
		return nil, err
	}

	type scored struct {
		story    models.Story
		distance float64
	}

	ranked := make([]scored, 0, len(stories))
	for _, s := range stories {
		v, err := vector.Decode(s.EmbeddingVector)
		if err != nil {
			continue
		}
		ranked = append(ranked, scored{story: s, distance: vector.L2(query, v)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := make([]models.Story, len(ranked))
	for i, s := range ranked {
		result[i] = s.story
	}
	return result, nil
}

func (r *StoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Story{}, id).Error
}
