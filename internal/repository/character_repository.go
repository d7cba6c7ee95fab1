package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ai-character-chat/backend/internal/models"
	apperrors "ai-character-chat/backend/pkg/errors"
)

type CharacterRepository struct {
	db *gorm.DB
}

func NewCharacterRepository(db *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create persists a new character. Names are unique.
func (r *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	if err := r.db.WithContext(ctx).Create(character).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.NewDuplicate(fmt.Sprintf("character %q already exists", character.Name))
		}
		return err
	}
	return nil
}

func (r *CharacterRepository) FindByID(ctx context.Context, id uint) (*models.Character, error) {
	var character models.Character
	if err := r.db.WithContext(ctx).First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound(fmt.Sprintf("character %d not found", id))
		}
		return nil, err
	}
	return &character, nil
}

func (r *CharacterRepository) FindByName(ctx context.Context, name string) (*models.Character, error) {
	var character models.Character
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&character).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound(fmt.Sprintf("character %q not found", name))
		}
		return nil, err
	}
	return &character, nil
}

// List returns all characters, newest first.
func (r *CharacterRepository) List(ctx context.Context) ([]models.Character, error) {
	var characters []models.Character
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&characters).Error; err != nil {
		return nil, err
	}
	return characters, nil
}

func (r *CharacterRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Character{}, id).Error
}
