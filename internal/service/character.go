package service

import (
	"context"

	"ai-character-chat/backend/internal/models"
	"ai-character-chat/backend/internal/repository"
	"ai-character-chat/backend/pkg/errors"
)

// CharacterService is thin CRUD over the character repository; the
// orchestrator resolves identities through it.
type CharacterService struct {
	characters *repository.CharacterRepository
}

func NewCharacterService(characters *repository.CharacterRepository) *CharacterService {
	return &CharacterService{characters: characters}
}

func (s *CharacterService) CreateCharacter(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error) {
	if req.Name == "" {
		return nil, errors.NewBadRequest("character name is required")
	}

	character := &models.Character{
		Name:          req.Name,
		Description:   req.Description,
		Personality:   req.Personality,
		SpeakingStyle: req.SpeakingStyle,
		Age:           req.Age,
		Occupation:    req.Occupation,
		Background:    req.Background,
	}
	if err := s.characters.Create(ctx, character); err != nil {
		return nil, err
	}
	return character, nil
}

func (s *CharacterService) GetCharacter(ctx context.Context, id uint) (*models.Character, error) {
	return s.characters.FindByID(ctx, id)
}

func (s *CharacterService) GetCharacterByName(ctx context.Context, name string) (*models.Character, error) {
	return s.characters.FindByName(ctx, name)
}

func (s *CharacterService) ListCharacters(ctx context.Context) ([]models.Character, error) {
	return s.characters.List(ctx)
}

func (s *CharacterService) DeleteCharacter(ctx context.Context, id uint) error {
	if _, err := s.characters.FindByID(ctx, id); err != nil {
		return err
	}
	return s.characters.Delete(ctx, id)
}
