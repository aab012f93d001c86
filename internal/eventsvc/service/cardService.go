package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kriugm/kri-services/internal/eventsvc/models"
	log "github.com/sirupsen/logrus"
)

type CardService struct {
	store CardRepository
}

func NewCardService(store CardRepository) *CardService {
	return &CardService{store: store}
}

// Register binds a new card key to a person. A person owns at most one card
// and a key belongs to at most one person.
func (s *CardService) Register(ctx context.Context, personID int64, key string) (*models.Card, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("card key is empty: %w", ErrInvalidInput)
	}

	card, err := s.store.CreateCard(ctx, personID, key)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateCard, err)
		}
		return nil, err
	}

	log.Infof("card %s registered to person %d", card.Key, personID)
	return card, nil
}

func (s *CardService) GetCardByKey(ctx context.Context, key string) (*models.Card, error) {
	return s.store.GetCardByKey(ctx, key)
}
