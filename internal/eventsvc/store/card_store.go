package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
)

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

// CreateCard binds key to a person. unique_card_person and unique_card_key
// surface as ErrDuplicate, a missing person as ErrNotFound.
func (s *CardStore) CreateCard(ctx context.Context, personID int64, key string) (*models.Card, error) {
	query := `
		INSERT INTO cards (person_id, key)
		VALUES ($1, $2)
		RETURNING id, person_id, key, register_time, last_login, last_logout
	`

	var card models.Card
	err := s.db.QueryRow(ctx, query, personID, key).Scan(
		&card.ID,
		&card.PersonID,
		&card.Key,
		&card.RegisterTime,
		&card.LastLogin,
		&card.LastLogout,
	)
	if err != nil {
		return nil, wrap("create card", err)
	}

	return &card, nil
}

func (s *CardStore) GetCardByKey(ctx context.Context, key string) (*models.Card, error) {
	query := `
		SELECT id, person_id, key, register_time, last_login, last_logout
		FROM cards
		WHERE key = $1
	`

	var card models.Card
	err := s.db.QueryRow(ctx, query, key).Scan(
		&card.ID,
		&card.PersonID,
		&card.Key,
		&card.RegisterTime,
		&card.LastLogin,
		&card.LastLogout,
	)
	if err != nil {
		return nil, wrap("get card by key", err)
	}

	return &card, nil
}
