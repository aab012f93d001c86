package store

import (
	"context"

	"github.com/kriugm/kri-services/internal/eventsvc/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UniversityStore struct {
	db *pgxpool.Pool
}

func NewUniversityStore(db *pgxpool.Pool) *UniversityStore {
	return &UniversityStore{db: db}
}

func (s *UniversityStore) CreateUniversity(ctx context.Context, u *models.University) (int64, error) {
	query := `
		INSERT INTO universities (name, abbreviation, krai, krsbi_beroda, krsti, krpai)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := s.db.QueryRow(ctx, query,
		u.Name,
		u.Abbreviation,
		u.Eligible[models.DivisionKRAI],
		u.Eligible[models.DivisionKRSBIBeroda],
		u.Eligible[models.DivisionKRSTI],
		u.Eligible[models.DivisionKRPAI],
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return 0, wrap("create university", err)
	}

	return u.ID, nil
}

func (s *UniversityStore) GetUniversityByID(ctx context.Context, id int64) (*models.University, error) {
	query := `
		SELECT id, name, COALESCE(abbreviation, ''), krai, krsbi_beroda, krsti, krpai, created_at
		FROM universities
		WHERE id = $1
	`

	var krai, krsbiBeroda, krsti, krpai bool
	u := &models.University{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Name,
		&u.Abbreviation,
		&krai,
		&krsbiBeroda,
		&krsti,
		&krpai,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, wrap("get university", err)
	}

	u.Eligible = map[models.Division]bool{
		models.DivisionKRAI:        krai,
		models.DivisionKRSBIBeroda: krsbiBeroda,
		models.DivisionKRSTI:       krsti,
		models.DivisionKRPAI:       krpai,
	}

	return u, nil
}
