package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
)

type TeamStore struct {
	db *pgxpool.Pool
}

func NewTeamStore(db *pgxpool.Pool) *TeamStore {
	return &TeamStore{db: db}
}

const teamColumns = `id, university_id, division, name, arrival_time, transport, created_at`

// CreateTeam inserts a team. The unique_university_division constraint
// rejects a second team for the same division with ErrDuplicate.
func (s *TeamStore) CreateTeam(ctx context.Context, t *models.Team) (*models.Team, error) {
	query := `
		INSERT INTO teams (university_id, division, name, arrival_time, transport)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := s.db.QueryRow(ctx, query,
		t.UniversityID,
		string(t.Division),
		t.Name,
		t.ArrivalTime,
		t.Transport,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, wrap("create team", err)
	}

	return t, nil
}

// UpdateTeam saves the editable fields of t. The university and division of
// a team never change.
func (s *TeamStore) UpdateTeam(ctx context.Context, t *models.Team) (*models.Team, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE teams
		SET name = $2, arrival_time = $3, transport = $4
		WHERE id = $1
		RETURNING `+teamColumns,
		t.ID,
		t.Name,
		t.ArrivalTime,
		t.Transport,
	)

	updated, err := scanTeam(row)
	if err != nil {
		return nil, wrap("update team", err)
	}
	return updated, nil
}

func (s *TeamStore) GetTeamByID(ctx context.Context, id int64) (*models.Team, error) {
	row := s.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)

	t, err := scanTeam(row)
	if err != nil {
		return nil, wrap("get team", err)
	}
	return t, nil
}

// GetTeamByDivision returns nil, nil when the university has no team in the division.
func (s *TeamStore) GetTeamByDivision(ctx context.Context, universityID int64, d models.Division) (*models.Team, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+teamColumns+`
		FROM teams
		WHERE university_id = $1 AND division = $2
	`, universityID, string(d))

	t, err := scanTeam(row)
	if err != nil {
		err = wrap("get team by division", err)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *TeamStore) ListTeamsByUniversity(ctx context.Context, universityID int64) ([]*models.Team, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+teamColumns+`
		FROM teams
		WHERE university_id = $1
		ORDER BY id
	`, universityID)
	if err != nil {
		return nil, wrap("list teams", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, wrap("scan team", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

func scanTeam(row rowScanner) (*models.Team, error) {
	t := &models.Team{}
	var division string
	err := row.Scan(
		&t.ID,
		&t.UniversityID,
		&division,
		&t.Name,
		&t.ArrivalTime,
		&t.Transport,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Division = models.Division(division)
	return t, nil
}
