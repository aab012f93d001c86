package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
)

type PersonStore struct {
	db *pgxpool.Pool
}

func NewPersonStore(db *pgxpool.Pool) *PersonStore {
	return &PersonStore{db: db}
}

const personColumns = `id, team_id, role, name, instance_id, birthday, gender, phone, email, photo, created_at`

// CreatePersonWithin inserts p while holding the team row lock, so the
// member count handed to admit cannot change before the insert commits.
// A non-nil error from admit aborts the insert and is returned unchanged.
func (s *PersonStore) CreatePersonWithin(ctx context.Context, p *models.Person, admit func(current int) error) (*models.Person, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var teamID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM teams WHERE id = $1 FOR UPDATE`, p.TeamID).Scan(&teamID); err != nil {
		return nil, wrap("lock team", err)
	}

	var current int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM persons WHERE team_id = $1 AND role = $2
	`, p.TeamID, string(p.Role)).Scan(&current); err != nil {
		return nil, wrap("count persons", err)
	}

	if err := admit(current); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO persons (team_id, role, name, instance_id, birthday, gender, phone, email, photo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`,
		p.TeamID,
		string(p.Role),
		p.Name,
		p.InstanceID,
		p.Birthday,
		p.Gender,
		p.Phone,
		p.Email,
		p.Photo,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, wrap("create person", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return p, nil
}

func (s *PersonStore) CountByRole(ctx context.Context, teamID int64, role models.Role) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM persons WHERE team_id = $1 AND role = $2
	`, teamID, string(role)).Scan(&n)
	if err != nil {
		return 0, wrap("count persons", err)
	}
	return n, nil
}

func (s *PersonStore) GetPersonByID(ctx context.Context, id int64) (*models.Person, error) {
	row := s.db.QueryRow(ctx, `SELECT `+personColumns+` FROM persons WHERE id = $1`, id)

	p, err := scanPerson(row)
	if err != nil {
		return nil, wrap("get person", err)
	}
	return p, nil
}

// UpdatePerson saves the editable fields of p. Team and role are fixed once
// the person holds a roster slot.
func (s *PersonStore) UpdatePerson(ctx context.Context, p *models.Person) (*models.Person, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE persons
		SET name = $2, instance_id = $3, birthday = $4, gender = $5, phone = $6, email = $7, photo = $8
		WHERE id = $1
		RETURNING `+personColumns,
		p.ID,
		p.Name,
		p.InstanceID,
		p.Birthday,
		p.Gender,
		p.Phone,
		p.Email,
		p.Photo,
	)

	updated, err := scanPerson(row)
	if err != nil {
		return nil, wrap("update person", err)
	}
	return updated, nil
}

func (s *PersonStore) ListByTeam(ctx context.Context, teamID int64) ([]*models.Person, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+personColumns+`
		FROM persons
		WHERE team_id = $1
		ORDER BY id
	`, teamID)
	if err != nil {
		return nil, wrap("list persons", err)
	}
	defer rows.Close()

	var persons []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, wrap("scan person", err)
		}
		persons = append(persons, p)
	}

	return persons, rows.Err()
}

func scanPerson(row rowScanner) (*models.Person, error) {
	p := &models.Person{}
	var role string
	err := row.Scan(
		&p.ID,
		&p.TeamID,
		&role,
		&p.Name,
		&p.InstanceID,
		&p.Birthday,
		&p.Gender,
		&p.Phone,
		&p.Email,
		&p.Photo,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	return p, nil
}
