package store

import (
	"context"

	"github.com/kriugm/kri-services/internal/eventsvc/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserStore struct {
	db *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, password_hash, name, university_id, can_log_attendance, can_verify_orders, created_at`

func (r *UserStore) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	query := `
        INSERT INTO users (username, password_hash, name, university_id, can_log_attendance, can_verify_orders)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at;
    `

	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Name,
		user.UniversityID,
		user.CanLogAttendance,
		user.CanVerifyOrders,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return 0, wrap("create user", err)
	}

	return user.ID, nil
}

func (r *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, wrap("get user", err)
	}
	return u, nil
}

func (r *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)

	u, err := scanUser(row)
	if err != nil {
		return nil, wrap("get user by username", err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Name,
		&u.UniversityID,
		&u.CanLogAttendance,
		&u.CanVerifyOrders,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
