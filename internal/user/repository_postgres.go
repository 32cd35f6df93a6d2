package user

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	userColumns = `user_id, email, password, full_name, phone, role, points, rank_id`

	getUserByIDQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_id = $1
	`
	getUserByEmailQuery = `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1)
	`
	insertUserQuery = `
		INSERT INTO users (email, password, full_name, phone, role, points, rank_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING user_id
	`
	setUserRankQuery = `
		UPDATE users SET rank_id = $1 WHERE user_id = $2
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByIDQuery, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, getUserByEmailQuery, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, u User) (User, error) {
	err := r.db.QueryRowContext(ctx, insertUserQuery,
		u.Email, u.Password, u.FullName, u.Phone, u.Role, u.Points, u.RankID,
	).Scan(&u.ID)
	if err != nil {
		// 23505 is unique_violation on the email index
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) SetUserRank(ctx context.Context, userID, rankID int) error {
	if _, err := r.db.ExecContext(ctx, setUserRankQuery, rankID, userID); err != nil {
		return fmt.Errorf("set rank for user %d: %w", userID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(scanner rowScanner) (User, error) {
	var (
		u      User
		points sql.NullInt64
		rankID sql.NullInt64
	)
	if err := scanner.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Phone, &u.Role, &points, &rankID); err != nil {
		return User{}, err
	}
	u.Points = int(points.Int64)
	if rankID.Valid {
		v := int(rankID.Int64)
		u.RankID = &v
	}
	return u, nil
}
