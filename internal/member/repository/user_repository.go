package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"rental_chat_service/internal/member/domain"
)

// UserRepository definition get user info
type UserRepository interface {
	FindByID(ctx context.Context, userID uint) (*domain.User, error)
	Exists(ctx context.Context, userID uint) (bool, error)
	SaveFcmToken(ctx context.Context, userID uint, token string) error
}

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository create a UserRepository
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

// FindByID 找不到時回 (nil, nil)，由 usecase 對應成 NotFound
func (r *userRepository) FindByID(ctx context.Context, userID uint) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		"SELECT id, nickname, COALESCE(profile_image_url, ''), COALESCE(fcm_token, '') FROM users WHERE id = $1 AND deleted_at IS NULL",
		userID)

	var user domain.User
	err := row.Scan(&user.ID, &user.Nickname, &user.ProfileImageURL, &user.FcmToken)
	if err != nil {
		if err == pgx.ErrNoRows || err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, userID uint) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)",
		userID).Scan(&exists)
	return exists, err
}

func (r *userRepository) SaveFcmToken(ctx context.Context, userID uint, token string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE users SET fcm_token = $1 WHERE id = $2", token, userID)
	return err
}
