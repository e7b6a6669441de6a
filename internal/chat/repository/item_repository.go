package repository

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ItemRepository definition listing 存在性查詢。
// listing CRUD 由外部商品系統管理，聊天核心只需要確認 room 綁定的 listing 存在。
type ItemRepository interface {
	Exists(ctx context.Context, itemID uint) (bool, error)
}

type itemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository create ItemRepository
func NewItemRepository(db *pgxpool.Pool) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Exists(ctx context.Context, itemID uint) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM items WHERE id = $1 AND deleted_at IS NULL)",
		itemID).Scan(&exists)
	return exists, err
}
