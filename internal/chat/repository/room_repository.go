package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rental_chat_service/internal/chat/domain"
)

// RoomRepository definition chat room
type RoomRepository interface {
	AutoMigrate() error
	FindOrCreate(ctx context.Context, itemID, lenderID, borrowerID uint) (*domain.ChatRoom, error)
	FindByID(ctx context.Context, roomID uint) (*domain.ChatRoom, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.ChatRoom, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository create RoomRepository
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

// AutoMigrate 建表，含 (item_id, lender_id, borrower_id) 唯一索引
func (r *roomRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.ChatRoom{})
}

// FindOrCreate 以 DB 唯一索引做 insert-or-fetch。
// 兩個併發 caller 同 triple 同時 miss 時，ON CONFLICT DO NOTHING 收斂成同一列，
// 不靠 application 層 check-then-insert。
func (r *roomRepository) FindOrCreate(ctx context.Context, itemID, lenderID, borrowerID uint) (*domain.ChatRoom, error) {
	room := domain.ChatRoom{
		ItemID:     itemID,
		LenderID:   lenderID,
		BorrowerID: borrowerID,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "item_id"}, {Name: "lender_id"}, {Name: "borrower_id"},
		},
		DoNothing: true,
	}).Create(&room).Error
	if err != nil {
		return nil, err
	}

	// conflict 時 Create 不回填 ID，一律重查一次取得實際那列
	var found domain.ChatRoom
	err = r.db.WithContext(ctx).
		Where("item_id = ? AND lender_id = ? AND borrower_id = ?", itemID, lenderID, borrowerID).
		First(&found).Error
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// FindByID 找不到時回 (nil, nil)
func (r *roomRepository) FindByID(ctx context.Context, roomID uint) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.WithContext(ctx).First(&room, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// FindByUser 使用者參與中的所有聊天室
func (r *roomRepository) FindByUser(ctx context.Context, userID uint) ([]domain.ChatRoom, error) {
	var rooms []domain.ChatRoom
	err := r.db.WithContext(ctx).
		Where("lender_id = ? OR borrower_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
