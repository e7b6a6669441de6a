package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rental_chat_service/internal/chat/domain"
)

// MessageRepository definition chat message log
type MessageRepository interface {
	AutoMigrate() error
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	History(ctx context.Context, roomID uint) ([]domain.ChatMessage, error)
	Latest(ctx context.Context, roomID uint) (*domain.ChatMessage, error)
	CountUnread(ctx context.Context, roomID, viewerID uint) (int64, error)
	MarkRead(ctx context.Context, roomID, viewerID uint) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository create MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// AutoMigrate 建表，含 (room_id, sent_at) 索引
func (r *messageRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.ChatMessage{})
}

// Insert 寫入一筆訊息，ID 由 DB 遞增
func (r *messageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// History 全量歷史。sent_at 相同時用 id 保序，與寫入順序一致。
func (r *messageRepository) History(ctx context.Context, roomID uint) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sent_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// Latest 最新一筆，列表預覽用。沒有訊息時回 (nil, nil)。
func (r *messageRepository) Latest(ctx context.Context, roomID uint) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sent_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// CountUnread 對方傳來且未讀的訊息數
func (r *messageRepository) CountUnread(ctx context.Context, roomID, viewerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ChatMessage{}).
		Where("room_id = ? AND sender_id <> ? AND is_read = ?", roomID, viewerID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 單一 UPDATE 批次翻已讀。沒有可翻的列時也是成功 (幂等)。
func (r *messageRepository) MarkRead(ctx context.Context, roomID, viewerID uint) error {
	return r.db.WithContext(ctx).Model(&domain.ChatMessage{}).
		Where("room_id = ? AND sender_id <> ? AND is_read = ?", roomID, viewerID, false).
		Update("is_read", true).Error
}
