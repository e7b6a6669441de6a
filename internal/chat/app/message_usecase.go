package app

import (
	"context"
	"fmt"
	"time"

	"rental_chat_service/internal/chat/domain"
	"rental_chat_service/internal/chat/repository"
	member_repo "rental_chat_service/internal/member/repository"
	errprocess "rental_chat_service/pkg/err"
)

// MessageUseCase 負責訊息的寫入、歷史查詢與已讀狀態
type MessageUseCase struct {
	roomRepo   repository.RoomRepository
	msgRepo    repository.MessageRepository
	userRepo   member_repo.UserRepository
	dispatcher *DispatchUseCase
}

// NewMessageUseCase init message use case
func NewMessageUseCase(
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	userRepo member_repo.UserRepository,
	dispatcher *DispatchUseCase,
) *MessageUseCase {
	return &MessageUseCase{
		roomRepo:   roomRepo,
		msgRepo:    msgRepo,
		userRepo:   userRepo,
		dispatcher: dispatcher,
	}
}

// SendMessage 驗證並持久化一則訊息，成功後觸發一次 fan-out。
// fan-out 任何失敗只記 log，不影響已寫入的訊息。
func (uc *MessageUseCase) SendMessage(ctx context.Context, roomID, senderID uint, content, imageURL string) (*domain.ChatMessage, error) {
	if content == "" && imageURL == "" {
		return nil, errprocess.BadInput("message needs content or image")
	}

	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, errprocess.Internal("find room failed", err)
	}
	if room == nil {
		return nil, errprocess.NotFound(fmt.Sprintf("room %d", roomID))
	}

	exists, err := uc.userRepo.Exists(ctx, senderID)
	if err != nil {
		return nil, errprocess.Internal("find sender failed", err)
	}
	if !exists {
		return nil, errprocess.NotFound(fmt.Sprintf("sender %d", senderID))
	}

	msg := &domain.ChatMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		ImageURL: imageURL,
		SentAt:   time.Now(),
	}
	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, errprocess.Internal("insert message failed", err)
	}

	// 持久化已 commit，通知只是 best-effort
	uc.dispatcher.Dispatch(ctx, room, msg)

	return msg, nil
}

// History 全量時間升冪歷史
func (uc *MessageUseCase) History(ctx context.Context, roomID uint) ([]domain.ChatMessage, error) {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, errprocess.Internal("find room failed", err)
	}
	if room == nil {
		return nil, errprocess.NotFound(fmt.Sprintf("room %d", roomID))
	}

	msgs, err := uc.msgRepo.History(ctx, roomID)
	if err != nil {
		return nil, errprocess.Internal("load history failed", err)
	}
	return msgs, nil
}

// Latest 最新一筆，沒有訊息回 nil
func (uc *MessageUseCase) Latest(ctx context.Context, roomID uint) (*domain.ChatMessage, error) {
	msg, err := uc.msgRepo.Latest(ctx, roomID)
	if err != nil {
		return nil, errprocess.Internal("find latest message failed", err)
	}
	return msg, nil
}

// UnreadCount 對方傳來且未讀的訊息數
func (uc *MessageUseCase) UnreadCount(ctx context.Context, roomID, viewerID uint) (int64, error) {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return 0, errprocess.Internal("find room failed", err)
	}
	if room == nil {
		return 0, errprocess.NotFound(fmt.Sprintf("room %d", roomID))
	}
	count, err := uc.msgRepo.CountUnread(ctx, roomID, viewerID)
	if err != nil {
		return 0, errprocess.Internal("count unread failed", err)
	}
	return count, nil
}

// MarkRead 批次把對方訊息翻成已讀。沒有可翻的訊息也是成功。
func (uc *MessageUseCase) MarkRead(ctx context.Context, roomID, viewerID uint) error {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return errprocess.Internal("find room failed", err)
	}
	if room == nil {
		return errprocess.NotFound(fmt.Sprintf("room %d", roomID))
	}
	if err := uc.msgRepo.MarkRead(ctx, roomID, viewerID); err != nil {
		return errprocess.Internal("mark read failed", err)
	}
	return nil
}
