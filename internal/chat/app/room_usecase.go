package app

import (
	"context"
	"fmt"

	"rental_chat_service/internal/chat/domain"
	"rental_chat_service/internal/chat/repository"
	member_repo "rental_chat_service/internal/member/repository"
	errprocess "rental_chat_service/pkg/err"
)

// RoomUseCase 負責聊天室的建立與查詢
type RoomUseCase struct {
	roomRepo repository.RoomRepository
	msgRepo  repository.MessageRepository
	itemRepo repository.ItemRepository
	userRepo member_repo.UserRepository
}

// NewRoomUseCase init room use case
func NewRoomUseCase(
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	itemRepo repository.ItemRepository,
	userRepo member_repo.UserRepository,
) *RoomUseCase {
	return &RoomUseCase{
		roomRepo: roomRepo,
		msgRepo:  msgRepo,
		itemRepo: itemRepo,
		userRepo: userRepo,
	}
}

// FindOrCreateRoom 依 (item, lender, borrower) 找聊天室，沒有就建立。
// 重覆呼叫回同一間 room。三個 id 有缺就 NotFound。
func (uc *RoomUseCase) FindOrCreateRoom(ctx context.Context, itemID, lenderID, borrowerID uint) (*domain.ChatRoom, error) {
	exists, err := uc.itemRepo.Exists(ctx, itemID)
	if err != nil {
		return nil, errprocess.Internal("find item failed", err)
	}
	if !exists {
		return nil, errprocess.NotFound(fmt.Sprintf("item %d", itemID))
	}

	for _, userID := range []uint{lenderID, borrowerID} {
		exists, err := uc.userRepo.Exists(ctx, userID)
		if err != nil {
			return nil, errprocess.Internal("find user failed", err)
		}
		if !exists {
			return nil, errprocess.NotFound(fmt.Sprintf("user %d", userID))
		}
	}

	room, err := uc.roomRepo.FindOrCreate(ctx, itemID, lenderID, borrowerID)
	if err != nil {
		return nil, errprocess.Internal("find or create room failed", err)
	}
	return room, nil
}

// GetRoomByID get room, NotFound when absent
func (uc *RoomUseCase) GetRoomByID(ctx context.Context, roomID uint) (*domain.ChatRoom, error) {
	room, err := uc.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return nil, errprocess.Internal("find room failed", err)
	}
	if room == nil {
		return nil, errprocess.NotFound(fmt.Sprintf("room %d", roomID))
	}
	return room, nil
}

// ListMyRooms 使用者參與中的聊天室列表，每筆帶對方資訊、最新訊息預覽與未讀數
func (uc *RoomUseCase) ListMyRooms(ctx context.Context, userID uint) ([]domain.ChatRoomListEntry, error) {
	exists, err := uc.userRepo.Exists(ctx, userID)
	if err != nil {
		return nil, errprocess.Internal("find user failed", err)
	}
	if !exists {
		return nil, errprocess.NotFound(fmt.Sprintf("user %d", userID))
	}

	rooms, err := uc.roomRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, errprocess.Internal("list rooms failed", err)
	}

	entries := make([]domain.ChatRoomListEntry, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		entry := domain.ChatRoomListEntry{
			RoomID:    room.ID,
			ItemID:    room.ItemID,
			PartnerID: room.OtherParty(userID),
		}

		if partner, err := uc.userRepo.FindByID(ctx, entry.PartnerID); err == nil && partner != nil {
			entry.PartnerNickname = partner.Nickname
			entry.PartnerProfileImageURL = partner.ProfileImageURL
		}

		latest, err := uc.msgRepo.Latest(ctx, room.ID)
		if err != nil {
			return nil, errprocess.Internal("find latest message failed", err)
		}
		if latest != nil {
			entry.LastMessageContent = latest.PreviewText()
			entry.LastMessageTime = latest.SentAt
		} else {
			// room 剛建立還沒有訊息
			entry.LastMessageContent = domain.PreviewFallback
			entry.LastMessageTime = room.CreatedAt
		}

		unread, err := uc.msgRepo.CountUnread(ctx, room.ID, userID)
		if err != nil {
			return nil, errprocess.Internal("count unread failed", err)
		}
		entry.UnreadCount = unread

		entries = append(entries, entry)
	}

	return entries, nil
}
