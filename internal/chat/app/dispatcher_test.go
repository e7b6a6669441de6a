package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rental_chat_service/internal/chat/domain"
	member_domain "rental_chat_service/internal/member/domain"
	"rental_chat_service/pkg/logger"
)

// 測試 DispatchUseCase.Dispatch
func TestDispatchUseCase_Dispatch(t *testing.T) {
	ctx := context.Background()

	logger.SetNewNop()

	room := &domain.ChatRoom{ID: 42, ItemID: 7, LenderID: 1, BorrowerID: 2}
	msg := &domain.ChatMessage{ID: 9, RoomID: 42, SenderID: 1, Content: "hello", SentAt: time.Now()}

	// **情境 1: 全部通路都通，push 只發給對方**
	t.Run("完整 fan-out", func(t *testing.T) {
		mockPubSub := new(MockRedisPubSub)
		mockUserRepo := new(MockUserRepository)
		mockRabbit := new(MockRabbitRepo)
		mockEvents := new(MockEventWriter)

		mockPubSub.On("Publish", domain.RoomChannel(42), mock.Anything).Return(nil).Once()
		mockPubSub.On("Publish", domain.UserChannel(1), mock.Anything).Return(nil).Once()
		mockPubSub.On("Publish", domain.UserChannel(2), mock.Anything).Return(nil).Once()

		// 對方有裝置 token，push 工作進佇列
		mockUserRepo.On("FindByID", ctx, uint(2)).
			Return(&member_domain.User{ID: 2, Nickname: "borrower", FcmToken: "device-token"}, nil).Once()
		mockUserRepo.On("FindByID", ctx, uint(1)).
			Return(&member_domain.User{ID: 1, Nickname: "lender"}, nil).Once()
		mockRabbit.On("Publish", "", "chat.push", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
			var notif domain.PushNotification
			if err := json.Unmarshal(p.Body, &notif); err != nil {
				return false
			}
			return notif.Token == "device-token" &&
				notif.Title == "new message from lender" &&
				notif.Body == "hello" &&
				notif.RoomID == 42
		})).Return(nil).Once()

		mockEvents.On("WriteMessages", ctx, mock.Anything).Return(nil).Once()

		uc := NewDispatchUseCase(mockPubSub, mockUserRepo, mockRabbit, "chat.push", mockEvents)
		uc.Dispatch(ctx, room, msg)

		mockPubSub.AssertExpectations(t)
		mockRabbit.AssertExpectations(t)
		mockEvents.AssertExpectations(t)
	})

	// **情境 2: 對方沒有裝置 token，靜默跳過 push**
	t.Run("無 token 跳過 push", func(t *testing.T) {
		mockPubSub := new(MockRedisPubSub)
		mockUserRepo := new(MockUserRepository)
		mockRabbit := new(MockRabbitRepo)

		mockPubSub.On("Publish", mock.Anything, mock.Anything).Return(nil)
		mockUserRepo.On("FindByID", ctx, uint(2)).
			Return(&member_domain.User{ID: 2, Nickname: "borrower"}, nil).Once()

		uc := NewDispatchUseCase(mockPubSub, mockUserRepo, mockRabbit, "chat.push", nil)
		uc.Dispatch(ctx, room, msg)

		mockRabbit.AssertNotCalled(t, "Publish",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	// **情境 3: 任一通路失敗都不 panic，其餘通路照常**
	t.Run("單一通路失敗不中斷", func(t *testing.T) {
		mockPubSub := new(MockRedisPubSub)
		mockUserRepo := new(MockUserRepository)
		mockEvents := new(MockEventWriter)

		mockPubSub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))
		mockEvents.On("WriteMessages", ctx, mock.Anything).Return(nil).Once()

		uc := NewDispatchUseCase(mockPubSub, mockUserRepo, nil, "", mockEvents)

		assert.NotPanics(t, func() {
			uc.Dispatch(ctx, room, msg)
		})
		mockEvents.AssertExpectations(t)
	})

	// **情境 4: 圖片訊息的 push body 用預覽字串**
	t.Run("圖片訊息預覽", func(t *testing.T) {
		mockPubSub := new(MockRedisPubSub)
		mockUserRepo := new(MockUserRepository)
		mockRabbit := new(MockRabbitRepo)

		imgMsg := &domain.ChatMessage{ID: 10, RoomID: 42, SenderID: 2, ImageURL: "img.jpg", SentAt: time.Now()}

		mockPubSub.On("Publish", mock.Anything, mock.Anything).Return(nil)
		mockUserRepo.On("FindByID", ctx, uint(1)).
			Return(&member_domain.User{ID: 1, Nickname: "lender", FcmToken: "lender-token"}, nil).Once()
		mockUserRepo.On("FindByID", ctx, uint(2)).
			Return(&member_domain.User{ID: 2, Nickname: "borrower"}, nil).Once()
		mockRabbit.On("Publish", "", "chat.push", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
			var notif domain.PushNotification
			if err := json.Unmarshal(p.Body, &notif); err != nil {
				return false
			}
			return notif.Body == domain.PreviewPhoto && notif.Token == "lender-token"
		})).Return(nil).Once()

		uc := NewDispatchUseCase(mockPubSub, mockUserRepo, mockRabbit, "chat.push", nil)
		uc.Dispatch(ctx, room, imgMsg)

		mockRabbit.AssertExpectations(t)
	})
}
