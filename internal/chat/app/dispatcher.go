package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"rental_chat_service/internal/chat/domain"
	"rental_chat_service/internal/chat/repository"
	member_repo "rental_chat_service/internal/member/repository"
	"rental_chat_service/pkg/database"
	"rental_chat_service/pkg/logger"
)

// EventWriter definition chat-events writer (*kafka.Writer 實作)
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// DispatchUseCase 訊息落地後的 fan-out：
// room broadcast、兩位當事人的列表摘要、對方裝置的 push 工作、chat-events。
// 全部 best-effort，任何一步失敗只記 log，不回滾已寫入的訊息。
type DispatchUseCase struct {
	pubSub    repository.PubSub
	userRepo  member_repo.UserRepository
	rabbit    database.RabbitRepo
	pushQueue string
	events    EventWriter
}

// NewDispatchUseCase init dispatch use case。
// rabbit/events 可為 nil (該路通知直接停用)。
func NewDispatchUseCase(
	pubSub repository.PubSub,
	userRepo member_repo.UserRepository,
	rabbit database.RabbitRepo,
	pushQueue string,
	events EventWriter,
) *DispatchUseCase {
	return &DispatchUseCase{
		pubSub:    pubSub,
		userRepo:  userRepo,
		rabbit:    rabbit,
		pushQueue: pushQueue,
		events:    events,
	}
}

// Dispatch 每則成功 append 的訊息呼叫一次
func (uc *DispatchUseCase) Dispatch(ctx context.Context, room *domain.ChatRoom, msg *domain.ChatMessage) {
	uc.broadcast(room, msg)
	uc.pushRoomListUpdate(room, msg)
	uc.pushNotification(ctx, room, msg)
	uc.emitEvent(ctx, msg)
}

// broadcast 發到聊天室 channel，當下有訂閱的連線才收得到 (不補送)
func (uc *DispatchUseCase) broadcast(room *domain.ChatRoom, msg *domain.ChatMessage) {
	frame := domain.WSResponse{
		Destination: domain.RoomTopic(room.ID),
		Payload:     msg,
	}
	if err := uc.pubSub.Publish(domain.RoomChannel(room.ID), frame); err != nil {
		logger.Log.Error("room broadcast failed",
			zap.Uint("roomID", room.ID), zap.Uint("messageID", msg.ID), zap.Error(err))
	}
}

// pushRoomListUpdate 發列表摘要給發送者與對方 (兩邊的列表畫面都要刷新)
func (uc *DispatchUseCase) pushRoomListUpdate(room *domain.ChatRoom, msg *domain.ChatMessage) {
	update := domain.RoomListUpdate{
		RoomID:             room.ID,
		LastMessageContent: msg.PreviewText(),
		LastMessageTime:    msg.SentAt,
	}
	frame := domain.WSResponse{
		Destination: domain.DestinationChatListUpdate,
		Payload:     update,
	}

	for _, userID := range []uint{msg.SenderID, room.OtherParty(msg.SenderID)} {
		if err := uc.pubSub.Publish(domain.UserChannel(userID), frame); err != nil {
			logger.Log.Error("chat-list update push failed",
				zap.Uint("roomID", room.ID), zap.Uint("userID", userID), zap.Error(err))
		}
	}
}

// pushNotification 把 push 工作交給 gateway 佇列，只發給對方。
// 對方沒有註冊裝置 token 時靜默跳過。
func (uc *DispatchUseCase) pushNotification(ctx context.Context, room *domain.ChatRoom, msg *domain.ChatMessage) {
	if uc.rabbit == nil {
		return
	}

	partnerID := room.OtherParty(msg.SenderID)
	receiver, err := uc.userRepo.FindByID(ctx, partnerID)
	if err != nil {
		logger.Log.Error("push receiver lookup failed",
			zap.Uint("userID", partnerID), zap.Error(err))
		return
	}
	if receiver == nil || receiver.FcmToken == "" {
		logger.Log.Warn("receiver has no device token, push skipped",
			zap.Uint("userID", partnerID))
		return
	}

	title := "new message"
	if sender, err := uc.userRepo.FindByID(ctx, msg.SenderID); err == nil && sender != nil {
		title = fmt.Sprintf("new message from %s", sender.Nickname)
	}

	notif := domain.PushNotification{
		Token:  receiver.FcmToken,
		Title:  title,
		Body:   msg.PreviewText(),
		RoomID: room.ID,
	}
	body, err := json.Marshal(notif)
	if err != nil {
		logger.Log.Errorf("push payload marshal failed:", err)
		return
	}

	err = uc.rabbit.Publish("", uc.pushQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		logger.Log.Error("push publish failed",
			zap.Uint("roomID", room.ID), zap.Uint("userID", partnerID), zap.Error(err))
		return
	}

	logger.Log.Info("push handed off",
		zap.Uint("roomID", room.ID), zap.Uint("userID", partnerID))
}

// emitEvent chat-events feed，外部分析用
func (uc *DispatchUseCase) emitEvent(ctx context.Context, msg *domain.ChatMessage) {
	if uc.events == nil {
		return
	}

	event := domain.ChatEvent{
		RoomID:    msg.RoomID,
		MessageID: msg.ID,
		SenderID:  msg.SenderID,
		SentAt:    msg.SentAt,
		HasImage:  msg.HasImage(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("chat event marshal failed:", err)
		return
	}

	err = uc.events.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(msg.RoomID), 10)),
		Value: value,
	})
	if err != nil {
		logger.Log.Error("chat event write failed",
			zap.Uint("roomID", msg.RoomID), zap.Uint("messageID", msg.ID), zap.Error(err))
	}
}
