package app

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/mock"

	"rental_chat_service/internal/chat/domain"
	member_domain "rental_chat_service/internal/member/domain"
)

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// AutoMigrate moke migrate
func (m *MockRoomRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// FindOrCreate moke insert-or-fetch room
func (m *MockRoomRepository) FindOrCreate(ctx context.Context, itemID, lenderID, borrowerID uint) (*domain.ChatRoom, error) {
	args := m.Called(ctx, itemID, lenderID, borrowerID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID moke find room by room id
func (m *MockRoomRepository) FindByID(ctx context.Context, roomID uint) (*domain.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByUser moke find rooms by user id
func (m *MockRoomRepository) FindByUser(ctx context.Context, userID uint) ([]domain.ChatRoom, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// AutoMigrate moke migrate
func (m *MockMessageRepository) AutoMigrate() error {
	args := m.Called()
	return args.Error(0)
}

// Insert moke insert msg
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// History moke find room messages
func (m *MockMessageRepository) History(ctx context.Context, roomID uint) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// Latest moke find latest msg
func (m *MockMessageRepository) Latest(ctx context.Context, roomID uint) (*domain.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// CountUnread moke count unread by viewer
func (m *MockMessageRepository) CountUnread(ctx context.Context, roomID, viewerID uint) (int64, error) {
	args := m.Called(ctx, roomID, viewerID)
	return args.Get(0).(int64), args.Error(1)
}

// MarkRead moke mark msgs as read
func (m *MockMessageRepository) MarkRead(ctx context.Context, roomID, viewerID uint) error {
	args := m.Called(ctx, roomID, viewerID)
	return args.Error(0)
}

// MockItemRepository Mock ItemRepository
type MockItemRepository struct {
	mock.Mock
}

// Exists moke check item exists
func (m *MockItemRepository) Exists(ctx context.Context, itemID uint) (bool, error) {
	args := m.Called(ctx, itemID)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// FindByID moke find user by id
func (m *MockUserRepository) FindByID(ctx context.Context, userID uint) (*member_domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*member_domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// Exists moke check user exists
func (m *MockUserRepository) Exists(ctx context.Context, userID uint) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// SaveFcmToken moke save fcm token
func (m *MockUserRepository) SaveFcmToken(ctx context.Context, userID uint, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

// MockRedisPubSub Mock RedisPubSub
type MockRedisPubSub struct {
	mock.Mock
}

// Publish moke publisher
func (m *MockRedisPubSub) Publish(channel string, message interface{}) error {
	args := m.Called(channel, message)
	return args.Error(0)
}

// Subscribe moke subscriber
func (m *MockRedisPubSub) Subscribe(ctx context.Context, channel string, handler func(resp domain.WSResponse)) error {
	args := m.Called(channel, handler)
	return args.Error(0)
}

// MockRabbitRepo Mock RabbitRepo
type MockRabbitRepo struct {
	mock.Mock
}

// GetRabbit moke get channel
func (m *MockRabbitRepo) GetRabbit() *amqp.Channel {
	return nil
}

// Publish moke publish push job
func (m *MockRabbitRepo) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

// MockEventWriter Mock EventWriter
type MockEventWriter struct {
	mock.Mock
}

// WriteMessages moke write chat events
func (m *MockEventWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}
