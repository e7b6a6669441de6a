package bdd

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"rental_chat_service/internal/chat/app"
	"rental_chat_service/internal/chat/domain"
	member_domain "rental_chat_service/internal/member/domain"
	"rental_chat_service/pkg/logger"
)

func TestFeatures(t *testing.T) {
	logger.SetNewNop()

	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Paths:  []string{"./featureFiles"}, // 指向 feature 檔相對路徑
			Format: "pretty",
			Output: os.Stdout,
		},
	}

	if suite.Run() != 0 {
		t.Fail()
	}
}

// 這個函式用來註冊 Gherkin 與 Step Definition 的對應
func InitializeScenario(s *godog.ScenarioContext) {
	w := &chatWorld{}
	s.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		w.reset()
		return ctx, nil
	})

	s.Step(`^物品 (\d+) 的出借人 (\d+) 與借用人 (\d+) 建立了聊天室$`, w.roomExists)
	s.Step(`^用戶 (\d+) 傳送訊息 "([^"]*)"$`, w.sendMessage)
	s.Step(`^用戶 (\d+) 傳送圖片訊息$`, w.sendImageMessage)
	s.Step(`^用戶 (\d+) 的未讀數應該是 (\d+)$`, w.unreadShouldBe)
	s.Step(`^用戶 (\d+) 打開聊天室$`, w.openRoom)
	s.Step(`^用戶 (\d+) 的聊天室列表預覽應該是 "([^"]*)"$`, w.previewShouldBe)
	s.Step(`^再次以物品 (\d+) 出借人 (\d+) 借用人 (\d+) 建立聊天室$`, w.createRoomAgain)
	s.Step(`^應該回到同一間聊天室$`, w.sameRoom)
	s.Step(`^傳送應該失敗$`, w.sendShouldFail)
}

// chatWorld 一個 scenario 的狀態：in-memory 存儲 + 真實 usecase
type chatWorld struct {
	roomUC    *app.RoomUseCase
	messageUC *app.MessageUseCase

	room       *domain.ChatRoom
	secondRoom *domain.ChatRoom
	lastErr    error
}

func (w *chatWorld) reset() {
	rooms := &memRoomRepo{}
	msgs := &memMessageRepo{}
	items := &memItemRepo{items: map[uint]bool{7: true}}
	users := &memUserRepo{users: map[uint]*member_domain.User{
		1: {ID: 1, Nickname: "lender-one"},
		2: {ID: 2, Nickname: "borrower-two"},
	}}
	pubSub := &memPubSub{}

	dispatcher := app.NewDispatchUseCase(pubSub, users, nil, "", nil)
	w.roomUC = app.NewRoomUseCase(rooms, msgs, items, users)
	w.messageUC = app.NewMessageUseCase(rooms, msgs, users, dispatcher)
	w.room = nil
	w.secondRoom = nil
	w.lastErr = nil
}

func (w *chatWorld) roomExists(itemID, lenderID, borrowerID int) error {
	room, err := w.roomUC.FindOrCreateRoom(context.Background(), uint(itemID), uint(lenderID), uint(borrowerID))
	if err != nil {
		return err
	}
	w.room = room
	return nil
}

func (w *chatWorld) sendMessage(senderID int, content string) error {
	_, err := w.messageUC.SendMessage(context.Background(), w.room.ID, uint(senderID), content, "")
	w.lastErr = err
	if content == "" {
		// 空訊息的結果交給「傳送應該失敗」驗證
		return nil
	}
	return err
}

func (w *chatWorld) sendImageMessage(senderID int) error {
	_, err := w.messageUC.SendMessage(context.Background(), w.room.ID, uint(senderID), "", "http://minio/chat-images/chat/1/img.jpg")
	w.lastErr = err
	return err
}

func (w *chatWorld) unreadShouldBe(userID, expected int) error {
	count, err := w.messageUC.UnreadCount(context.Background(), w.room.ID, uint(userID))
	if err != nil {
		return err
	}
	if count != int64(expected) {
		return fmt.Errorf("expected unread %d, got %d", expected, count)
	}
	return nil
}

func (w *chatWorld) openRoom(userID int) error {
	// 打開聊天室 = 讀歷史 + 標已讀
	if _, err := w.messageUC.History(context.Background(), w.room.ID); err != nil {
		return err
	}
	return w.messageUC.MarkRead(context.Background(), w.room.ID, uint(userID))
}

func (w *chatWorld) previewShouldBe(userID int, expected string) error {
	entries, err := w.roomUC.ListMyRooms(context.Background(), uint(userID))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.RoomID == w.room.ID {
			if entry.LastMessageContent != expected {
				return fmt.Errorf("expected preview %q, got %q", expected, entry.LastMessageContent)
			}
			return nil
		}
	}
	return fmt.Errorf("room %d not in list for user %d", w.room.ID, userID)
}

func (w *chatWorld) createRoomAgain(itemID, lenderID, borrowerID int) error {
	room, err := w.roomUC.FindOrCreateRoom(context.Background(), uint(itemID), uint(lenderID), uint(borrowerID))
	if err != nil {
		return err
	}
	w.secondRoom = room
	return nil
}

func (w *chatWorld) sameRoom() error {
	if w.secondRoom == nil || w.room == nil {
		return fmt.Errorf("rooms not created")
	}
	if w.secondRoom.ID != w.room.ID {
		return fmt.Errorf("expected room %d, got %d", w.room.ID, w.secondRoom.ID)
	}
	return nil
}

func (w *chatWorld) sendShouldFail() error {
	if w.lastErr == nil {
		return fmt.Errorf("expected send to fail")
	}
	return nil
}

// --- in-memory 實作,只給 BDD 用 ---

type memRoomRepo struct {
	rooms  []domain.ChatRoom
	nextID uint
}

func (r *memRoomRepo) AutoMigrate() error { return nil }

func (r *memRoomRepo) FindOrCreate(ctx context.Context, itemID, lenderID, borrowerID uint) (*domain.ChatRoom, error) {
	for i := range r.rooms {
		room := &r.rooms[i]
		if room.ItemID == itemID && room.LenderID == lenderID && room.BorrowerID == borrowerID {
			return room, nil
		}
	}
	r.nextID++
	room := domain.ChatRoom{
		ID: r.nextID, ItemID: itemID, LenderID: lenderID, BorrowerID: borrowerID,
		CreatedAt: time.Now(),
	}
	r.rooms = append(r.rooms, room)
	return &r.rooms[len(r.rooms)-1], nil
}

func (r *memRoomRepo) FindByID(ctx context.Context, roomID uint) (*domain.ChatRoom, error) {
	for i := range r.rooms {
		if r.rooms[i].ID == roomID {
			return &r.rooms[i], nil
		}
	}
	return nil, nil
}

func (r *memRoomRepo) FindByUser(ctx context.Context, userID uint) ([]domain.ChatRoom, error) {
	var out []domain.ChatRoom
	for _, room := range r.rooms {
		if room.HasParty(userID) {
			out = append(out, room)
		}
	}
	return out, nil
}

type memMessageRepo struct {
	msgs   []domain.ChatMessage
	nextID uint
}

func (r *memMessageRepo) AutoMigrate() error { return nil }

func (r *memMessageRepo) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	r.nextID++
	msg.ID = r.nextID
	r.msgs = append(r.msgs, *msg)
	return nil
}

func (r *memMessageRepo) History(ctx context.Context, roomID uint) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, m := range r.msgs {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessageRepo) Latest(ctx context.Context, roomID uint) (*domain.ChatMessage, error) {
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].RoomID == roomID {
			m := r.msgs[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memMessageRepo) CountUnread(ctx context.Context, roomID, viewerID uint) (int64, error) {
	var count int64
	for _, m := range r.msgs {
		if m.RoomID == roomID && m.SenderID != viewerID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memMessageRepo) MarkRead(ctx context.Context, roomID, viewerID uint) error {
	for i := range r.msgs {
		if r.msgs[i].RoomID == roomID && r.msgs[i].SenderID != viewerID {
			r.msgs[i].IsRead = true
		}
	}
	return nil
}

type memItemRepo struct {
	items map[uint]bool
}

func (r *memItemRepo) Exists(ctx context.Context, itemID uint) (bool, error) {
	return r.items[itemID], nil
}

type memUserRepo struct {
	users map[uint]*member_domain.User
}

func (r *memUserRepo) FindByID(ctx context.Context, userID uint) (*member_domain.User, error) {
	return r.users[userID], nil
}

func (r *memUserRepo) Exists(ctx context.Context, userID uint) (bool, error) {
	return r.users[userID] != nil, nil
}

func (r *memUserRepo) SaveFcmToken(ctx context.Context, userID uint, token string) error {
	if user := r.users[userID]; user != nil {
		user.FcmToken = token
	}
	return nil
}

type memPubSub struct {
	frames []domain.WSResponse
}

func (p *memPubSub) Publish(channel string, message interface{}) error {
	if frame, ok := message.(domain.WSResponse); ok {
		p.frames = append(p.frames, frame)
	}
	return nil
}

func (p *memPubSub) Subscribe(ctx context.Context, channel string, handler func(resp domain.WSResponse)) error {
	return nil
}
