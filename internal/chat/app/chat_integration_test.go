package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"rental_chat_service/internal/chat/domain"
	"rental_chat_service/internal/chat/repository"
	member_repo "rental_chat_service/internal/member/repository"
	"rental_chat_service/pkg/database"
	"rental_chat_service/pkg/logger"
	"rental_chat_service/pkg/middlewares"
	testtool "rental_chat_service/pkg/test_tool"
	"rental_chat_service/pkg/token"
)

// **測試用的容器與服務**
var chatApp *fiber.App
var testRoomUC *RoomUseCase
var testMessageUC *MessageUseCase

// **TestMain 初始化測試環境**
func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	// **啟動 PostgreSQL**
	pgContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "chat",
			"POSTGRES_PASSWORD": "chat",
			"POSTGRES_DB":       "chat_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	fmt.Printf("PostgreSQL running at %s:%s\n", pgHost, pgPort)

	// **啟動 Redis**
	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "redis:latest",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start Redis container: %v", err)
	}
	fmt.Printf("Redis running at %s:%s\n", redisHost, redisPort)

	// **初始化 PostgreSQL (gorm + pgx pool)**
	gormDB, err := database.NewPGConnection(database.Connection{
		ConnectStr: fmt.Sprintf("host=%s port=%s user=chat password=chat dbname=chat_test sslmode=disable",
			pgHost, pgPort),
		RetryCount:    10,
		RetryInterval: 2,
	})
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    fmt.Sprintf("postgres://chat:chat@%s:%s/chat_test", pgHost, pgPort),
		RetryCount:    10,
		RetryInterval: 2,
	})
	if err != nil {
		log.Fatalf("Failed to create pgx pool: %v", err)
	}

	// **建表 + 種子資料 (users/items 由外部系統管理，測試自己準備)**
	seedSQL := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			nickname TEXT NOT NULL,
			profile_image_url TEXT,
			fcm_token TEXT,
			deleted_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id SERIAL PRIMARY KEY,
			name TEXT,
			deleted_at TIMESTAMP
		)`,
		`INSERT INTO users (nickname) VALUES ('lender-one'), ('borrower-two')`,
		`INSERT INTO items (name) VALUES ('camping tent')`,
	}
	for _, stmt := range seedSQL {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	// **初始化 Redis**
	redisClient, err := database.NewRedisClient(fmt.Sprintf("%s:%s", redisHost, redisPort), 0)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// **初始化 Repository**
	roomRepo := repository.NewRoomRepository(gormDB)
	msgRepo := repository.NewMessageRepository(gormDB)
	itemRepo := repository.NewItemRepository(pool)
	userRepo := member_repo.NewUserRepository(pool)
	pubSub := repository.NewRedisPubSub(redisClient)

	if err := roomRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate chat_rooms: %v", err)
	}
	if err := msgRepo.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate chat_messages: %v", err)
	}

	// **初始化 UseCases (rabbit/kafka 在整合測試停用)**
	dispatcher := NewDispatchUseCase(pubSub, userRepo, nil, "", nil)
	testRoomUC = NewRoomUseCase(roomRepo, msgRepo, itemRepo, userRepo)
	testMessageUC = NewMessageUseCase(roomRepo, msgRepo, userRepo, dispatcher)

	chatHandler := NewChatHandler(testRoomUC, testMessageUC, userRepo, nil)
	wsHandler := NewChatWebsocketHandler(testMessageUC, pubSub)

	// **初始化 Fiber Server (路由直接掛，避免 import cycle)**
	chatApp = fiber.New()
	chatApp.Get("/ws", middlewares.HandshakeAuth(), websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(context.Background(), c)
	}))
	chatRoutes := chatApp.Group("/api/chat")
	chatRoutes.Use(middlewares.JWTMiddleware())
	chatRoutes.Post("/room", chatHandler.CreateRoom)
	chatRoutes.Get("/rooms", chatHandler.ListRooms)
	chatRoutes.Get("/history/:roomId", chatHandler.History)
	chatRoutes.Post("/room/:roomId/message", chatHandler.SendMessage)
	chatRoutes.Post("/room/:roomId/read", chatHandler.MarkRead)

	go func() {
		if err := chatApp.Listen(":8082"); err != nil {
			log.Fatalf("Failed to start WebSocket server: %v", err)
		}
	}()
	time.Sleep(3 * time.Second)

	// **執行測試**
	code := m.Run()

	// **清理測試環境**
	_ = pgContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	_ = chatApp.Shutdown()

	os.Exit(code)
}

func bearerReq(method, url string, body io.Reader, userID uint) *http.Request {
	jwt, _ := token.GenerateJWT(userID, "chat_service")
	req := httptest.NewRequest(method, url, body)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+jwt)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

// REST 流程: 建房 -> 傳兩則 -> 歷史排序 -> 已讀
func TestRestChatFlow(t *testing.T) {
	// 建立聊天室
	resp, err := chatApp.Test(bearerReq("POST", "/api/chat/room",
		strings.NewReader(`{"itemId":1,"lenderId":1,"borrowerId":2}`), 1), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var room domain.ChatRoom
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&room))
	assert.NotZero(t, room.ID)

	// 同 triple 再建一次，回同一間
	resp, err = chatApp.Test(bearerReq("POST", "/api/chat/room",
		strings.NewReader(`{"itemId":1,"lenderId":1,"borrowerId":2}`), 1), -1)
	assert.NoError(t, err)
	var again domain.ChatRoom
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&again))
	assert.Equal(t, room.ID, again.ID)

	// 用戶 1 傳兩則訊息
	for _, content := range []string{"first", "second"} {
		body := fmt.Sprintf(`{"content":%q}`, content)
		resp, err = chatApp.Test(bearerReq("POST",
			fmt.Sprintf("/api/chat/room/%d/message", room.ID), strings.NewReader(body), 1), -1)
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	// 用戶 2 未讀 2
	count, err := testMessageUC.UnreadCount(context.Background(), room.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// 用戶 2 打開歷史，順序正確且觸發已讀
	resp, err = chatApp.Test(bearerReq("GET",
		fmt.Sprintf("/api/chat/history/%d", room.ID), nil, 2), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var history []domain.ChatMessage
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	assert.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[1].Content)

	count, err = testMessageUC.UnreadCount(context.Background(), room.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// 列表帶預覽
	resp, err = chatApp.Test(bearerReq("GET", "/api/chat/rooms", nil, 2), -1)
	assert.NoError(t, err)
	var entries []domain.ChatRoomListEntry
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.NotEmpty(t, entries)
	assert.Equal(t, "second", entries[0].LastMessageContent)
	assert.Equal(t, "lender-one", entries[0].PartnerNickname)
}

// 不存在的房間回 404
func TestRestRoomNotFound(t *testing.T) {
	resp, err := chatApp.Test(bearerReq("GET", "/api/chat/history/99999", nil, 1), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// 沒有 token 的 REST 請求被擋
func TestRestUnauthorized(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/chat/rooms", nil)
	resp, err := chatApp.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// WebSocket 流程: 訂閱房間 -> 傳訊息 -> 收到 receipt 與 broadcast
func TestWebsocketSignalFlow(t *testing.T) {
	ctx := context.Background()
	room, err := testRoomUC.FindOrCreateRoom(ctx, 1, 1, 2)
	assert.NoError(t, err)

	jwtSender, _ := token.GenerateJWT(2, "chat_service")
	jwtViewer, _ := token.GenerateJWT(1, "chat_service")

	dialer := gws.DefaultDialer

	// 用戶 1 連上並訂閱房間 channel
	viewer, _, err := dialer.Dial("ws://127.0.0.1:8082/ws?auth="+jwtViewer, nil)
	assert.NoError(t, err, "WebSocket 連線失敗")
	defer viewer.Close()

	subFrame := fmt.Sprintf(`{"destination":"subscribe/signal/%d"}`, room.ID)
	assert.NoError(t, viewer.WriteMessage(gws.TextMessage, []byte(subFrame)))

	_, ack, err := viewer.ReadMessage()
	assert.NoError(t, err)
	assert.Contains(t, string(ack), "subscribed")

	// 用戶 2 連上並送出 signal frame
	sender, _, err := dialer.Dial("ws://127.0.0.1:8082/ws?auth="+jwtSender, nil)
	assert.NoError(t, err, "WebSocket 連線失敗")
	defer sender.Close()

	signalFrame := fmt.Sprintf(`{"destination":"signal/%d","senderId":2,"content":"over websocket"}`, room.ID)
	assert.NoError(t, sender.WriteMessage(gws.TextMessage, []byte(signalFrame)))

	// sender 收到 receipt
	sender.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, receipt, err := sender.ReadMessage()
	assert.NoError(t, err)
	assert.Contains(t, string(receipt), "over websocket")

	// viewer 收到房間 broadcast 與列表摘要 (順序不保證)
	destinations := map[string]bool{}
	viewer.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < 2; i++ {
		_, raw, err := viewer.ReadMessage()
		assert.NoError(t, err)

		var frame domain.WSResponse
		assert.NoError(t, json.Unmarshal(raw, &frame))
		destinations[frame.Destination] = true
	}
	assert.True(t, destinations[domain.RoomTopic(room.ID)], "missing room broadcast")
	assert.True(t, destinations[domain.DestinationChatListUpdate], "missing chat-list update")
}

// 未帶 token 的連線可以建立，但送訊息會收到 error frame
func TestWebsocketUnauthenticatedSend(t *testing.T) {
	conn, _, err := gws.DefaultDialer.Dial("ws://127.0.0.1:8082/ws", nil)
	assert.NoError(t, err, "WebSocket 連線失敗")
	defer conn.Close()

	frame := `{"destination":"signal/1","senderId":2,"content":"should fail"}`
	assert.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(frame)))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, raw, err := conn.ReadMessage()
	assert.NoError(t, err)

	var resp domain.WSResponse
	assert.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, domain.DestinationError, resp.Destination)
	assert.NotEmpty(t, resp.Error)
}
