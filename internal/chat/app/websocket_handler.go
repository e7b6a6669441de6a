package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"rental_chat_service/internal/chat/domain"
	"rental_chat_service/internal/chat/repository"
	errprocess "rental_chat_service/pkg/err"
	"rental_chat_service/pkg/logger"
	"rental_chat_service/pkg/middlewares"
)

// ChatWebsocketHandler 處理長連線：handshake 綁定的 principal、
// 訂閱自己的私人 channel、收發 signal frame
type ChatWebsocketHandler struct {
	messageUC *MessageUseCase
	pubSub    repository.PubSub
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(messageUC *MessageUseCase, pubSub repository.PubSub) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		messageUC: messageUC,
		pubSub:    pubSub,
	}
}

// connState 單一連線的狀態。principal 在 handshake 綁定一次，
// 連線存續期間不再重新驗證。
type connState struct {
	userID    uint
	authed    bool
	leaveRoom context.CancelFunc
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	state := &connState{}
	if userID, ok := conn.Locals(middlewares.TokenUserID).(uint); ok {
		state.userID = userID
		state.authed = true
	}
	logger.Log.Info("websocket handle userID",
		zap.Uint("userID", state.userID), zap.Bool("authed", state.authed))

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		logger.Log.Info("websocket close", zap.Uint("userID", state.userID))
		if state.leaveRoom != nil {
			state.leaveRoom()
		}
		conn.Close()
		cancel()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Infof("Received PONG:", appData)
		return nil
	})

	//client發出ping
	conn.SetPingHandler(func(appData string) error {
		logger.Log.Infof("Received PING:", appData)
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// 有 principal 才收得到私人列表摘要
	if state.authed {
		h.pubSub.Subscribe(ctxClose, domain.UserChannel(state.userID), func(resp domain.WSResponse) {
			h.sendResponse(conn, resp)
		})
	}

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, []byte("ping message")); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketAction(ctx, conn, state, mt, message)
	}
}

func (h *ChatWebsocketHandler) execWebsocketAction(ctx context.Context, conn *websocket.Conn, state *connState, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		h.textMessageAction(ctx, conn, state, msg)
	default:
		h.sendError(conn, "unsupported message type")
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, conn *websocket.Conn, state *connState, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("frame unmarshal error:", err)
		h.sendError(conn, "malformed frame")
		return
	}

	switch {
	// 進入聊天室：訂閱該 room 的 broadcast channel
	case strings.HasPrefix(req.Destination, "subscribe/"):
		roomID, ok := domain.ParseSignalDestination(strings.TrimPrefix(req.Destination, "subscribe/"))
		if !ok {
			h.sendError(conn, "bad destination "+req.Destination)
			return
		}
		if state.leaveRoom != nil {
			state.leaveRoom()
		}
		ctxRoom, cancel := context.WithCancel(context.Background())
		state.leaveRoom = cancel
		h.pubSub.Subscribe(ctxRoom, domain.RoomChannel(roomID), func(resp domain.WSResponse) {
			h.sendResponse(conn, resp)
		})
		h.sendResponse(conn, domain.WSResponse{Destination: req.Destination, Payload: "subscribed"})

	// 離開聊天室
	case strings.HasPrefix(req.Destination, "unsubscribe/"):
		if state.leaveRoom != nil {
			state.leaveRoom()
			state.leaveRoom = nil
		}
		h.sendResponse(conn, domain.WSResponse{Destination: req.Destination, Payload: "unsubscribed"})

	// signal/{roomId}：寫入訊息並觸發 fan-out
	default:
		roomID, ok := domain.ParseSignalDestination(req.Destination)
		if !ok {
			h.sendError(conn, "unknown destination "+req.Destination)
			return
		}

		// handshake 沒綁 principal 的連線到這裡才被擋下
		if !state.authed {
			h.sendError(conn, errprocess.ErrUnauthorized.Error())
			return
		}
		if req.SenderID == 0 {
			h.sendError(conn, "senderId is required")
			return
		}

		saved, err := h.messageUC.SendMessage(ctx, roomID, req.SenderID, req.Content, req.ImageURL)
		if err != nil {
			logger.Log.Error("websocket send message failed",
				zap.Uint("roomID", roomID), zap.Uint("senderID", req.SenderID), zap.Error(err))
			h.sendError(conn, err.Error())
			return
		}
		// receipt 給發送端；room 內其他訂閱者經由 redis broadcast 收到
		h.sendResponse(conn, domain.WSResponse{Destination: req.Destination, Payload: saved})
		logger.Log.Debug("websocket message saved",
			zap.Uint("roomID", roomID), zap.String("messageID", strconv.FormatUint(uint64(saved.ID), 10)))
	}
}

// sendResponse - 發送 JSON frame 給前端
func (h *ChatWebsocketHandler) sendResponse(conn *websocket.Conn, resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Errorf("write message error:", err)
	}
}

func (h *ChatWebsocketHandler) sendError(conn *websocket.Conn, errorMsg string) {
	h.sendResponse(conn, domain.WSResponse{
		Destination: domain.DestinationError,
		Error:       errorMsg,
	})
}
