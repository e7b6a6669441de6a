package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental_chat_service/internal/chat/domain"
	member_domain "rental_chat_service/internal/member/domain"
	member_repo "rental_chat_service/internal/member/repository"
	"rental_chat_service/pkg/database"
	errprocess "rental_chat_service/pkg/err"
	"rental_chat_service/pkg/logger"
	"rental_chat_service/pkg/middlewares"
)

// ChatHandler 处理聊天相关的 HTTP 请求
type ChatHandler struct {
	RoomUC    *RoomUseCase
	MessageUC *MessageUseCase
	UserRepo  member_repo.UserRepository
	Storage   *database.MinIOClient
}

// NewChatHandler 创建新的 ChatHandler
func NewChatHandler(roomUC *RoomUseCase, messageUC *MessageUseCase, userRepo member_repo.UserRepository, storage *database.MinIOClient) *ChatHandler {
	return &ChatHandler{
		RoomUC:    roomUC,
		MessageUC: messageUC,
		UserRepo:  userRepo,
		Storage:   storage,
	}
}

// statusOf 把 usecase 的 sentinel 錯誤對應到 HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, errprocess.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, errprocess.ErrBadInput):
		return fiber.StatusBadRequest
	case errors.Is(err, errprocess.ErrUnauthorized):
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusOf(err)).JSON(fiber.Map{"error": err.Error()})
}

func principal(c *fiber.Ctx) (uint, error) {
	userID, ok := c.Locals(middlewares.TokenUserID).(uint)
	if !ok {
		return 0, fmt.Errorf("c.Locals(%s) is nill", middlewares.TokenUserID)
	}
	return userID, nil
}

// CreateRoom 建立或取得聊天室
// @Summary 建立聊天室
// @Description 以物品、出借人、借用人查找聊天室，不存在則建立
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body domain.CreateRoomRequest true "聊天室请求"
// @Success 200 {object} domain.ChatRoom "聊天室"
// @Failure 400 {object} string "请求错误"
// @Failure 404 {object} string "找不到物品或用户"
// @Router /api/chat/room [post]
func (h *ChatHandler) CreateRoom(c *fiber.Ctx) error {
	var req domain.CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.ItemID == 0 || req.LenderID == 0 || req.BorrowerID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "itemId, lenderId and borrowerId are required"})
	}

	logger.Log.Debug("CreateRoom request",
		zap.Uint("itemID", req.ItemID), zap.Uint("lenderID", req.LenderID), zap.Uint("borrowerID", req.BorrowerID))

	room, err := h.RoomUC.FindOrCreateRoom(c.Context(), req.ItemID, req.LenderID, req.BorrowerID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(room)
}

// History 聊天記錄
// @Summary 取得聊天記錄
// @Description 依時間順序回傳聊天室全部訊息，同時把對方訊息標為已讀
// @Tags Chat
// @Produce json
// @Success 200 {array} domain.ChatMessage "訊息列表"
// @Failure 404 {object} string "找不到聊天室"
// @Router /api/chat/history/{roomId} [get]
func (h *ChatHandler) History(c *fiber.Ctx) error {
	userID, err := principal(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	roomID, err := c.ParamsInt("roomId")
	if err != nil || roomID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "roomId is required"})
	}

	msgs, err := h.MessageUC.History(c.Context(), uint(roomID))
	if err != nil {
		return fail(c, err)
	}

	// 打開聊天室即視為已讀
	if err := h.MessageUC.MarkRead(c.Context(), uint(roomID), userID); err != nil {
		logger.Log.Error("mark read on history failed",
			zap.Int("roomID", roomID), zap.Uint("userID", userID), zap.Error(err))
	}
	return c.JSON(msgs)
}

// SendMessage 傳送訊息
// @Summary 傳送訊息
// @Description 寫入訊息並廣播給聊天室訂閱者
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body domain.SendMessageRequest true "訊息"
// @Success 200 {object} domain.ChatMessage "已儲存訊息"
// @Failure 400 {object} string "请求错误"
// @Failure 404 {object} string "找不到聊天室"
// @Router /api/chat/room/{roomId}/message [post]
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, err := principal(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	roomID, err := c.ParamsInt("roomId")
	if err != nil || roomID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "roomId is required"})
	}

	var req domain.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	msg, err := h.MessageUC.SendMessage(c.Context(), uint(roomID), userID, req.Content, req.ImageURL)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(msg)
}

// UploadImage 上傳聊天圖片
// @Summary 上傳聊天圖片
// @Description multipart 上傳圖片到物件儲存，回傳可用於訊息的 imageUrl
// @Tags Chat
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "圖片"
// @Success 200 {object} string "imageUrl"
// @Failure 400 {object} string "请求错误"
// @Router /api/chat/room/{roomId}/image [post]
func (h *ChatHandler) UploadImage(c *fiber.Ctx) error {
	roomID, err := c.ParamsInt("roomId")
	if err != nil || roomID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "roomId is required"})
	}
	if _, err := h.RoomUC.GetRoomByID(c.Context(), uint(roomID)); err != nil {
		return fail(c, err)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open uploaded file"})
	}
	defer file.Close()

	// object key: chat/{roomId}/{uuid}{ext}
	objectName := fmt.Sprintf("chat/%d/%s%s", roomID, uuid.New().String(), filepath.Ext(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.Storage.UploadStream(c.Context(), objectName, file, fileHeader.Size, contentType); err != nil {
		logger.Log.Error("upload chat image failed", zap.String("object", objectName), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload failed"})
	}

	logger.Log.Info("chat image uploaded", zap.Int("roomID", roomID), zap.String("object", objectName))
	return c.JSON(fiber.Map{"imageUrl": h.Storage.ObjectURL(objectName)})
}

// ListRooms 我的聊天室列表
// @Summary 聊天室列表
// @Description 回傳自己的聊天室，含對方資訊、最後訊息摘要與未讀數
// @Tags Chat
// @Produce json
// @Success 200 {array} domain.ChatRoomListEntry "聊天室列表"
// @Failure 404 {object} string "找不到用户"
// @Router /api/chat/rooms [get]
func (h *ChatHandler) ListRooms(c *fiber.Ctx) error {
	userID, err := principal(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	entries, err := h.RoomUC.ListMyRooms(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entries)
}

// MarkRead 標記已讀
// @Summary 標記已讀
// @Description 把聊天室中對方傳來的訊息全部標為已讀，可重複呼叫
// @Tags Chat
// @Produce json
// @Success 200 {object} string "標記成功"
// @Failure 404 {object} string "找不到聊天室"
// @Router /api/chat/room/{roomId}/read [post]
func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := principal(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	roomID, err := c.ParamsInt("roomId")
	if err != nil || roomID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "roomId is required"})
	}

	if err := h.MessageUC.MarkRead(c.Context(), uint(roomID), userID); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "marked as read"})
}

// SaveFcmToken 登錄推播 token
// @Summary 登錄推播 token
// @Description 儲存或更新用戶的 FCM token
// @Tags Fcm
// @Accept json
// @Produce json
// @Param request body member_domain.FcmTokenRequest true "token"
// @Success 200 {object} string "儲存成功"
// @Failure 400 {object} string "请求错误"
// @Router /fcm/token [post]
func (h *ChatHandler) SaveFcmToken(c *fiber.Ctx) error {
	userID, err := principal(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req member_domain.FcmTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token is required"})
	}

	if err := h.UserRepo.SaveFcmToken(c.Context(), userID, req.Token); err != nil {
		logger.Log.Error("save fcm token failed", zap.Uint("userID", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "save token failed"})
	}
	return c.JSON(fiber.Map{"message": "token saved"})
}
