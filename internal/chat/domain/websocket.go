package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DestinationError 錯誤回報用 destination
	DestinationError = "error"
	// DestinationChatListUpdate 私人列表摘要 destination
	DestinationChatListUpdate = "queue/chat-list-update"
)

// WSRequest websocket inbound frame。
// destination 形如 "signal/{roomId}"，payload 為訊息本體。
type WSRequest struct {
	Destination string `json:"destination"`
	SenderID    uint   `json:"senderId"`
	Content     string `json:"content"`
	ImageURL    string `json:"imageUrl"`
}

// WSResponse websocket outbound frame
type WSResponse struct {
	Destination string      `json:"destination"`
	Payload     interface{} `json:"payload,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// RoomTopic 聊天室 broadcast destination ("topic/signal/{roomId}")
func RoomTopic(roomID uint) string {
	return fmt.Sprintf("topic/signal/%d", roomID)
}

// RoomChannel redis 聊天室 broadcast channel
func RoomChannel(roomID uint) string {
	return fmt.Sprintf("chat:room:%d", roomID)
}

// UserChannel redis 私人通知 channel
func UserChannel(userID uint) string {
	return fmt.Sprintf("chat:user:%d", userID)
}

// ParseSignalDestination 解析 inbound destination "signal/{roomId}"。
// 允許開頭帶 "/"。格式不符回傳 false。
func ParseSignalDestination(dest string) (uint, bool) {
	dest = strings.TrimPrefix(dest, "/")
	const prefix = "signal/"
	if !strings.HasPrefix(dest, prefix) {
		return 0, false
	}
	roomID, err := strconv.ParseUint(dest[len(prefix):], 10, 64)
	if err != nil || roomID == 0 {
		return 0, false
	}
	return uint(roomID), true
}
