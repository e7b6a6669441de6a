package domain

import "time"

const (
	// PreviewPhoto 圖片訊息的列表預覽字串
	PreviewPhoto = "[photo]"
	// PreviewFallback 沒有任何內容可預覽時的字串 (room 剛建立還沒有訊息)
	PreviewFallback = "chat started"
)

// ChatMessage 一則已持久化的聊天訊息。
// SentAt 由 server 指定，同一 room 內依寫入順序遞增。
// IsRead 只會由 mark-read 批次翻成 true，訊息本身不再被修改或刪除。
type ChatMessage struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RoomID   uint      `gorm:"not null;index:idx_chat_messages_room_sent,priority:1" json:"roomId"`
	SenderID uint      `gorm:"not null" json:"senderId"`
	Content  string    `json:"content"`
	ImageURL string    `json:"imageUrl"`
	SentAt   time.Time `gorm:"not null;index:idx_chat_messages_room_sent,priority:2" json:"sentAt"`
	IsRead   bool      `gorm:"not null;default:false" json:"isRead"`
}

// TableName gorm table name
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// HasImage check message carry image
func (m *ChatMessage) HasImage() bool {
	return m.ImageURL != ""
}

// PreviewText 列表/通知顯示用：有文字用文字，只有圖片用 "[photo]"
func (m *ChatMessage) PreviewText() string {
	if m.Content != "" {
		return m.Content
	}
	if m.ImageURL != "" {
		return PreviewPhoto
	}
	return PreviewFallback
}

// SendMessageRequest POST /api/chat/room/{roomId}/message 的 request body
type SendMessageRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}

// RoomListUpdate 推給兩位當事人 private channel 的列表摘要
type RoomListUpdate struct {
	RoomID             uint      `json:"roomId"`
	LastMessageContent string    `json:"lastMessageContent"`
	LastMessageTime    time.Time `json:"lastMessageTime"`
}

// PushNotification 交給 push gateway 的工作內容 (RabbitMQ payload)
type PushNotification struct {
	Token  string `json:"token"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	RoomID uint   `json:"roomId"`
}

// ChatEvent append 成功後發到 Kafka 的事件 (外部分析用)
type ChatEvent struct {
	RoomID    uint      `json:"roomId"`
	MessageID uint      `json:"messageId"`
	SenderID  uint      `json:"senderId"`
	SentAt    time.Time `json:"sentAt"`
	HasImage  bool      `json:"hasImage"`
}
