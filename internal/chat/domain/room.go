package domain

import "time"

// ChatRoom 一個 listing 底下出租方/承租方的 1對1 聊天室。
// (item_id, lender_id, borrower_id) 唯一且建立後不變，成員永不更動。
// 聊天核心不刪除 room，生命週期由外部 (listing 下架) 管理。
type ChatRoom struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ItemID     uint      `gorm:"not null;uniqueIndex:idx_chat_rooms_triple,priority:1" json:"itemId"`
	LenderID   uint      `gorm:"not null;uniqueIndex:idx_chat_rooms_triple,priority:2" json:"lenderId"`
	BorrowerID uint      `gorm:"not null;uniqueIndex:idx_chat_rooms_triple,priority:3" json:"borrowerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName gorm table name
func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// OtherParty 回傳相對於 userID 的對方。
// partner 判斷只在這裡做一次，所有 caller 共用。
func (r *ChatRoom) OtherParty(userID uint) uint {
	if r.LenderID == userID {
		return r.BorrowerID
	}
	return r.LenderID
}

// HasParty check userID is lender or borrower
func (r *ChatRoom) HasParty(userID uint) bool {
	return r.LenderID == userID || r.BorrowerID == userID
}

// CreateRoomRequest POST /api/chat/room 的 request body
type CreateRoomRequest struct {
	ItemID     uint `json:"itemId"`
	LenderID   uint `json:"lenderId"`
	BorrowerID uint `json:"borrowerId"`
}

// ChatRoomListEntry 聊天室列表一筆，「我的聊天室」畫面用
type ChatRoomListEntry struct {
	RoomID                 uint      `json:"roomId"`
	ItemID                 uint      `json:"itemId"`
	PartnerID              uint      `json:"partnerId"`
	PartnerNickname        string    `json:"partnerNickname"`
	PartnerProfileImageURL string    `json:"partnerProfileImageUrl"`
	LastMessageContent     string    `json:"lastMessageContent"`
	LastMessageTime        time.Time `json:"lastMessageTime"`
	UnreadCount            int64     `json:"unreadCount"`
}
