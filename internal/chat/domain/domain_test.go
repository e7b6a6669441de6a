package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 測試 OtherParty
func TestChatRoom_OtherParty(t *testing.T) {
	room := &ChatRoom{ID: 42, ItemID: 7, LenderID: 1, BorrowerID: 2}

	assert.Equal(t, uint(2), room.OtherParty(1))
	assert.Equal(t, uint(1), room.OtherParty(2))

	assert.True(t, room.HasParty(1))
	assert.True(t, room.HasParty(2))
	assert.False(t, room.HasParty(3))
}

// 測試 PreviewText
func TestChatMessage_PreviewText(t *testing.T) {
	t.Run("文字優先", func(t *testing.T) {
		msg := &ChatMessage{Content: "hello", ImageURL: "img.jpg"}
		assert.Equal(t, "hello", msg.PreviewText())
	})

	t.Run("純圖片", func(t *testing.T) {
		msg := &ChatMessage{ImageURL: "img.jpg"}
		assert.Equal(t, PreviewPhoto, msg.PreviewText())
		assert.True(t, msg.HasImage())
	})

	t.Run("空訊息", func(t *testing.T) {
		msg := &ChatMessage{}
		assert.Equal(t, PreviewFallback, msg.PreviewText())
	})
}

// 測試 ParseSignalDestination
func TestParseSignalDestination(t *testing.T) {
	cases := []struct {
		dest   string
		roomID uint
		ok     bool
	}{
		{"signal/42", 42, true},
		{"/signal/42", 42, true},
		{"signal/0", 0, false},
		{"signal/abc", 0, false},
		{"signal/", 0, false},
		{"topic/signal/42", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		roomID, ok := ParseSignalDestination(c.dest)
		assert.Equal(t, c.ok, ok, c.dest)
		assert.Equal(t, c.roomID, roomID, c.dest)
	}
}

// 測試 channel 命名
func TestChannelNames(t *testing.T) {
	assert.Equal(t, "topic/signal/42", RoomTopic(42))
	assert.Equal(t, "chat:room:42", RoomChannel(42))
	assert.Equal(t, "chat:user:7", UserChannel(7))
}
