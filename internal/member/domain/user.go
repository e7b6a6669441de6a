package domain

// User 聊天核心看到的使用者視圖。
// 帳號/信用分數等完整資料由外部會員系統管理，這裡只讀聊天需要的欄位，
// 唯一會寫入的是 fcm_token (裝置註冊)。
type User struct {
	ID              uint   `json:"id"`
	Nickname        string `json:"nickname"`
	ProfileImageURL string `json:"profile_image_url"`
	FcmToken        string `json:"-"`
}

// FcmTokenRequest 裝置 push token 註冊 payload
type FcmTokenRequest struct {
	Token string `json:"token"`
}
