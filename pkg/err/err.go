package errprocess

import (
	"errors"
	"fmt"

	"rental_chat_service/pkg/logger"
)

// 聊天核心對外只分四類錯誤，handler 依此對應 HTTP 狀態碼
var (
	// ErrNotFound room/user/sender 不存在
	ErrNotFound = errors.New("not found")
	// ErrBadInput 請求內容不合法 (空訊息、缺少必要 id)
	ErrBadInput = errors.New("bad input")
	// ErrUnauthorized 缺少或無效的 principal
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInternal 持久層等非預期錯誤
	ErrInternal = errors.New("internal error")
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// NotFound wrap ErrNotFound with detail
func NotFound(detail string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, detail)
}

// BadInput wrap ErrBadInput with detail
func BadInput(detail string) error {
	return fmt.Errorf("%w: %s", ErrBadInput, detail)
}

// Unauthorized wrap ErrUnauthorized with detail
func Unauthorized(detail string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
}

// Internal wrap ErrInternal，完整原因寫入 log，對外只露出 generic 訊息
func Internal(detail string, cause error) error {
	logger.Log.Error(fmt.Sprintf("%s: %v", detail, cause))
	return fmt.Errorf("%w: %s", ErrInternal, detail)
}
