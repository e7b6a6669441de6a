package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"rental_chat_service/internal/chat/domain"
	"rental_chat_service/pkg/logger"
)

// PubSub definition pub/sub (redis 實作，測試用 mock)
type PubSub interface {
	Publish(channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string, handler func(resp domain.WSResponse)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish 將 frame 序列化後發布到指定 channel
func (r *RedisPubSub) Publish(channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe 訂閱 channel，收到 frame 後交給 handler。
// ctx 取消時結束訂閱 (連線關閉時由 websocket handler 觸發)。
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(resp domain.WSResponse)) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var resp domain.WSResponse
				if err := json.Unmarshal([]byte(m.Payload), &resp); err != nil {
					logger.Log.Errorf("pubsub frame unmarshal error:", err)
					continue
				}
				handler(resp)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
