package main

import (
	"fmt"
	"log"
	"os"
	"time"

	_ "rental_chat_service/cmd/chat_service/docs" // 引入生成的 Swagger 文档
	"rental_chat_service/internal/chat/app"
	chat_repo "rental_chat_service/internal/chat/repository"
	"rental_chat_service/internal/chat/router"
	member_repo "rental_chat_service/internal/member/repository"
	"rental_chat_service/pkg/config"
	"rental_chat_service/pkg/database"
	"rental_chat_service/pkg/logger"
	testtool "rental_chat_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	testtool.StartPprof()

	// 1. PostgreSQL (rooms/messages, gorm)
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database)
	gormDB, err := database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgres database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.PostgreSQL.Host, cfg.PostgreSQL.Port)),
			zap.Error(err),
		)
	}

	// 2. PostgreSQL pool (users/items 唯讀查詢, pgx)
	poolStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    poolStr,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to create pgx pool after retries", zap.Error(err))
	}
	defer pool.Close()

	// 3. Redis (Pub/Sub)
	redisClient, err := database.NewRedisClient(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	defer redisClient.Close()

	// 4. RabbitMQ (push gateway 工作佇列)
	amqpURL := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	rabbitConn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    amqpURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect rabbitmq err : %v", err))
	}
	defer rabbitConn.Close()

	rabbitCh, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("get rabbitmq channel err : %v", err))
	}
	defer rabbitCh.Close()

	if _, err := database.DeclareQueue(rabbitCh, cfg.RabbitMQ.PushQueue); err != nil {
		logger.Log.Fatal(fmt.Sprintf("declare queue[%s] err : %v", cfg.RabbitMQ.PushQueue, err))
	}
	rabbit := database.NewRabbitRepository(rabbitCh)

	// 5. Kafka (chat 事件流)
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect kafka err : %v", err))
	}
	defer kafkaWriter.Close()

	// 6. MinIO (聊天圖片)
	storage, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.BucketName,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect minio err : %v", err))
	}

	// 7. 初始化 Repository
	roomRepo := chat_repo.NewRoomRepository(gormDB)
	msgRepo := chat_repo.NewMessageRepository(gormDB)
	itemRepo := chat_repo.NewItemRepository(pool)
	userRepo := member_repo.NewUserRepository(pool)
	pubSub := chat_repo.NewRedisPubSub(redisClient)

	if err := roomRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal(fmt.Sprintf("migrate chat_rooms err : %v", err))
	}
	if err := msgRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal(fmt.Sprintf("migrate chat_messages err : %v", err))
	}

	// 8. 初始化 UseCases
	dispatcher := app.NewDispatchUseCase(pubSub, userRepo, rabbit, cfg.RabbitMQ.PushQueue, kafkaWriter)
	roomUC := app.NewRoomUseCase(roomRepo, msgRepo, itemRepo, userRepo)
	messageUC := app.NewMessageUseCase(roomRepo, msgRepo, userRepo, dispatcher)

	// 9. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	// 注册路由
	router.RegisterRoutes(r,
		app.NewChatHandler(roomUC, messageUC, userRepo, storage),
		app.NewChatWebsocketHandler(messageUC, pubSub),
	)

	// Listen
	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
