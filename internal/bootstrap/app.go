package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"boardgame-meetup/internal/config"
	"boardgame-meetup/internal/model"
	minioClient "boardgame-meetup/internal/platform/minio"
	mongoClient "boardgame-meetup/internal/platform/mongo"
	mysqlClient "boardgame-meetup/internal/platform/mysql"
	rabbitmqClient "boardgame-meetup/internal/platform/rabbitmq"
	redisClient "boardgame-meetup/internal/platform/redis"
	"boardgame-meetup/internal/repository"
	"boardgame-meetup/internal/worker"
)

type App struct {
	Config      *config.Config
	MySQL       *gorm.DB
	Mongo       *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Objects     *minioClient.Store
	EventWorker *worker.ListingEventWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	app := &App{Config: cfg, StartedAt: time.Now()}
	if err := app.connect(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN(), &model.User{}, &model.ListingActivity{})
	if err != nil {
		return err
	}
	a.MySQL = mysqlDB

	mongoCli, err := mongoClient.New(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	a.Mongo = mongoCli
	a.MongoDB = mongoCli.Database(cfg.Mongo.DB)

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	a.Redis = redisCli

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ListingEventQueue)
	if err != nil {
		return err
	}
	a.MQConn = mqConn

	objects, err := minioClient.New(
		ctx,
		cfg.MinIO.Endpoint,
		cfg.MinIO.AccessKey,
		cfg.MinIO.SecretKey,
		cfg.MinIO.Bucket,
		cfg.MinIO.UseSSL,
	)
	if err != nil {
		return err
	}
	a.Objects = objects

	activityRepo := repository.NewActivityRepository(mysqlDB)
	eventWorker := worker.NewListingEventWorker(mqConn, activityRepo, cfg.RabbitMQ.ListingEventQueue)
	if err := eventWorker.Start(ctx); err != nil {
		return fmt.Errorf("start listing event worker failed: %w", err)
	}
	a.EventWorker = eventWorker
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Mongo != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Mongo.Disconnect(disconnectCtx); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
