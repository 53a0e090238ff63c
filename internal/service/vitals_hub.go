package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"wisefido-vitals-hub/common/database"
	mqttcommon "wisefido-vitals-hub/common/mqtt"
	rediscommon "wisefido-vitals-hub/common/redis"
	"wisefido-vitals-hub/internal/auth"
	"wisefido-vitals-hub/internal/cache"
	"wisefido-vitals-hub/internal/config"
	httpapi "wisefido-vitals-hub/internal/http"
	"wisefido-vitals-hub/internal/hub"
	"wisefido-vitals-hub/internal/mqtt"
	"wisefido-vitals-hub/internal/persist"
	"wisefido-vitals-hub/internal/repository"
	"wisefido-vitals-hub/internal/transport/ws"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// VitalsHubService 生命体征实时中心服务
type VitalsHubService struct {
	config *config.Config
	logger *zap.Logger

	db            *sql.DB
	redisClient   *redis.Client
	mqttClient    *mqttcommon.Client
	hub           *hub.Hub
	dispatcher    *persist.Dispatcher
	snapshotCache *cache.SnapshotCache
	bridge        *mqtt.DeviceBridge
	server        *Server

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewVitalsHubService 创建服务并连接已启用的后端（数据库、Redis、MQTT）
func NewVitalsHubService(cfg *config.Config, logger *zap.Logger) (*VitalsHubService, error) {
	s := &VitalsHubService{config: cfg, logger: logger}

	verifier, err := auth.New(cfg.Auth.Mode, cfg.Auth.JWTSecret, cfg.Auth.RemoteURL, cfg.Auth.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// 初始化 Redis（快照镜像 + 读数流）
	var publisher persist.ReadingPublisher
	if cfg.RedisEnabled {
		s.redisClient = rediscommon.NewRedisClient(&cfg.Redis)
		if err := rediscommon.Ping(initCtx, s.redisClient); err != nil {
			s.closeBackends()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.snapshotCache = cache.NewSnapshotCache(cache.NewRedisKVStore(s.redisClient), cfg.Cache.SnapshotKey, cfg.Cache.SnapshotTTL, logger)
		publisher = cache.NewReadingStream(s.redisClient, cfg.Cache.ReadingsStream, cfg.Cache.StreamMaxLength)
	}

	// 初始化数据库（读数持久化）
	if cfg.DBEnabled {
		s.db, err = database.NewPostgresDB(initCtx, &cfg.Database)
		if err != nil {
			s.closeBackends()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := repository.NewReadingsRepository(s.db, logger)
		if err := repo.EnsureSchema(initCtx); err != nil {
			s.closeBackends()
			return nil, err
		}
		s.dispatcher = persist.NewDispatcher(repo, publisher, persist.Options{
			Workers: cfg.Persist.Workers,
			Queue:   cfg.Persist.Queue,
			Timeout: cfg.Persist.Timeout,
		}, logger)
	} else {
		logger.Warn("Database disabled, readings will not be persisted")
	}

	var persister hub.ReadingPersister
	if s.dispatcher != nil {
		persister = s.dispatcher
	}
	var sink hub.SnapshotSink
	if s.snapshotCache != nil {
		sink = s.snapshotCache
	}
	s.hub = hub.New(hub.Options{
		PingInterval:   cfg.Hub.PingInterval,
		StatusInterval: cfg.Hub.StatusInterval,
		VerifyTimeout:  cfg.Auth.Timeout,
		EventBuffer:    cfg.Hub.EventBuffer,
	}, verifier, persister, sink, logger)

	// 初始化 MQTT 设备接入
	if cfg.MQTTEnabled {
		s.mqttClient, err = mqttcommon.NewClient(&cfg.MQTT, logger)
		if err != nil {
			s.closeBackends()
			return nil, fmt.Errorf("failed to connect to mqtt: %w", err)
		}
		s.bridge = mqtt.NewDeviceBridge(s.mqttClient, s.hub, cfg.MQTTPrefix, cfg.MQTT.QoS, logger)
		// 断线期间的遗嘱消息会丢失，重连后重置 MQTT 设备
		s.mqttClient.OnReconnect(s.bridge.Reset)
	}

	return s, nil
}

// Start 启动 hub、后台任务与 HTTP 服务，阻塞直到 HTTP 服务退出
func (s *VitalsHubService) Start(ctx context.Context) error {
	s.logger.Info("Starting vitals hub service",
		zap.String("auth_mode", s.config.Auth.Mode),
		zap.Bool("db_enabled", s.config.DBEnabled),
		zap.Bool("redis_enabled", s.config.RedisEnabled),
		zap.Bool("mqtt_enabled", s.config.MQTTEnabled),
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.hub.Run(ctx)
	}()

	if s.dispatcher != nil {
		s.dispatcher.Start(ctx)
	}
	if s.snapshotCache != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.snapshotCache.Run(ctx)
		}()
	}
	if s.bridge != nil {
		if err := s.bridge.Start(); err != nil {
			return fmt.Errorf("failed to start mqtt bridge: %w", err)
		}
	}

	router := httpapi.NewRouter(s.logger)
	router.RegisterHubRoutes(s.config.HTTP.WSPath,
		ws.NewHandler(ctx, s.hub, s.config.Hub.SendBuffer, s.logger),
		httpapi.NewStatusHandler(s.hub, s.logger),
	)
	doctor := httpapi.NewDoctorHandler(s.db, s.redisClient, s.hub, s.logger)
	if s.mqttClient != nil {
		doctor.WithMQTT(s.mqttClient)
	}
	if s.dispatcher != nil {
		doctor.WithPersistence(s.dispatcher)
	}
	router.RegisterDoctorRoutes(doctor)

	server := NewServer(s.config.HTTP.Addr, router, s.logger)
	s.mu.Lock()
	s.server = server
	s.mu.Unlock()
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 停止服务：HTTP -> MQTT 接入 -> hub 与后台任务 -> 持久化队列 -> 后端连接
func (s *VitalsHubService) Stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	var errs []error
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()
	if server != nil {
		if err := server.Stop(stopCtx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if s.bridge != nil {
		s.bridge.Stop()
	}

	// hub 与快照写入协程随 Start 的 ctx 退出
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-stopCtx.Done():
		errs = append(errs, errors.New("timed out waiting for hub to stop"))
	}

	if s.dispatcher != nil {
		s.dispatcher.Stop()
	}
	s.closeBackends()

	s.logger.Info("Vitals hub service stopped")
	return errors.Join(errs...)
}

func (s *VitalsHubService) closeBackends() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if err := database.Close(s.db); err != nil {
		s.logger.Warn("Failed to close database", zap.Error(err))
	}
	if err := rediscommon.Close(s.redisClient); err != nil {
		s.logger.Warn("Failed to close redis", zap.Error(err))
	}
}
