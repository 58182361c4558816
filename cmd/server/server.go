package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/3Eeeecho/go-testhub/internal/config"
	"github.com/3Eeeecho/go-testhub/internal/handlers"
	"github.com/3Eeeecho/go-testhub/internal/pkg/cache"
	"github.com/3Eeeecho/go-testhub/internal/pkg/logger"
	"github.com/3Eeeecho/go-testhub/internal/pkg/mq"
	"github.com/3Eeeecho/go-testhub/internal/pkg/mq/worker"
	"github.com/3Eeeecho/go-testhub/internal/repositories"
	"github.com/3Eeeecho/go-testhub/internal/router"
	"github.com/3Eeeecho/go-testhub/internal/services/admin"
	"github.com/3Eeeecho/go-testhub/internal/services/library"
	"github.com/3Eeeecho/go-testhub/internal/services/plans"
	"github.com/3Eeeecho/go-testhub/internal/services/share"
	"github.com/3Eeeecho/go-testhub/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router         *gin.Engine
	httpServer     *http.Server
	db             *gorm.DB
	redisClient    *redis.Client
	rabbitMQClient *mq.RabbitMQClient
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	mysqlDB, err := setup.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
	}

	// 初始化 Redis 连接
	redisClient, err := setup.InitRedis(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	// 初始化 Elasticsearch
	esClient, err := setup.InitElasticsearch(&cfg.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch: %w", err)
	}

	// 初始化 RabbitMQ
	rabbitMQClient, err := mq.NewRabbitMQClient(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	// 初始化附件存储
	storageService, err := setup.InitStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage service: %w", err)
	}

	// 初始化 Repositories
	cacheService := cache.NewRedisCache(redisClient)
	userRepo := repositories.NewUserRepository(mysqlDB)
	folderRepo := repositories.NewFolderRepository(mysqlDB)
	caseRepo := repositories.NewTestCaseRepository(mysqlDB)
	planRepo := repositories.NewPlanRepository(mysqlDB)
	shareRepo := repositories.NewShareLinkRepository(mysqlDB)
	attachmentRepo := repositories.NewAttachmentRepository(mysqlDB)
	searchRepo := repositories.NewTestCaseSearchRepository(esClient, cfg.Elasticsearch.CaseIndex)
	tm := repositories.NewTransactionManager(mysqlDB)

	// 初始化 Services
	authService := admin.NewAuthService(userRepo, cfg)
	userService := admin.NewUserService(userRepo)
	domainService := library.NewFolderDomainService(folderRepo, cacheService)
	folderService := library.NewFolderService(folderRepo, domainService)
	caseService := library.NewTestCaseService(caseRepo, folderRepo, searchRepo, rabbitMQClient)
	planService := plans.NewPlanService(planRepo, caseRepo, shareRepo, cacheService)
	evidenceService := plans.NewEvidenceService(attachmentRepo, planRepo, storageService, rabbitMQClient, cfg)
	shareService := share.NewShareLinkService(shareRepo, planRepo, nil, &cfg.Share)
	reportService := share.NewReportService(shareRepo, planRepo, domainService)

	// 初始化 Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	folderHandler := handlers.NewFolderHandler(folderService, domainService)
	caseHandler := handlers.NewTestCaseHandler(caseService)
	planHandler := handlers.NewPlanHandler(planService)
	shareHandler := handlers.NewShareHandler(shareService)
	reportHandler := handlers.NewReportHandler(reportService)
	attachmentHandler := handlers.NewAttachmentHandler(evidenceService)

	// 启动所有后台 Worker
	worker.StartAllWorkers(rabbitMQClient, caseRepo, searchRepo, attachmentRepo, tm, storageService)

	// 初始化 Gin 引擎和注册路由
	engine := router.InitRouter(
		authHandler,
		userHandler,
		folderHandler,
		caseHandler,
		planHandler,
		shareHandler,
		reportHandler,
		attachmentHandler,
		cfg,
	)

	addr := ":" + cfg.Server.Port
	logger.Info(fmt.Sprintf("Server is running on %s", addr))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	return &Server{
		router:         engine,
		httpServer:     httpServer,
		db:             mysqlDB,
		redisClient:    redisClient,
		rabbitMQClient: rabbitMQClient,
	}, nil
}

// Run 启动服务器和 Worker，并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	// GORM v2 依赖连接池，通常不需要手动关闭。Redis和MQ需要
	defer s.rabbitMQClient.Close()
	defer s.redisClient.Close()

	// 启动 HTTP 服务器
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited gracefully")
}
