package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	// _ "github.com/mattn/go-sqlite3" // requires gcc
	_ "modernc.org/sqlite"

	"github.com/davicafu/imagelab/internal/analytics/clickhouse"
	config "github.com/davicafu/imagelab/internal/config"
	imageApp "github.com/davicafu/imagelab/internal/image/application"
	imageDomain "github.com/davicafu/imagelab/internal/image/domain"
	imageEvents "github.com/davicafu/imagelab/internal/image/infra/inbound/events"
	imageHttp "github.com/davicafu/imagelab/internal/image/infra/inbound/http"
	imageCache "github.com/davicafu/imagelab/internal/image/infra/outbound/cache"
	imageRepoPg "github.com/davicafu/imagelab/internal/image/infra/outbound/db/postgre"
	imageRepoSqlite "github.com/davicafu/imagelab/internal/image/infra/outbound/db/sqlite"
	"github.com/davicafu/imagelab/internal/image/infra/outbound/storage"
	"github.com/davicafu/imagelab/internal/realtime"
	"github.com/davicafu/imagelab/internal/realtime/ws"
	sharedEvents "github.com/davicafu/imagelab/internal/shared/events"
	"github.com/davicafu/imagelab/internal/shared/infra/auth"
	esMongo "github.com/davicafu/imagelab/internal/shared/infra/db/mongodb"
	esPostgres "github.com/davicafu/imagelab/internal/shared/infra/db/postgres"
	esSqlite "github.com/davicafu/imagelab/internal/shared/infra/db/sqlite"
	"github.com/davicafu/imagelab/internal/shared/infra/rabbitmq"
	userDomain "github.com/davicafu/imagelab/internal/user/domain"
	userRepoPg "github.com/davicafu/imagelab/internal/user/infra/outbound/db/postgre"
	userRepoSqlite "github.com/davicafu/imagelab/internal/user/infra/outbound/db/sqlite"
	"github.com/davicafu/imagelab/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer log.Sync()       // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	// ---------------- DB ----------------
	var imageRepo imageDomain.ImageRepository
	var userRepo userDomain.UserRepository
	var eventStore sharedEvents.Store

	if cfg.LocalDeployment {
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping SQLite", zap.Error(err))
		}
		if err := imageRepoSqlite.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite images schema", zap.Error(err))
		}
		if err := userRepoSqlite.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite users schema", zap.Error(err))
		}
		if err := esSqlite.InitSchema(db); err != nil {
			log.Fatal("failed to initialize SQLite events schema", zap.Error(err))
		}

		imageRepo = imageRepoSqlite.NewImageRepoSQLite(db)
		userRepo = userRepoSqlite.NewUserRepoSQLite(db)
		eventStore = esSqlite.NewEventStore(db)
		log.Info("✅ SQLite inicializado (despliegue local)", zap.String("path", cfg.SQLitePath))
	} else {
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Fatal("failed to open PostgreSQL", zap.Error(err))
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping PostgreSQL", zap.Error(err))
		}
		if err := imageRepoPg.InitPostgres(db); err != nil {
			log.Fatal("failed to initialize images schema", zap.Error(err))
		}
		if err := userRepoPg.InitPostgres(db); err != nil {
			log.Fatal("failed to initialize users schema", zap.Error(err))
		}

		imageRepo = imageRepoPg.NewImageRepoPostgres(db)
		userRepo = userRepoPg.NewUserRepoPostgres(db)

		// El backend del event store se elige por config; por defecto comparte
		// el PostgreSQL relacional.
		switch cfg.EventStoreBackend {
		case "mongodb":
			mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
			if err != nil {
				log.Fatal("failed to connect to MongoDB", zap.Error(err))
			}
			defer mongoClient.Disconnect(context.Background())
			eventStore = esMongo.NewEventStore(mongoClient, cfg.MongoDB)
			log.Info("✅ Event store en MongoDB", zap.String("db", cfg.MongoDB))
		default:
			if err := esPostgres.InitSchema(db); err != nil {
				log.Fatal("failed to initialize events schema", zap.Error(err))
			}
			eventStore = esPostgres.NewEventStore(db)
			log.Info("✅ Event store en PostgreSQL")
		}
	}

	// ---------------- Cache ----------------
	var cacheInstance imageDomain.ImageCache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		cacheInstance = imageCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	} else {
		cacheInstance = imageCache.NewRedisImageCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// ---------------- Analytics ----------------
	var analytics imageDomain.AnalyticsRecorder
	var analyticsReader imageDomain.AnalyticsReader
	if cfg.ClickHouseAddr != "" {
		chRepo, err := clickhouse.NewProcessingAnalyticsRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, analítica deshabilitada", zap.Error(err))
		} else if err := chRepo.InitSchema(); err != nil {
			log.Warn("⚠️ Fallo inicializando schema de ClickHouse", zap.Error(err))
		} else {
			analytics = chRepo
			analyticsReader = chRepo
			log.Info("✅ ClickHouse conectado, analítica habilitada")
		}
	}

	// ---------------- RabbitMQ ----------------
	rmq, err := rabbitmq.Connect(ctx, cfg.RabbitURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	topology := rabbitmq.Topology{
		WorkExchange: cfg.WorkExchange,
		DLXExchange:  cfg.DLXExchange,
		Partitions:   cfg.Partitions,
		MessageTTL:   cfg.MessageTTL,
		DLQTTL:       cfg.DLQTTL,
		ResultsQueue: cfg.ResultsQueue,
	}
	if err := topology.Apply(rmq.Channel(), log); err != nil {
		log.Fatal("failed to apply RabbitMQ topology", zap.Error(err))
	}

	jobPublisher := rabbitmq.NewJobPublisher(rmq.Channel(), cfg.WorkExchange, cfg.Partitions, log)
	eventPublisher := rabbitmq.NewEventPublisher(rmq.Channel(), cfg.EventExchange, log)
	if err := eventPublisher.Init(); err != nil {
		log.Fatal("failed to initialize event publisher", zap.Error(err))
	}

	// ---------------- Storage ----------------
	imageStorage, err := storage.NewLocalStorage(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		log.Fatal("failed to initialize image storage", zap.Error(err))
	}

	// ---------------- Realtime ----------------
	registry := realtime.NewRegistry(log)
	notifier := realtime.NewNotifier(registry, log)

	// --------------- Servicios --------------
	imageService := imageApp.NewImageService(imageRepo, imageStorage, cacheInstance, eventStore, eventPublisher, jobPublisher, notifier, log)
	resultService := imageApp.NewResultService(imageRepo, eventStore, eventPublisher, notifier, analytics, log)

	// ---------------- Consumidor de resultados ----------------
	resultConsumer := imageEvents.NewResultConsumer(rmq.Channel(), cfg.ResultsQueue, resultService, log)
	if err := resultConsumer.Start(ctx); err != nil {
		log.Fatal("failed to start result consumer", zap.Error(err))
	}

	// ---------------- HTTP ----------------
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	imageHandler := imageHttp.NewImageHandler(imageService)
	analyticsHandler := imageHttp.NewAnalyticsHandler(analyticsReader)

	router := gin.Default()
	imageHttp.RegisterImageRoutes(router, imageHandler, analyticsHandler, verifier, userRepo, log)
	router.Static("/uploads", cfg.StorageDir)

	wsHandler := ws.NewHandler(registry, verifier, userRepo, ws.OriginPolicy{
		Allowed:           append([]string{cfg.FrontendURL}, cfg.AllowedOrigins...),
		LocalCertificates: cfg.LocalCertificates,
	}, log)
	router.GET("/ws", wsHandler.Handle)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
