package internal

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diagram-hub/internal/config"
	"diagram-hub/internal/managers"
	"diagram-hub/internal/repository"
	"diagram-hub/internal/routing"
	"diagram-hub/internal/rpc"
	"diagram-hub/internal/schemas"
	"diagram-hub/internal/services/activitylog"
	"diagram-hub/internal/services/diagram"
	"diagram-hub/internal/services/user"
	"diagram-hub/internal/utils"
	"diagram-hub/internal/worker"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// uniqueIndexes lists the fields each collection enforces uniqueness on.
var uniqueIndexes = map[string][]string{
	schemas.UsersCollection:    {"email"},
	schemas.DiagramsCollection: {"name", "url", "shortCode"},
}

// InitGateway starts the HTTP gateway. It forwards every request to a service and
// queues an activity-log entry for it.
func InitGateway() {
	cfg := loadConfig("gateway")
	utils.EmailValidationType = cfg.HTTP.EmailValidationType

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := initializeRedis(ctx, cfg.Redis)
	defer rdb.Close()

	// Initialize queue manager
	queueMgr := managers.NewQueueManager(rdb, serviceQueues(cfg.RPC), cfg.RPC.Timeout)

	// Initialize JWT manager
	jwtMgr := managers.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	// Initialize task distributor
	distributor := worker.NewRedisTaskDistributor(asynqOptions(cfg.Redis))
	defer distributor.Close()

	// Initialize router
	r := routing.InitRouter(cfg.HTTP, queueMgr, jwtMgr, distributor)
	log.Println("Initialized router")

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down server: ", err)
		}
	}()

	// Start server on the specified port
	log.Printf("Starting server on port %s...\n", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Error starting server: ", err)
	}
}

// InitUserService starts the user service. It also delivers the OTP mails it queues.
func InitUserService() {
	cfg := loadConfig("user-service")
	utils.EmailValidationType = cfg.HTTP.EmailValidationType

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseMgr := initializeDatabase(ctx, cfg.Database)
	defer disconnect(databaseMgr)

	rdb := initializeRedis(ctx, cfg.Redis)
	defer rdb.Close()

	jwtMgr := managers.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	mailMgr := managers.NewMailManager(cfg.Mail, cfg.Environment, cfg.Auth.OTPTTL)

	distributor := worker.NewRedisTaskDistributor(asynqOptions(cfg.Redis))
	defer distributor.Close()

	processor := newMailProcessor(cfg.Redis, mailMgr)
	if err := processor.Start(); err != nil {
		log.Fatal("Error starting task processor: ", err)
	}
	defer processor.Shutdown()

	users := repository.New[schemas.User](databaseMgr.Collection(schemas.UsersCollection), repository.Config{
		EntityName:   "User",
		SearchFields: schemas.UserSearchFields,
	})
	service := user.NewService(users, jwtMgr, distributor, cfg.Auth.OTPTTL)

	srv := rpc.NewServer(rdb, cfg.RPC.UserQueue, cfg.RPC.Workers, cfg.RPC.Timeout)
	service.Register(srv)
	srv.Run(ctx)
}

// InitDiagramService starts the diagram service.
func InitDiagramService() {
	cfg := loadConfig("diagram-service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseMgr := initializeDatabase(ctx, cfg.Database)
	defer disconnect(databaseMgr)

	rdb := initializeRedis(ctx, cfg.Redis)
	defer rdb.Close()

	diagrams := repository.New[schemas.Diagram](databaseMgr.Collection(schemas.DiagramsCollection), repository.Config{
		EntityName:   "Diagram",
		SearchFields: schemas.DiagramSearchFields,
	})
	service := diagram.NewService(diagrams)

	srv := rpc.NewServer(rdb, cfg.RPC.DiagramQueue, cfg.RPC.Workers, cfg.RPC.Timeout)
	service.Register(srv)
	srv.Run(ctx)
}

// InitActivityLogService starts the activity-log service and the consumer of the
// entries queued by the gateway.
func InitActivityLogService() {
	cfg := loadConfig("activity-log-service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseMgr := initializeDatabase(ctx, cfg.Database)
	defer disconnect(databaseMgr)

	rdb := initializeRedis(ctx, cfg.Redis)
	defer rdb.Close()

	logs := repository.New[schemas.ActivityLog](databaseMgr.Collection(schemas.ActivityLogsCollection), repository.Config{
		EntityName:   "Activity log",
		SearchFields: schemas.ActivityLogSearchFields,
	})
	service := activitylog.NewService(logs)

	processor := newActivityLogProcessor(cfg.Redis, service)
	if err := processor.Start(); err != nil {
		log.Fatal("Error starting task processor: ", err)
	}
	defer processor.Shutdown()

	srv := rpc.NewServer(rdb, cfg.RPC.ActivityLogQueue, cfg.RPC.Workers, cfg.RPC.Timeout)
	service.Register(srv)
	srv.Run(ctx)
}

func loadConfig(serviceName string) *config.Config {
	utils.SetServiceName(serviceName)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	setLogLevel(cfg.Level())
	log.Debugf("Loaded configuration for %s (environment %s)", serviceName, cfg.Environment)
	return cfg
}

// serviceQueues maps each service name to the queue it consumes.
func serviceQueues(rpcConfig config.RPCConfig) map[string]string {
	return map[string]string{
		schemas.UserService:        rpcConfig.UserQueue,
		schemas.DiagramService:     rpcConfig.DiagramQueue,
		schemas.ActivityLogService: rpcConfig.ActivityLogQueue,
	}
}

func initializeDatabase(ctx context.Context, dbConfig config.DatabaseConfig) managers.DatabaseMgr {
	log.Info("Initializing database")

	databaseMgr, err := managers.NewDatabaseManager(ctx, dbConfig.URI, dbConfig.Name, dbConfig.Timeout)
	if err != nil {
		log.Fatal("error connecting to database: ", err)
	}

	if err := ensureIndexes(ctx, databaseMgr); err != nil {
		log.Fatal("error creating indexes: ", err)
	}
	log.Info("Connected to database")
	return databaseMgr
}

func ensureIndexes(ctx context.Context, databaseMgr managers.DatabaseMgr) error {
	for collection, fields := range uniqueIndexes {
		if err := databaseMgr.EnsureUniqueIndexes(ctx, collection, fields...); err != nil {
			return err
		}
	}
	return nil
}

func disconnect(databaseMgr managers.DatabaseMgr) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := databaseMgr.Disconnect(ctx); err != nil {
		log.Error("error disconnecting from database: ", err)
	}
}

func initializeRedis(ctx context.Context, redisConfig config.RedisConfig) *redis.Client {
	log.Info("Initializing redis")

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Address,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("error connecting to redis: ", err)
	}
	log.Info("Connected to redis")
	return rdb
}

// newMailProcessor consumes only the mail queue.
func newMailProcessor(redisConfig config.RedisConfig, mailer worker.OTPMailer) *worker.RedisTaskProcessor {
	return worker.NewRedisTaskProcessor(asynqOptions(redisConfig), nil, mailer)
}

// newActivityLogProcessor consumes only the activity-log queue.
func newActivityLogProcessor(redisConfig config.RedisConfig, recorder worker.ActivityRecorder) *worker.RedisTaskProcessor {
	return worker.NewRedisTaskProcessor(asynqOptions(redisConfig), recorder, nil)
}

func asynqOptions(redisConfig config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     redisConfig.Address,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	}
}

func setLogLevel(level log.Level) {
	log.SetLevel(level)

	log.SetReportCaller(true)

	log.SetOutput(os.Stdout)
}
