package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/authz"
	"taskboard/internal/config"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/pipeline"
	"taskboard/internal/repository"
	"taskboard/internal/ws"
	"taskboard/migrations"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Hub    *ws.Hub

	relay *ws.Relay
	rc    *redis.Client
}

func Init(cfg *config.Config) (*Server, error) {
	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("❌ failed to run migrations: %w", err)
	}
	log.Println("✅ Migrations applied")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Println("✅ Connected to database")

	r := gin.Default()

	hub := ws.NewHub()
	guard := authz.NewGuard(db)
	pipe := pipeline.New(db)

	// With Redis configured, announcements go through the relay so every
	// instance delivers them; otherwise the local hub is the broadcaster.
	var bc ws.Broadcaster = hub
	var relay *ws.Relay
	var rc *redis.Client
	if cfg.RedisAddr != "" {
		rc = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		relay = ws.NewRelay(hub, rc, cfg.RedisChannel)
		bc = relay
		log.Printf("✅ Redis relay enabled on %s", cfg.RedisAddr)
	}

	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	listRepo := repository.NewListRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	userHandler := handler.NewUserHandler(userRepo)
	boardHandler := handler.NewBoardHandler(pipe, guard, boardRepo, bc)
	memberHandler := handler.NewMemberHandler(pipe, guard, memberRepo, bc)
	listHandler := handler.NewListHandler(pipe, guard, listRepo, bc)
	taskHandler := handler.NewTaskHandler(pipe, guard, taskRepo, bc)
	activityHandler := handler.NewActivityHandler(guard, activityRepo)
	searchHandler := handler.NewSearchHandler(boardRepo, taskRepo)
	wsHandler := handler.NewWSHandler(hub, cfg.JWTSecret, guard.CanRead)

	api := r.Group("/api/v1")

	api.POST("/auth/sign-up", userHandler.SignUp)
	api.POST("/auth/sign-in", userHandler.SignIn)

	authorized := api.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.GET("/me", userHandler.Me)

		authorized.GET("/boards", boardHandler.GetAll)
		authorized.POST("/boards", boardHandler.Create)
		authorized.GET("/boards/:id", boardHandler.Get)
		authorized.PUT("/boards/:id", boardHandler.Update)
		authorized.DELETE("/boards/:id", boardHandler.Delete)

		authorized.GET("/boards/:id/members", memberHandler.GetAll)
		authorized.POST("/boards/:id/members", memberHandler.Add)
		authorized.PUT("/boards/:id/members/:memberId", memberHandler.Update)
		authorized.DELETE("/boards/:id/members/:memberId", memberHandler.Remove)

		authorized.GET("/boards/:id/lists", listHandler.GetByBoard)
		authorized.POST("/boards/:id/lists", listHandler.Create)
		authorized.GET("/lists/:id", listHandler.Get)
		authorized.PUT("/lists/:id", listHandler.Update)
		authorized.DELETE("/lists/:id", listHandler.Delete)

		authorized.GET("/boards/:id/tasks", taskHandler.GetByBoard)
		authorized.GET("/lists/:id/tasks", taskHandler.GetByList)
		authorized.POST("/lists/:id/tasks", taskHandler.Create)
		authorized.GET("/tasks/:id", taskHandler.Get)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/move", taskHandler.Move)
		authorized.GET("/tasks/:id/assignees", taskHandler.GetAssignees)
		authorized.POST("/tasks/:id/assignees", taskHandler.AddAssignee)
		authorized.DELETE("/tasks/:id/assignees/:userId", taskHandler.RemoveAssignee)

		authorized.GET("/boards/:id/activity", activityHandler.GetByBoard)
		authorized.GET("/search", searchHandler.Search)
	}

	api.GET("/ws", wsHandler.Serve)

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
		Hub:    hub,
		relay:  relay,
		rc:     rc,
	}, nil
}

func runMigrations(cfg *config.Config) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
	)
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Server) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.Hub.Run(ctx)
	if s.relay != nil {
		go s.relay.Run(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	cancel()
	s.Hub.Wait()
	if s.rc != nil {
		_ = s.rc.Close()
	}

	log.Println("✅ Server exited properly")
}
