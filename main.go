package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"LIBRIS-backend/internal/entries"
	"LIBRIS-backend/internal/lending/books"
	"LIBRIS-backend/internal/lending/borrows"
	"LIBRIS-backend/internal/lending/categories"
	"LIBRIS-backend/internal/lending/labels"
	"LIBRIS-backend/internal/notifications"
	"LIBRIS-backend/internal/platform/auth"
	"LIBRIS-backend/internal/platform/db"
	"LIBRIS-backend/internal/students"
)

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	// 動作モード取得
	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	secret := []byte(cfg.Auth.JWTSecret)
	authSvc := auth.NewService(conn, secret)
	notifSvc := notifications.NewService(conn)
	borrowSvc := borrows.NewService(conn, notifications.NewBorrowNotifier(notifSvc), borrows.Policy{
		BorrowPeriodDays: cfg.Library.BorrowPeriodDays,
		FinePerDay:       cfg.Library.FinePerDay,
	})

	// /api/v1
	// キオスク端末と学生向け画面は認証なしで叩く
	api := r.Group("/api/v1")
	auth.RegisterRoutes(api, authSvc)
	entries.RegisterRoutes(api, entries.NewService(conn))
	books.RegisterRoutes(api, books.NewService(conn))
	borrows.RegisterRoutes(api, borrowSvc)
	categories.RegisterRoutes(api, categories.NewService(conn))
	students.RegisterRoutes(api, students.NewService(conn))
	notifications.RegisterRoutes(api, notifSvc)

	// 司書操作はJWT必須
	staff := r.Group("/api/v1", auth.RequireAuth(secret))
	books.RegisterAdminRoutes(staff, books.NewService(conn))
	borrows.RegisterAdminRoutes(staff, borrowSvc)
	categories.RegisterAdminRoutes(staff, categories.NewService(conn))
	labels.RegisterRoutes(staff, labels.NewService(conn))
	students.RegisterAdminRoutes(staff, students.NewService(conn))

	// アカウント発行は admin ロールのみ
	admin := r.Group("/api/v1", auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin))
	auth.RegisterAdminRoutes(admin, authSvc)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
