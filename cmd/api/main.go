package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"labstock/internal/auth"
	"labstock/internal/config"
	"labstock/internal/db"
	"labstock/internal/httpserver"
	"labstock/internal/logger"
	"labstock/internal/models"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		lg.Fatalw("JWT_SECRET is empty")
	}
	gdb, err := db.Open(cfg)
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.Up(gdb, db.Migrations); err != nil {
		lg.Fatalw("migrations failed", "error", err)
	}
	seedFirstSuperuser(gdb, cfg, lg)

	router := httpserver.NewRouter(gdb, lg)
	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		log.Fatal(err)
	}
}

// seedFirstSuperuser creates the initial superuser account when it is
// configured and does not exist yet.
func seedFirstSuperuser(gdb *gorm.DB, cfg *config.Config, lg *zap.SugaredLogger) {
	if cfg.FirstSuperuserPassword == "" {
		lg.Infow("FIRST_SUPERUSER_PASSWORD not set, skipping superuser seed")
		return
	}
	var count int64
	gdb.Model(&models.User{}).Where("email = ?", cfg.FirstSuperuserEmail).Count(&count)
	if count > 0 {
		return
	}
	hash, err := auth.HashPassword(cfg.FirstSuperuserPassword)
	if err != nil {
		lg.Fatalw("superuser seed failed", "error", err)
	}
	u := models.User{
		Email:          cfg.FirstSuperuserEmail,
		HashedPassword: hash,
		IsActive:       true,
		IsSuperuser:    true,
		IsPartOfLab:    true,
		CanEditItems:   true,
		CanEditLabs:    true,
		CanEditUsers:   true,
	}
	if err := gdb.Create(&u).Error; err != nil {
		lg.Fatalw("superuser seed failed", "error", err)
	}
	lg.Infow("seeded first superuser", "email", u.Email)
}
