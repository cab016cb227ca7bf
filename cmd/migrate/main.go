package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"labstock/internal/config"
	"labstock/internal/db"
	"labstock/internal/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate <up|down|status>")
	os.Exit(2)
}

func main() {
	if len(os.Args) != 2 {
		usage()
	}
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	gdb, err := db.Open(config.Load())
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}

	switch os.Args[1] {
	case "up":
		if err := db.Up(gdb, db.Migrations); err != nil {
			lg.Fatalw("migrate up failed", "error", err)
		}
		lg.Infow("migrations applied")
	case "down":
		if err := db.Down(gdb, db.Migrations); err != nil {
			lg.Fatalw("migrate down failed", "error", err)
		}
		lg.Infow("rolled back one migration")
	case "status":
		status, err := db.Status(gdb, db.Migrations)
		if err != nil {
			lg.Fatalw("migrate status failed", "error", err)
		}
		for _, m := range db.Migrations {
			state := "pending"
			if status[m.ID] {
				state = "applied"
			}
			fmt.Printf("%-30s %s\n", m.ID, state)
		}
	default:
		usage()
	}
}
