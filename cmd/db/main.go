package main

import (
	"github.com/tomasstrnad1997/minefield/config"
	"github.com/tomasstrnad1997/minefield/db"
)

func main() {
	cfg := config.Load()
	log := cfg.NewLogger()
	db.SetLogger(log)

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()
	if err = store.Migrate(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
	log.WithField("path", cfg.DBPath).Info("Tables created")
}
