package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/letieu/reddit-profiler/config"
	"github.com/letieu/reddit-profiler/internal/store"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

func main() {
	cnf, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
		return
	}

	if err := cnf.ValidateDatabase(); err != nil {
		log.Fatal(err)
	}

	var db *sql.DB
	switch cnf.Database.Type {
	case "memory":
		log.Fatal("database.type is memory, nothing to migrate")
	case "libsql":
		db, err = sql.Open("libsql", fmt.Sprintf("%s?authToken=%s", cnf.Database.Url, cnf.Database.Token))
	default:
		db, err = sql.Open("sqlite", cnf.Database.DBName)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(context.Background(), db); err != nil {
		log.Fatalf("SQL failed: %v", err)
	}

	log.Println("DONE")
}
