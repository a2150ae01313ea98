package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/riskmap/internal/pkg/config"
)

// migrations are applied in order by "up" and reverted in reverse order by
// "down". Extensions are left in place on the way down.
var migrations = []struct {
	up   string
	down string
}{
	{up: "migrations/001_init_extensions.sql"},
	{up: "migrations/002_checkpoint_events.sql", down: "migrations/002_checkpoint_events.down.sql"},
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("riskmap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		var files []string
		for _, m := range migrations {
			files = append(files, m.up)
		}
		apply(ctx, pool, files)
	case "down":
		var files []string
		for _, m := range slices.Backward(migrations) {
			if m.down != "" {
				files = append(files, m.down)
			}
		}
		apply(ctx, pool, files)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func apply(ctx context.Context, pool *pgxpool.Pool, files []string) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}
