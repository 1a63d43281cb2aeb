package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fundhub/internal/db"
	"fundhub/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var list bool
	flag.BoolVar(&list, "list", false, "print the embedded migrations and exit")
	flag.Parse()

	if list {
		migrations, err := db.Migrations()
		if err != nil {
			exitWithError(err)
		}
		for _, m := range migrations {
			fmt.Printf("%04d %s %s\n", m.Version, m.Name, m.Checksum[:12])
		}
		return
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(fmt.Errorf("DATABASE_URL is required"))
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "migrate").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, dbURL)
	if err != nil {
		exitWithError(err)
	}
	defer conn.Close()

	applied, err := db.Migrate(ctx, conn, logger)
	if err != nil {
		exitWithError(err)
	}
	fmt.Printf("%d migration(s) applied\n", applied)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
