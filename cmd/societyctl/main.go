// Command societyctl is an operator console for a running society-man server.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Dakshesh-max/society-man/config"
	"github.com/Dakshesh-max/society-man/internal/client"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("societyctl: ")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	cfg := config.Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("failed to load configuration from %s: %v", path, err)
		}
		cfg = loaded
	}
	if url := os.Getenv("SOCIETY_URL"); url != "" {
		cfg.Client.BaseURL = url
	}

	c, err := client.New(cfg.Client)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := &commandLine{client: c, out: os.Stdout}
	if err := cli.run(ctx, os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
