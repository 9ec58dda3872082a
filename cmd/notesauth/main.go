package main

import (
	"errors"
	"log"
	"os"

	"github.com/aussiebroadwan/notesauth/internal/auth/app"
	"github.com/spf13/pflag"
)

func main() {
	cfg, err := app.LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
