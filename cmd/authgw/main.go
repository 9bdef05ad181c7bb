package main

import (
	"log"

	"github.com/aussiebroadwan/invoicely/internal/authgw/app"
)

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize auth gateway: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("auth gateway error: %v", err)
	}
}
