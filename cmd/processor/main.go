package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/dataprocessor/internal/config"
	"github.com/dmitrijs2005/dataprocessor/internal/processor"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("%v", err)
		return 2
	}

	app, err := processor.NewApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	defer app.Close()

	if err := app.Run(context.Background()); err != nil {
		return 1
	}
	return 0
}
