package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/mdrzasync/internal/app"
	"github.com/dmitrijs2005/mdrzasync/internal/buildinfo"
	"github.com/dmitrijs2005/mdrzasync/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	a, err := app.NewApp(ctx, cfg, os.Stderr, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = a.Run(ctx)
	if cerr := a.Close(); cerr != nil {
		log.Printf("close store: %v", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}
