// Command portalsubmit logs in to the portal and submits one distance entry.
// It does not read or write the local store.
//
//	portalsubmit -user alice -day 2024-05-07 -km 8
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mdrzasync/internal/config"
	"github.com/dmitrijs2005/mdrzasync/internal/flagx"
	"github.com/dmitrijs2005/mdrzasync/internal/logging"
	"github.com/dmitrijs2005/mdrzasync/internal/portal"
	"github.com/dmitrijs2005/mdrzasync/internal/tools"
	"golang.org/x/term"
)

func main() {
	fs := flag.NewFlagSet("portalsubmit", flag.ExitOnError)
	user := fs.String("user", "", "portal username")
	password := fs.String("password", "", "portal password (prompted when empty)")
	day := fs.String("day", "", "entry date, YYYY-MM-DD")
	km := fs.Float64("km", 0, "kilometers")
	own := []string{"-user", "--user", "-password", "--password", "-day", "--day", "-km", "--km", "-h", "-help", "--help"}
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], own))

	if *user == "" || *day == "" {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(config.FilterArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("%v", err)
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			log.Fatalf("read password: %v", err)
		}
		pw = string(b)
	}

	client, err := portal.NewClient(cfg.BaseURL, cfg.LoginPath, cfg.SubmitPath, cfg.HTTPTimeout, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pid, err := tools.SubmitOne(ctx, client, *user, pw, *day, *km)
	if err != nil {
		logger.Error(ctx, "submission failed", "error", err)
		stop()
		os.Exit(1)
	}
	fmt.Printf("participant %s: %s km on %s submitted\n", pid, portal.FormatKilometers(*km), *day)
}
