package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	config "github.com/kriugm/kri-services/configs"
	"github.com/kriugm/kri-services/internal/reader"
)

const SERVICE_NAME = "reader"

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME+"_service", os.Getenv("LOG_LEVEL"))
}

func main() {
	mode := flag.StringP("mode", "m", "login", "scan mode: login or logout")
	host := flag.String("host", envOr("EVENT_SERVICE_URL", "http://localhost:8000"), "event service base url")
	username := flag.StringP("username", "u", os.Getenv("READER_USERNAME"), "gate staff username")
	password := flag.StringP("password", "p", os.Getenv("READER_PASSWORD"), "gate staff password")
	device := flag.String("device", "", "reader device to read keys from, stdin when empty")
	debounce := flag.Duration("debounce", 2*time.Second, "ignore the same key read again within this window")
	retries := flag.Int("retries", 2, "retries for transient failures")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := reader.NewClient(*host, *username, *password, *retries)
	if err := client.Authenticate(ctx); err != nil {
		log.Fatalf("unable to authenticate %s: %v", *username, err)
	}

	r, err := reader.NewReader(client, *mode, *debounce)
	if err != nil {
		log.Fatal(err)
	}

	in := os.Stdin
	if *device != "" {
		in, err = os.Open(*device)
		if err != nil {
			log.Fatalf("unable to open reader device: %v", err)
		}
		defer in.Close()
	}

	log.Infof("%s reader started against %s", *mode, *host)
	err = r.Run(ctx, in, func(key string, res *reader.Result, err error) {
		fmt.Println(reader.Format(key, res, err))
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("reader stopped: %v", err)
	}
	log.Infof("%s reader stopped", *mode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
