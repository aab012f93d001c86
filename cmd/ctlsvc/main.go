package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	config "github.com/kriugm/kri-services/configs"
	svcconfig "github.com/kriugm/kri-services/internal/eventsvc/config"
	"github.com/kriugm/kri-services/internal/eventsvc/db"
	"github.com/kriugm/kri-services/internal/eventsvc/models"
	"github.com/kriugm/kri-services/internal/eventsvc/service"
	"github.com/kriugm/kri-services/internal/eventsvc/store"

	"github.com/jackc/pgx/v5/pgxpool"
)

const SERVICE_NAME = "ctl"

const usage = `usage: ctlsvc <command> [flags]

commands:
  migrate             apply database migrations
  create-university   --name NAME [--abbr ABBR] [--divisions krai,krsti,...]
  create-user         --username NAME [--name DISPLAY] [--university ID] [--attendance] [--verify-orders]
  register-card       --person ID --key KEY
  verify-order        --order ID --by USERNAME
`

func init() {
	config.LoadEnv(SERVICE_NAME)
	config.Logging(SERVICE_NAME+"_service", os.Getenv("LOG_LEVEL"))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := svcconfig.Load()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// pg connection
	dbpool, err := db.Connect(cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		err = db.Migrate(dbpool)
	case "create-university":
		err = createUniversity(ctx, dbpool, args)
	case "create-user":
		err = createUser(ctx, dbpool, args)
	case "register-card":
		err = registerCard(ctx, dbpool, args)
	case "verify-order":
		err = verifyOrder(ctx, dbpool, cfg.PolicyFile, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		db.ClosePool()
		os.Exit(1)
	}
}

func createUniversity(ctx context.Context, pool *pgxpool.Pool, args []string) error {
	fs := flag.NewFlagSet("create-university", flag.ExitOnError)
	name := fs.String("name", "", "university name")
	abbr := fs.String("abbr", "", "abbreviation")
	divisions := fs.StringSlice("divisions", nil, "competition divisions the university may enter")
	fs.Parse(args)

	u := &models.University{Name: *name, Abbreviation: *abbr, Eligible: map[models.Division]bool{}}
	for _, d := range *divisions {
		div, err := models.ParseDivision(strings.TrimSpace(d))
		if err != nil {
			return err
		}
		u.Eligible[div] = true
	}

	users := service.NewUserService(store.NewUserStore(pool), store.NewUniversityStore(pool))
	if _, err := users.CreateUniversity(ctx, u); err != nil {
		return err
	}
	fmt.Printf("university %d created: %s\n", u.ID, u.Name)
	return nil
}

func createUser(ctx context.Context, pool *pgxpool.Pool, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	name := fs.String("name", "", "display name")
	university := fs.Int64("university", 0, "university id for university accounts")
	attendance := fs.Bool("attendance", false, "may record attendance scans")
	verify := fs.Bool("verify-orders", false, "may verify ticket orders")
	fs.Parse(args)

	password, err := readPassword()
	if err != nil {
		return err
	}

	user := &models.User{
		Username:         *username,
		Name:             *name,
		CanLogAttendance: *attendance,
		CanVerifyOrders:  *verify,
	}
	if *university > 0 {
		user.UniversityID = university
	}

	users := service.NewUserService(store.NewUserStore(pool), store.NewUniversityStore(pool))
	if _, err := users.CreateUser(ctx, user, password); err != nil {
		return err
	}
	fmt.Printf("user %d created: %s\n", user.ID, user.Username)
	return nil
}

// readPassword takes KRI_PASSWORD when set, otherwise prompts.
func readPassword() (string, error) {
	if p := os.Getenv("KRI_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func registerCard(ctx context.Context, pool *pgxpool.Pool, args []string) error {
	fs := flag.NewFlagSet("register-card", flag.ExitOnError)
	person := fs.Int64("person", 0, "person id")
	key := fs.String("key", "", "card key")
	fs.Parse(args)

	card, err := service.NewCardService(store.NewCardStore(pool)).Register(ctx, *person, *key)
	if err != nil {
		return err
	}
	fmt.Printf("card %d (%s) registered to person %d\n", card.ID, card.Key, card.PersonID)
	return nil
}

func verifyOrder(ctx context.Context, pool *pgxpool.Pool, policyFile string, args []string) error {
	fs := flag.NewFlagSet("verify-order", flag.ExitOnError)
	order := fs.Int64("order", 0, "ticket order id")
	by := fs.String("by", "", "username of the verifying staff member")
	fs.Parse(args)

	p, err := svcconfig.LoadPolicy(policyFile)
	if err != nil {
		return err
	}

	userStore := store.NewUserStore(pool)
	actor, err := userStore.GetByUsername(ctx, *by)
	if err != nil {
		return err
	}

	tickets := service.NewTicketService(store.NewTicketStore(pool), store.NewUniversityStore(pool), p)
	o, err := tickets.Verify(ctx, *order, actor)
	if err != nil {
		return err
	}
	fmt.Printf("order %d verified: %d tickets, %s\n", o.ID, o.Amount, o.Price.StringFixed(0))
	return nil
}
