// Command adduser creates an account directly in the database, prompting for
// the password when it is not given on the command line.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/config"
	"github.com/dmitrijs2005/expensekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/expensekeeper/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

var (
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}
	newRepoManager = repomanager.NewPostgresRepositoryManager
	lookupEnv      = os.LookupEnv
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	defaults, err := config.LoadEnv(lookupEnv)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email (login)")
	name := fs.String("name", "", "Display name (optional)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dsn := fs.String("dsn", defaults.DatabaseDSN, "Database DSN")
	cost := fs.Int("cost", defaults.BcryptCost, "bcrypt cost")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-name <name>] [-password <password>] [-dsn <dsn>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx := context.Background()

	db, err := openDB(ctx, *dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rm := newRepoManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var displayName *string
	if *name != "" {
		displayName = name
	}

	us := services.NewUserService(db, rm, auth.NewPasswordHasher(*cost), nil, nil)
	user, err := us.Register(ctx, *email, password, displayName)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return fmt.Errorf("user %s already exists", *email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Email, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
