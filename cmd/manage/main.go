package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/term"

	"github.com/YarinDev/recipe-app-api/internal/app/migrate"
	"github.com/YarinDev/recipe-app-api/internal/repository/postgres"
	"github.com/YarinDev/recipe-app-api/internal/service/auth"
	"github.com/YarinDev/recipe-app-api/pkg/config"
	"github.com/YarinDev/recipe-app-api/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "management command (up|status|down|wait|createsuperuser)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	target := flag.Int64("target", 0, "target version for down command (optional)")
	email := flag.String("email", "", "superuser email for createsuperuser")
	password := flag.String("password", "", "superuser password (prompted when empty)")
	flag.Parse()

	cfg := config.LoadAPIConfig()
	log := logger.New("manage", slog.LevelInfo)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to configure database pool", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migration runner", "error", err)
		os.Exit(1)
	}
	defer runner.Close()

	switch *command {
	case "wait":
		err = runner.WaitForDB(ctx, cfg.DBWaitTimeout)
	case "up":
		if err = runner.WaitForDB(ctx, cfg.DBWaitTimeout); err == nil {
			err = runner.Ensure(ctx)
		}
	case "status":
		err = runner.Status(ctx)
	case "down":
		err = runner.Down(ctx, *target)
	case "createsuperuser":
		err = createSuperuser(ctx, pool, log, cfg, *email, *password)
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(1)
	}
	if err != nil {
		log.Error("management command failed", "command", *command, "error", err)
		os.Exit(1)
	}

	log.Info("management command completed", "command", *command)
}

func createSuperuser(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger, cfg config.APIConfig, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("--email is required")
	}
	secret := strings.TrimSpace(password)
	if secret == "" {
		fmt.Print("Password: ")
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Print("\n")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		secret = string(bytes)
	}

	svc := auth.New(postgres.New(pool), log, cfg)
	user, err := svc.CreateSuperuser(ctx, email, secret)
	if err != nil {
		return err
	}
	log.Info("superuser created", "user_id", user.ID, "email", user.Email)
	return nil
}
