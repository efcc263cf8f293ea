package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"customerhub/internal/auth"
	"customerhub/internal/cache"
	"customerhub/internal/config"
	"customerhub/internal/db"
	"customerhub/internal/logger"
	"customerhub/internal/model"
	"customerhub/internal/repository"
)

type envLookup func(string) (string, bool)

type seedArgs struct {
	Email    string
	Password string
}

func main() {
	log := logger.New(slog.LevelInfo)

	args, err := parseArgs(os.Args[1:], os.LookupEnv)
	if err != nil {
		log.Error("invalid arguments", slog.String("error", err.Error()))
		os.Exit(2)
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		log.Error("load database config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gormDB, err := db.Open(dbCfg, log)
	if err != nil {
		log.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Error("run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisCfg, err := config.LoadRedis()
	if err != nil {
		log.Error("load redis config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cacheClient := cache.New(redisCfg, log)
	defer cacheClient.Close()

	repo := repository.NewCustomerRepository(gormDB)
	created, err := ensureAdmin(context.Background(), repo, auth.NewBcryptHasher(auth.DefaultBcryptCost), cacheClient, args)
	if err != nil {
		log.Error("seed admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if created {
		log.Info("admin created", slog.String("email", args.Email))
	} else {
		log.Info("existing customer promoted to admin", slog.String("email", args.Email))
	}
}

func parseArgs(argv []string, lookup envLookup) (seedArgs, error) {
	var args seedArgs
	args.Email, _ = lookup("SEED_ADMIN_EMAIL")
	args.Password, _ = lookup("SEED_ADMIN_PASSWORD")

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&args.Email, "email", args.Email, "Admin email")
	fs.StringVar(&args.Password, "password", args.Password, "Admin password")

	if err := fs.Parse(argv); err != nil {
		return seedArgs{}, fmt.Errorf("parse flags: %w", err)
	}
	if args.Email == "" || args.Password == "" {
		return seedArgs{}, errors.New("admin email and password are required (-email/-password or SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD)")
	}
	return args, nil
}

// ensureAdmin creates an activated ADMIN, or promotes, activates and resets the password of an
// existing customer with the same email. It reports whether a new record was created.
// A promoted customer's cached info view is evicted so the new role shows up at once.
func ensureAdmin(ctx context.Context, repo repository.CustomerRepository, hasher auth.PasswordHasher, c *cache.Client, args seedArgs) (bool, error) {
	hashed, err := hasher.Hash(args.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	existing, err := repo.FindByEmail(ctx, args.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		admin := &model.Customer{
			Email:    args.Email,
			Password: hashed,
			Role:     model.RoleAdmin,
			Active:   model.ActiveTrue,
		}
		if err := repo.Create(ctx, admin); err != nil {
			return false, fmt.Errorf("create admin: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("find customer: %w", err)
	}

	existing.Password = hashed
	existing.Role = model.RoleAdmin
	existing.Active = model.ActiveTrue
	if err := repo.Update(ctx, existing); err != nil {
		return false, fmt.Errorf("promote customer: %w", err)
	}
	c.Delete(ctx, cache.CustomerInfoKey(existing.ID))
	return false, nil
}
