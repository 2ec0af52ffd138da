package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"github.com/portfoliofuturo/portfolio-api/internal/database"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
)

const usage = `Usage:
  repair-accounts list              accounts missing a profile or detail row
  repair-accounts complete <email>  write the missing rows from sign-up metadata
  repair-accounts purge <email>     delete the account and every row it owns`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	sessions := services.NewSessionService(db)
	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	identities := services.NewIdentityService(db, sessions, jwtService, nil, nil, services.IdentityOptions{
		BaseURL: cfg.BaseURL,
		SiteURL: cfg.SiteURL,
	})
	profiles := services.NewProfileService(db)
	provisioner := services.NewProvisioner(identities, profiles, services.ProvisionerOptions{
		Mode:          config.ProvisioningModeSaga,
		MaxAttempts:   cfg.Provisioning.MaxAttempts,
		RetryInterval: cfg.Provisioning.RetryInterval,
		DefaultState:  cfg.DefaultState,
	})

	switch cmd := os.Args[1]; cmd {
	case "list":
		list(ctx, profiles)
	case "complete", "purge":
		if len(os.Args) != 3 {
			fmt.Println(usage)
			os.Exit(1)
		}
		ident, err := identities.GetByEmail(ctx, os.Args[2])
		if errors.Is(err, services.ErrIdentityNotFound) {
			log.Fatalf("No account found with email: %s", os.Args[2])
		}
		if err != nil {
			log.Fatalf("Failed to look up account: %v", err)
		}

		if cmd == "complete" {
			res, err := provisioner.Resume(ctx, ident)
			if err != nil {
				log.Fatalf("Failed to complete %s: %v", ident.Email, err)
			}
			fmt.Printf("Account %s is %s\n", ident.Email, res.Outcome)
			return
		}

		if err := sessions.DeleteAllForIdentity(ctx, ident.ID); err != nil {
			log.Fatalf("Failed to revoke sessions of %s: %v", ident.Email, err)
		}
		if err := profiles.DeleteByIdentity(ctx, ident.ID); err != nil {
			log.Fatalf("Failed to delete profile rows of %s: %v", ident.Email, err)
		}
		if err := identities.DeleteIdentity(ctx, ident.ID); err != nil {
			log.Fatalf("Failed to delete identity %s: %v", ident.Email, err)
		}
		fmt.Printf("Purged %s\n", ident.Email)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func list(ctx context.Context, profiles *services.ProfileService) {
	accounts, err := profiles.ListIncomplete(ctx)
	if err != nil {
		log.Fatalf("Failed to list incomplete accounts: %v", err)
	}
	if len(accounts) == 0 {
		fmt.Println("No incomplete accounts")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tROLE\tPROFILE\tDETAIL\tCREATED")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n", a.Email, a.Role, a.HasProfile, a.HasDetail, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}
