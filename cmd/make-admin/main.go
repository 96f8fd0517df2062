package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ShadowYIG/hctf-backend/internal/config"
	"github.com/ShadowYIG/hctf-backend/internal/models"
	"github.com/ShadowYIG/hctf-backend/internal/services"
	"github.com/ShadowYIG/hctf-backend/internal/storage"
)

// make-admin grants the admin flag to an existing team. Every admin endpoint
// needs an admin caller, so the first one has to be created out of band.
func main() {
	email := flag.String("email", "", "Email of the team to promote")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "Usage: make-admin -email <team email>")
		os.Exit(2)
	}

	cfg := config.Load()
	db, err := storage.Open(cfg.DBDriver, cfg.DatabaseDSN, cfg.DatabaseDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	auditor := services.NewSlogAuditor(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	team, err := promote(ctx, services.NewTeamService(db, cfg.Location()), auditor, *email)
	if err != nil {
		if errors.Is(err, services.ErrTeamNotFound) {
			fmt.Fprintf(os.Stderr, "No team registered with email %s\n", *email)
		} else {
			fmt.Fprintf(os.Stderr, "Error promoting team: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Team %q (ID %d) is now an admin\n", team.TeamName, team.TeamID)
}

func promote(ctx context.Context, teams services.TeamService, auditor services.Auditor, email string) (*models.Team, error) {
	team, err := teams.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	_, err = teams.SetAdmin(ctx, []uint{team.TeamID})
	outcome, detail := models.OutcomeSuccess, "promoted from command line"
	if err != nil {
		outcome, detail = models.OutcomeFailure, err.Error()
	}
	auditor.Record(ctx, services.NewAuditEvent(services.ActionTeamSetAdmin, 0, []uint{team.TeamID}, outcome, detail))
	if err != nil {
		return nil, err
	}

	team.Admin = true
	return team, nil
}
