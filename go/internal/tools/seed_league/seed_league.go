package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gbrfl/league/go/internal/dbconfig"
	"github.com/gbrfl/league/go/internal/models"
)

// SeedFile is the JSON layout consumed by the seeder.
type SeedFile struct {
	Season  int          `json:"season"`
	Teams   []SeedTeam   `json:"teams"`
	Players []SeedPlayer `json:"players"`
}

type SeedTeam struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	OwnerName string      `json:"owner_name"`
	Rank      int         `json:"rank"`
	Keepers   int         `json:"keeper_base_slots"`
	Roster    []uuid.UUID `json:"roster"`
}

type SeedPlayer struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	FullName   string    `json:"full_name"`
	Position   string    `json:"position"`
}

func main() {
	ctx := context.Background()

	path := "go/internal/assets/league_seed.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal seed file: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	seedPlayers(ctx, pool, seed.Players)
	seedTeams(ctx, pool, seed)
}

func seedPlayers(ctx context.Context, pool *pgxpool.Pool, players []SeedPlayer) {
	total, inserted, skipped, errs := len(players), 0, 0, 0
	for _, p := range players {
		position := models.NormalizePosition(p.Position)
		if !position.Valid() {
			errs++
			continue
		}
		tag, err := pool.Exec(ctx, `
            INSERT INTO players (id, external_id, full_name, position)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (external_id) DO NOTHING
        `, p.ID, p.ExternalID, p.FullName, string(position))
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}
	fmt.Printf("Players seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs)
}

func seedTeams(ctx context.Context, pool *pgxpool.Pool, seed SeedFile) {
	total, inserted, skipped, errs := len(seed.Teams), 0, 0, 0
	for _, t := range seed.Teams {
		tag, err := pool.Exec(ctx, `
            INSERT INTO fantasy_teams (id, name, owner_name)
            VALUES ($1, $2, $3)
            ON CONFLICT (id) DO NOTHING
        `, t.ID, t.Name, t.OwnerName)
		if err != nil {
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}

		if _, err := pool.Exec(ctx, `
            INSERT INTO standings (team_id, season, rank)
            VALUES ($1, $2, $3)
            ON CONFLICT (team_id, season) DO UPDATE SET rank = EXCLUDED.rank
        `, t.ID, seed.Season, t.Rank); err != nil {
			errs++
		}

		if _, err := pool.Exec(ctx, `
            INSERT INTO keeper_slot_allotments (team_id, season, base_slots, additional_slots)
            VALUES ($1, $2, $3, 0)
            ON CONFLICT (team_id, season) DO NOTHING
        `, t.ID, seed.Season, t.Keepers); err != nil {
			errs++
		}

		for _, playerID := range t.Roster {
			if _, err := pool.Exec(ctx, `
                INSERT INTO roster_entries (id, team_id, player_id, acquisition_type, acquired_at)
                VALUES ($1, $2, $3, 'DRAFT', now())
                ON CONFLICT (player_id) DO NOTHING
            `, uuid.New(), t.ID, playerID); err != nil {
				errs++
			}
		}
	}
	fmt.Printf("Teams seed: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs)
}
