package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"matchday/internal/model"
)

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) MatchRepository {
	return &matchRepository{db: db}
}

// GetContext loads a match joined with both teams and its competition.
func (r *matchRepository) GetContext(ctx context.Context, matchID int64) (*model.MatchContext, error) {
	query := `
		SELECT m.id, m.status, m.kickoff_at, m.venue, m.home_score, m.away_score,
		       ht.id AS "home.id", ht.name AS "home.name", ht.logo_url AS "home.logo_url",
		       at.id AS "away.id", at.name AS "away.name", at.logo_url AS "away.logo_url",
		       c.id AS "competition.id", c.name AS "competition.name"
		FROM matches m
		JOIN teams ht ON ht.id = m.home_team_id
		JOIN teams at ON at.id = m.away_team_id
		JOIN competitions c ON c.id = m.competition_id
		WHERE m.id = $1
	`
	var mc model.MatchContext
	err := r.db.GetContext(ctx, &mc, query, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match context: %w", err)
	}
	return &mc, nil
}

func (r *matchRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]int64, error) {
	query := `
		SELECT id FROM matches
		WHERE status = $1 AND kickoff_at >= $2 AND kickoff_at < $3
		ORDER BY kickoff_at, id
	`
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, model.MatchStatusScheduled, from, to); err != nil {
		return nil, fmt.Errorf("list scheduled matches: %w", err)
	}
	return ids, nil
}
