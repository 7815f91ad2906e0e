package waiver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gbrfl/league/go/internal/models"
	"github.com/gbrfl/league/go/internal/sqlutil"
)

// ErrClaimNotFound is returned when a claim id does not exist.
var ErrClaimNotFound = errors.New("waiver claim not found")

// Repository stores waiver claims. Claims are written once at creation and
// once at their terminal transition; only the resolver moves them there.
type Repository struct {
	db sqlutil.DBTX
}

func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

type CreateClaimRequest struct {
	TeamID          uuid.UUID
	Season          int
	PickupPlayerID  uuid.UUID
	DropPlayerID    *uuid.UUID
	Round           int
	SubmissionOrder int
	CreatedAt       time.Time
}

const claimColumns = `id, team_id, season, pickup_player_id, drop_player_id, round,
	submission_order, status, resolved_priority, rejection_reason, created_at, resolved_at`

func (r *Repository) CreateClaim(ctx context.Context, req CreateClaimRequest) (*models.WaiverClaim, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO waiver_claims
			(id, team_id, season, pickup_player_id, drop_player_id, round, submission_order, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+claimColumns,
		uuid.New(), req.TeamID, req.Season, req.PickupPlayerID,
		sqlutil.ToNullUUID(req.DropPlayerID), req.Round, req.SubmissionOrder,
		string(models.WaiverClaimStatusPending), req.CreatedAt,
	)
	claim, err := scanClaim(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create waiver claim: %w", err)
	}
	return claim, nil
}

func (r *Repository) GetClaim(ctx context.Context, id uuid.UUID) (*models.WaiverClaim, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+claimColumns+` FROM waiver_claims WHERE id = $1`, id)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get waiver claim: %w", err)
	}
	return claim, nil
}

// ListPendingByTeam returns a team's pending claims in queue order.
func (r *Repository) ListPendingByTeam(ctx context.Context, teamID uuid.UUID, season int) ([]models.WaiverClaim, error) {
	return r.listClaims(ctx, `
		SELECT `+claimColumns+` FROM waiver_claims
		WHERE team_id = $1 AND season = $2 AND status = $3
		ORDER BY submission_order`,
		teamID, season, string(models.WaiverClaimStatusPending))
}

// CountPendingNoDrop counts a team's pending claims that name no drop player.
// Submission-time roster math accounts for these.
func (r *Repository) CountPendingNoDrop(ctx context.Context, teamID uuid.UUID, season int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM waiver_claims
		WHERE team_id = $1 AND season = $2 AND status = $3 AND drop_player_id IS NULL`,
		teamID, season, string(models.WaiverClaimStatusPending),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending no-drop claims: %w", err)
	}
	return count, nil
}

// ListPendingReferencing returns every pending claim whose pickup matches
// pickupID, or whose pickup or drop matches dropID (when non-nil).
func (r *Repository) ListPendingReferencing(ctx context.Context, season int, pickupID uuid.UUID, dropID *uuid.UUID) ([]models.WaiverClaim, error) {
	return r.listClaims(ctx, `
		SELECT `+claimColumns+` FROM waiver_claims
		WHERE season = $1 AND status = $2
		  AND (pickup_player_id = $3
		       OR ($4::uuid IS NOT NULL AND (pickup_player_id = $4 OR drop_player_id = $4)))
		ORDER BY created_at`,
		season, string(models.WaiverClaimStatusPending), pickupID, sqlutil.ToNullUUID(dropID))
}

// SetSubmissionOrder renumbers one pending claim within its team's queue.
func (r *Repository) SetSubmissionOrder(ctx context.Context, claimID uuid.UUID, order int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE waiver_claims SET submission_order = $2
		WHERE id = $1 AND status = $3`,
		claimID, order, string(models.WaiverClaimStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to set submission order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set submission order: %w", err)
	}
	if affected == 0 {
		return ErrClaimNotFound
	}
	return nil
}

// MarkApproved moves a pending claim to its approved terminal state.
func (r *Repository) MarkApproved(ctx context.Context, claimID uuid.UUID, priority int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE waiver_claims
		SET status = $2, resolved_priority = $3, resolved_at = $4
		WHERE id = $1 AND status = $5`,
		claimID, string(models.WaiverClaimStatusApproved), priority, at,
		string(models.WaiverClaimStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to mark claim approved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark claim approved: %w", err)
	}
	if affected == 0 {
		return ErrClaimNotPending
	}
	return nil
}

// MarkRejected moves a pending claim to its rejected terminal state. The
// priority is persisted even on rejection so history shows where the claim
// would have ranked.
func (r *Repository) MarkRejected(ctx context.Context, claimID uuid.UUID, reason string, priority *int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE waiver_claims
		SET status = $2, rejection_reason = $3, resolved_priority = $4, resolved_at = $5
		WHERE id = $1 AND status = $6`,
		claimID, string(models.WaiverClaimStatusRejected), reason,
		sqlutil.ToSqlInt32(priority), at,
		string(models.WaiverClaimStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to mark claim rejected: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark claim rejected: %w", err)
	}
	if affected == 0 {
		return ErrClaimNotPending
	}
	return nil
}

func (r *Repository) listClaims(ctx context.Context, query string, args ...any) ([]models.WaiverClaim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiver claims: %w", err)
	}
	defer rows.Close()

	var claims []models.WaiverClaim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan waiver claim: %w", err)
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.WaiverClaim, error) {
	var claim models.WaiverClaim
	var dropPlayerID uuid.NullUUID
	var status string
	var priority sql.NullInt32
	var reason sql.NullString
	var resolvedAt sql.NullTime
	if err := row.Scan(
		&claim.ID,
		&claim.TeamID,
		&claim.Season,
		&claim.PickupPlayerID,
		&dropPlayerID,
		&claim.Round,
		&claim.SubmissionOrder,
		&status,
		&priority,
		&reason,
		&claim.CreatedAt,
		&resolvedAt,
	); err != nil {
		return nil, err
	}
	claim.DropPlayerID = sqlutil.FromNullUUID(dropPlayerID)
	claim.Status = models.WaiverClaimStatus(status)
	claim.ResolvedPriority = sqlutil.FromSqlInt32(priority)
	claim.RejectionReason = sqlutil.FromSqlStringPtr(reason)
	claim.ResolvedAt = sqlutil.FromSqlTime(resolvedAt)
	return &claim, nil
}
