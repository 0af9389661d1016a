package reviews

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrDuplicateReview = errors.New("review already exists for this product")
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyDecided  = errors.New("review already decided")
)

// Create inserts a PENDING review, enforcing one live review per
// user/product (rejected reviews do not block a resubmission).
func (r *Repo) Create(ctx context.Context, rev Review) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(
		SELECT 1 FROM reviews
		WHERE user_id=$1 AND product_id=$2 AND status IN ('PENDING','APPROVED','MANUAL_REVIEW'))`,
		rev.UserID, rev.ProductID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateReview
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reviews(id, product_id, user_id, rating, title, body,
		                    image_count, image_bytes_total, status, verified_purchase)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Title, rev.Body,
		rev.ImageCount, rev.ImageBytesTotal, StatusPending, rev.VerifiedPurchase)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// VerifiedPurchase reports whether the user has a confirmed order that
// contains any variant of the product.
func (r *Repo) VerifiedPurchase(ctx context.Context, userID, productID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(
		SELECT 1
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN variants v ON v.id = oi.variant_id
		WHERE o.user_id=$1 AND v.product_id=$2 AND o.status='CONFIRMED')`,
		userID, productID).Scan(&ok)
	return ok, err
}

// History gathers the author signals the scorer needs.
func (r *Repo) History(ctx context.Context, userID string, window time.Duration) (UserHistory, error) {
	var h UserHistory
	err := r.DB.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status <> 'PENDING'),
			count(*) FILTER (WHERE status = 'REJECTED'),
			count(*) FILTER (WHERE created_at > now() - make_interval(secs => $2))
		FROM reviews WHERE user_id=$1`,
		userID, window.Seconds()).Scan(&h.TotalReviews, &h.RejectedReviews, &h.SubmissionsInWindow)
	if err != nil {
		return h, err
	}
	err = r.DB.QueryRow(ctx, `SELECT count(*) FROM orders WHERE user_id=$1 AND status='CONFIRMED'`,
		userID).Scan(&h.ConfirmedOrders)
	return h, err
}

// SetVerdict records the scorer's verdict; only PENDING reviews move.
// Returns false when the review was already decided (worker replay).
func (r *Repo) SetVerdict(ctx context.Context, id string, score float64, status Status, reasons []string) (bool, error) {
	if reasons == nil {
		reasons = []string{}
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE reviews SET status=$2, risk_score=$3, verdict_reasons=$4, decided_at=now()
		WHERE id=$1 AND status='PENDING'`,
		id, status, score, reasons)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Decide applies a manual moderator decision from the queue.
func (r *Repo) Decide(ctx context.Context, id string, status Status) (Review, error) {
	var rev Review
	err := r.DB.QueryRow(ctx, `
		UPDATE reviews SET status=$2, decided_at=now()
		WHERE id=$1 AND status='MANUAL_REVIEW'
		RETURNING id, product_id, user_id, rating, title, body,
		          image_count, image_bytes_total, status, risk_score,
		          verdict_reasons, verified_purchase, created_at, decided_at`,
		id, status).
		Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Title, &rev.Body,
			&rev.ImageCount, &rev.ImageBytesTotal, &rev.Status, &rev.RiskScore,
			&rev.VerdictReasons, &rev.VerifiedPurchase, &rev.CreatedAt, &rev.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// either unknown or not in the queue anymore
		var exists bool
		if e := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM reviews WHERE id=$1)`, id).Scan(&exists); e == nil && exists {
			return Review{}, ErrAlreadyDecided
		}
		return Review{}, ErrReviewNotFound
	}
	return rev, err
}

// ListApproved pages a product's visible reviews, newest first.
func (r *Repo) ListApproved(ctx context.Context, productID string, limit int) ([]Review, error) {
	return r.list(ctx, `WHERE product_id=$1 AND status='APPROVED'`, limit, productID)
}

// ListByStatus feeds the admin moderation queue.
func (r *Repo) ListByStatus(ctx context.Context, status Status, limit int) ([]Review, error) {
	return r.list(ctx, `WHERE status=$1`, limit, string(status))
}

func (r *Repo) list(ctx context.Context, where string, limit int, args ...any) ([]Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, user_id, rating, title, body,
		       image_count, image_bytes_total, status, risk_score,
		       verdict_reasons, verified_purchase, created_at, decided_at
		FROM reviews `+where+` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Title, &rev.Body,
			&rev.ImageCount, &rev.ImageBytesTotal, &rev.Status, &rev.RiskScore,
			&rev.VerdictReasons, &rev.VerifiedPurchase, &rev.CreatedAt, &rev.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}
