package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/edubot-service/internal/domain"
)

// DeliveryRepository stores the outcome of every reply.
type DeliveryRepository struct {
	db *sqlx.DB
}

func NewDeliveryRepository(db *sqlx.DB) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Create(ctx context.Context, d *domain.Delivery) error {
	query := `
		INSERT INTO deliveries (reference, phone_number, inbound_event_id, level, message_id, failures, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		d.Reference, d.PhoneNumber, d.InboundEventID, d.Level, d.MessageID, d.Failures, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	d.ID = id

	return nil
}

// List pages through deliveries, newest first. failedOnly keeps level "none".
func (r *DeliveryRepository) List(ctx context.Context, failedOnly bool, page, pageSize int) ([]domain.Delivery, int64, error) {
	offset := (page - 1) * pageSize

	where := ""
	args := []any{}
	if failedOnly {
		where = " WHERE level = ?"
		args = append(args, domain.LevelNone)
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM deliveries"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count deliveries: %w", err)
	}

	query := `
		SELECT id, reference, phone_number, inbound_event_id, level, message_id, failures, created_at
		FROM deliveries` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	deliveries := []domain.Delivery{}
	if err := r.db.SelectContext(ctx, &deliveries, query, append(args, pageSize, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list deliveries: %w", err)
	}

	return deliveries, totalCount, nil
}

// Stats counts deliveries per level created at or after since.
func (r *DeliveryRepository) Stats(ctx context.Context, since time.Time) (domain.DeliveryStats, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN level = 'interactive' THEN 1 ELSE 0 END), 0) AS interactive,
			COALESCE(SUM(CASE WHEN level = 'text' THEN 1 ELSE 0 END), 0)        AS text,
			COALESCE(SUM(CASE WHEN level = 'fallback' THEN 1 ELSE 0 END), 0)    AS fallback,
			COALESCE(SUM(CASE WHEN level = 'none' THEN 1 ELSE 0 END), 0)        AS none
		FROM deliveries
		WHERE created_at >= ?
	`

	var stats domain.DeliveryStats
	if err := r.db.GetContext(ctx, &stats, query, since); err != nil {
		return domain.DeliveryStats{}, fmt.Errorf("failed to get delivery stats: %w", err)
	}

	return stats, nil
}
