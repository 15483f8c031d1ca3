package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/edubot-service/internal/domain"
)

const userColumns = `phone_number, first_name, full_name, registered, state, homework_type,
	homework_subject, last_interaction_at, created_at, updated_at`

// UserRepository handles database operations for users and their homework.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByPhone returns nil, nil when the phone number has never been seen.
func (r *UserRepository) GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = ?`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, phoneNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// SaveTransition upserts the user and, when present, inserts the homework
// submission in the same transaction.
func (r *UserRepository) SaveTransition(ctx context.Context, user domain.User, submission *domain.HomeworkSubmission) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	upsert := `
		INSERT INTO users (phone_number, first_name, full_name, registered, state, homework_type,
			homework_subject, last_interaction_at, created_at, updated_at)
		VALUES (:phone_number, :first_name, :full_name, :registered, :state, :homework_type,
			:homework_subject, :last_interaction_at, :created_at, :updated_at)
		ON DUPLICATE KEY UPDATE
			first_name = VALUES(first_name),
			full_name = VALUES(full_name),
			registered = VALUES(registered),
			state = VALUES(state),
			homework_type = VALUES(homework_type),
			homework_subject = VALUES(homework_subject),
			last_interaction_at = VALUES(last_interaction_at),
			updated_at = VALUES(updated_at)
	`
	if _, err = tx.NamedExecContext(ctx, upsert, user); err != nil {
		return fmt.Errorf("failed to save user state: %w", err)
	}

	if submission != nil {
		insert := `
			INSERT INTO homework_submissions (reference, phone_number, type, subject, content, media_id, created_at)
			VALUES (:reference, :phone_number, :type, :subject, :content, :media_id, :created_at)
		`
		if _, err = tx.NamedExecContext(ctx, insert, submission); err != nil {
			return fmt.Errorf("failed to save homework submission: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	return nil
}

func (r *UserRepository) List(
	ctx context.Context,
	state *domain.ConversationState,
	page, pageSize int,
) ([]domain.User, int64, error) {
	offset := (page - 1) * pageSize

	where := ""
	args := []any{}
	if state != nil {
		where = " WHERE state = ?"
		args = append(args, *state)
	}

	var totalCount int64
	if err := r.db.GetContext(ctx, &totalCount, "SELECT COUNT(*) FROM users"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + `
		ORDER BY last_interaction_at DESC
		LIMIT ? OFFSET ?`

	users := []domain.User{}
	if err := r.db.SelectContext(ctx, &users, query, append(args, pageSize, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, totalCount, nil
}

func (r *UserRepository) CountByState(ctx context.Context) ([]domain.StateCount, error) {
	query := `SELECT state, COUNT(*) AS count FROM users GROUP BY state ORDER BY state`

	counts := []domain.StateCount{}
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count users by state: %w", err)
	}

	return counts, nil
}

func (r *UserRepository) ListHomework(ctx context.Context, phoneNumber string, limit int) ([]domain.HomeworkSubmission, error) {
	query := `
		SELECT reference, phone_number, type, subject, content, media_id, created_at
		FROM homework_submissions
		WHERE phone_number = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	submissions := []domain.HomeworkSubmission{}
	if err := r.db.SelectContext(ctx, &submissions, query, phoneNumber, limit); err != nil {
		return nil, fmt.Errorf("failed to list homework: %w", err)
	}

	return submissions, nil
}
