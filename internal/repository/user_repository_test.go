package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/onurcolak/edubot-service/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "mysql"), mock
}

var userRowColumns = []string{
	"phone_number", "first_name", "full_name", "registered", "state", "homework_type",
	"homework_subject", "last_interaction_at", "created_at", "updated_at",
}

func TestGetByPhone_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone_number = ?")).
		WithArgs("2348012345678").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("2348012345678", "Ada", "Ada Okafor", true, "HOMEWORK_SUBJECT", "image", nil, now, now, now))

	user, err := repo.GetByPhone(context.Background(), "2348012345678")
	if err != nil {
		t.Fatalf("GetByPhone returned error: %v", err)
	}
	if user == nil {
		t.Fatalf("expected user, got nil")
	}
	if user.State != domain.StateHomeworkSubject {
		t.Errorf("expected state HOMEWORK_SUBJECT, got %s", user.State)
	}
	if user.HomeworkType == nil || *user.HomeworkType != domain.HomeworkImage {
		t.Errorf("expected homework type image, got %v", user.HomeworkType)
	}
	if user.HomeworkSubject != nil {
		t.Errorf("expected nil subject, got %q", *user.HomeworkSubject)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByPhone_NotFoundReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone_number = ?")).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	user, err := repo.GetByPhone(context.Background(), "1")
	if err != nil {
		t.Fatalf("expected no error for unknown phone, got %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestSaveTransition_UserAndSubmissionInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	user := domain.NewLead("2348012345678", now)
	user.Registered = true
	user.State = domain.StateHomeworkSubmitted
	sub := &domain.HomeworkSubmission{
		Reference:   "0b7e6a3c-4f1d-4a55-9d0e-0f4c2d1a9b11",
		PhoneNumber: user.PhoneNumber,
		Type:        domain.HomeworkText,
		Subject:     "Mathematics",
		Content:     "What is 2+2?",
		CreatedAt:   now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users .* ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO homework_submissions").
		WithArgs(sub.Reference, sub.PhoneNumber, sub.Type, sub.Subject, sub.Content, nil, sub.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveTransition(context.Background(), user, sub); err != nil {
		t.Fatalf("SaveTransition returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveTransition_RollsBackOnFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("deadlock found"))
	mock.ExpectRollback()

	err := repo.SaveTransition(context.Background(), domain.NewLead("1", time.Now()), nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListUsers_FiltersByState(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()
	state := domain.StatePaymentPending

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE state = ?")).
		WithArgs(state).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE state = ?")).
		WithArgs(state, 10, 10).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("2348010000003", "Ngozi", "Ngozi Eze", true, "PAYMENT_PENDING", nil, nil, now, now, now))

	users, total, err := repo.List(context.Background(), &state, 2, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 11 {
		t.Errorf("expected total 11, got %d", total)
	}
	if len(users) != 1 || users[0].FirstName != "Ngozi" {
		t.Fatalf("unexpected users: %+v", users)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountByState(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT state, COUNT\\(\\*\\) AS count FROM users GROUP BY state").
		WillReturnRows(sqlmock.NewRows([]string{"state", "count"}).
			AddRow("REGISTERED", 4).
			AddRow("REGISTERING_NAME", 2))

	counts, err := repo.CountByState(context.Background())
	if err != nil {
		t.Fatalf("CountByState returned error: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(counts))
	}
	if counts[0].State != domain.StateRegistered || counts[0].Count != 4 {
		t.Errorf("unexpected first row: %+v", counts[0])
	}
}
