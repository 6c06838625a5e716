package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/telegram-news-collector/internal/domain/news/entities"
	newserrors "github.com/yourusername/telegram-news-collector/internal/domain/news/errors"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm: %v", err)
	}

	return db, mock
}

func TestChannelRepository_GetAllChannels(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewChannelRepository(db)

	fetched := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "display_name", "category", "last_fetched_at"}).
		AddRow(int64(100), "worldnews", "World News", "news", fetched).
		AddRow(int64(200), "tech", "Tech", "tech", nil)

	mock.ExpectQuery(`SELECT \* FROM "channels" ORDER BY id`).WillReturnRows(rows)

	channels, err := repo.GetAllChannels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}
	if channels[0].ID != 100 || channels[0].Name != "worldnews" {
		t.Errorf("unexpected first channel: %+v", channels[0])
	}
	if channels[0].LastFetched == nil || !channels[0].LastFetched.Equal(fetched) {
		t.Errorf("unexpected watermark: %v", channels[0].LastFetched)
	}
	if channels[1].LastFetched != nil {
		t.Errorf("fresh channel must have nil watermark, got %v", channels[1].LastFetched)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestChannelRepository_UpdateLastFetched(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewChannelRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "channels" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateLastFetched(context.Background(), 100, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestChannelRepository_UpdateLastFetched_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewChannelRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "channels" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateLastFetched(context.Background(), 999, time.Now())
	if !errors.Is(err, newserrors.ErrChannelNotFound) {
		t.Fatalf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestRuleRepository_GetActiveRules(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewRuleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "pattern", "rule_kind", "case_sensitive", "active"}).
		AddRow(uint(1), "advertisement", "contains", false, true).
		AddRow(uint(2), "ad", "exact", true, true)

	mock.ExpectQuery(`SELECT \* FROM "exclusion_rules" WHERE active = \$1 ORDER BY id`).
		WithArgs(true).
		WillReturnRows(rows)

	ruleSet, err := repo.GetActiveRules(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ruleSet) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(ruleSet))
	}
	if ruleSet[0].RuleKind != entities.RuleKindContains {
		t.Errorf("unexpected rule kind: %v", ruleSet[0].RuleKind)
	}
	if !ruleSet[1].CaseSensitive {
		t.Error("second rule should be case sensitive")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMessageRepository_FindOriginalByHash(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewMessageRepository(db)

	rows := sqlmock.NewRows([]string{"channel_id", "message_id"}).
		AddRow(int64(100), int64(42))

	mock.ExpectQuery(`SELECT "channel_id","message_id" FROM "messages" WHERE text_hash = \$1 AND is_duplicate = \$2`).
		WithArgs("abc123", false).
		WillReturnRows(rows)

	ref, err := repo.FindOriginalByHash(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref == nil {
		t.Fatal("expected a reference")
	}
	if ref.ChannelID != 100 || ref.MessageID != 42 {
		t.Errorf("unexpected reference: %+v", ref)
	}
}

func TestMessageRepository_FindOriginalByHash_NotFound(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectQuery(`SELECT "channel_id","message_id" FROM "messages"`).
		WithArgs("missing", false).
		WillReturnRows(sqlmock.NewRows([]string{"channel_id", "message_id"}))

	ref, err := repo.FindOriginalByHash(context.Background(), "missing")
	if err != nil {
		t.Fatalf("a missing original is not an error, got %v", err)
	}
	if ref != nil {
		t.Fatalf("expected nil reference, got %+v", ref)
	}
}

func TestImageRepository_Exists(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewImageRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "images" WHERE file_id = \$1`).
		WithArgs("500").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected image to exist")
	}
}
