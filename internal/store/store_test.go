package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"walkcanvas/internal/events"
	"walkcanvas/internal/models"
)

// recorder keeps every published event.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// tempDB opens a migrated sqlite database that lives for the duration of the test.
func tempDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "walkcanvas.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.Account{}, &models.Route{}, &models.Favorite{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithPublisher(rec)}, opts...)
	return New(tempDB(t), opts...), rec
}

func mustRegister(t *testing.T, s *Store, id, pw, nickname string) {
	t.Helper()
	_, err := s.Register(context.Background(), RegisterInput{AccountID: id, Password: pw, Nickname: nickname, Gender: "F"})
	if err != nil {
		t.Fatalf("Register(%s): %v", id, err)
	}
}

func mustAddRoute(t *testing.T, s *Store, in NewRoute) *models.Route {
	t.Helper()
	r, err := s.AddRoute(context.Background(), in)
	if err != nil {
		t.Fatalf("AddRoute(%s): %v", in.Name, err)
	}
	return r
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestPing(t *testing.T) {
	s, _ := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestIsDuplicateKey(t *testing.T) {
	db := tempDB(t)
	if err := db.Create(&models.Account{AccountID: "alice", PasswordHash: "x"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	err := db.Create(&models.Account{AccountID: "alice", PasswordHash: "y"}).Error
	if !isDuplicateKey(err) {
		t.Fatalf("isDuplicateKey(%v) = false, want true", err)
	}
	if isDuplicateKey(gorm.ErrRecordNotFound) {
		t.Error("isDuplicateKey(ErrRecordNotFound) = true")
	}
}
