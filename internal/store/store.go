// Package store implements account, route and favorite operations over gorm.
// Every operation takes the request context and scopes its own connections and
// transactions; nothing is cached between calls.
package store

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"walkcanvas/internal/events"
)

// Error taxonomy. Operations wrap these with detail; callers test with errors.Is.
// Any other error is internal.
var (
	ErrBadRequest         = errors.New("missing or malformed parameter")
	ErrInvalidFormat      = errors.New("invalid format")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("account not registered or wrong credentials")
)

// Store runs operations against the database pool.
type Store struct {
	db     *gorm.DB
	events events.Publisher
	pick   func(n int) int
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sets the destination of domain events.
func WithPublisher(p events.Publisher) Option {
	return func(s *Store) { s.events = p }
}

// WithPicker replaces the uniform random index source used by RandomRouteMatching.
// pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(s *Store) { s.pick = pick }
}

// New creates a Store over db.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		events: events.Nop{},
		pick:   rand.Intn,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}

func (s *Store) session(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) publish(ctx context.Context, e events.Event) {
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event":      e.Type,
			"account_id": e.AccountID,
			"route_id":   e.RouteID,
		}).Warn("store: publish event failed")
	}
}

// isDuplicateKey recognizes unique violations from every supported backend.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return false
}
