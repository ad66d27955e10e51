package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"exam-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the question bank from its backing file.
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.QuestionRecord, error)
}

// BankRepository caches the loaded bank with a TTL so the file is not parsed
// on every quiz start. Concurrent misses share one load.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	records   []domain.QuestionRecord
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions returns the cached bank, reloading it once expired. Load errors
// are not cached.
func (r *BankRepository) Questions(ctx context.Context) ([]domain.QuestionRecord, error) {
	if records, ok := r.cached(r.clock()); ok {
		return records, nil
	}

	result, err, _ := r.sf.Do("bank", func() (interface{}, error) {
		now := r.clock()
		if records, ok := r.cached(now); ok {
			return records, nil
		}

		records, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(r.ttlWithJitter())
		r.mu.Lock()
		r.records = records
		r.expiresAt = expiresAt
		r.mu.Unlock()
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionRecord), nil
}

// Invalidate drops the cached bank.
func (r *BankRepository) Invalidate() {
	r.mu.Lock()
	r.records = nil
	r.expiresAt = time.Time{}
	r.mu.Unlock()
}

func (r *BankRepository) cached(now time.Time) ([]domain.QuestionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.records != nil && r.expiresAt.After(now) {
		return r.records, true
	}
	return nil, false
}

// StaticBankLoader serves a fixed bank (useful for tests/demos).
type StaticBankLoader struct {
	records []domain.QuestionRecord
}

func NewStaticBankLoader(records []domain.QuestionRecord) *StaticBankLoader {
	return &StaticBankLoader{records: records}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) ([]domain.QuestionRecord, error) {
	return l.records, nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter; only called inside the singleflight group
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
