// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package quota

import (
	"context"
	"errors"
	"sync"
	"testing"

	"chatwindows/gateway/gateway/account"
)

// MockRepository implements account.Repository backed by in-memory maps
type MockRepository struct {
	mu sync.Mutex

	profiles map[string]*account.Profile
	counters map[string]int // key: userID|date
	usage    []account.UsageLog

	incrementErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		profiles: make(map[string]*account.Profile),
		counters: make(map[string]int),
	}
}

func (m *MockRepository) GetProfile(ctx context.Context, userID string) (*account.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return nil, account.ErrProfileNotFound
}

func (m *MockRepository) GetProfileBySubscriptionID(ctx context.Context, subID string) (*account.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.PayPalSubscriptionID == subID {
			return p, nil
		}
	}
	return nil, account.ErrProfileNotFound
}

func (m *MockRepository) ApplySubscriptionUpdate(ctx context.Context, userID string, update account.SubscriptionUpdate) error {
	return nil
}

func (m *MockRepository) IncrementDailyUsageBelowLimit(ctx context.Context, userID, date string, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incrementErr != nil {
		return 0, m.incrementErr
	}
	key := userID + "|" + date
	if m.counters[key] >= limit {
		return 0, account.ErrLimitReached
	}
	m.counters[key]++
	return m.counters[key], nil
}

func (m *MockRepository) IncrementDailyUsage(ctx context.Context, userID, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + date
	m.counters[key]++
	return m.counters[key], nil
}

func (m *MockRepository) GetDailyUsage(ctx context.Context, userID, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[userID+"|"+date], nil
}

func (m *MockRepository) ConsumeCredit(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok || p.Credits <= 0 {
		return 0, account.ErrNoCredits
	}
	p.Credits--
	return p.Credits, nil
}

func (m *MockRepository) RecordUsage(ctx context.Context, userID string, tokens int, model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = append(m.usage, account.UsageLog{UserID: userID, TokensUsed: tokens, Model: model})
	return nil
}

func (m *MockRepository) SaveFeedback(ctx context.Context, fb *account.Feedback) (int64, error) {
	return 1, nil
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }

func (m *MockRepository) setCounter(userID, date string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[userID+"|"+date] = count
}

const testDate = "2026-03-15"

func TestConsume_BelowLimit(t *testing.T) {
	repo := NewMockRepository()
	repo.profiles["u1"] = &account.Profile{ID: "u1", Credits: 5}
	ledger := NewLedger(repo, 30)

	res, err := ledger.Consume(context.Background(), "u1", testDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MessageCount != 1 {
		t.Errorf("expected count 1, got %d", res.MessageCount)
	}
	if res.CreditUsed {
		t.Error("credit should not be used below the limit")
	}
	if repo.profiles["u1"].Credits != 5 {
		t.Errorf("credits changed below limit: %d", repo.profiles["u1"].Credits)
	}
}

func TestConsume_AtLimitWithCredits(t *testing.T) {
	repo := NewMockRepository()
	repo.profiles["u1"] = &account.Profile{ID: "u1", Credits: 2}
	repo.setCounter("u1", testDate, 30)
	ledger := NewLedger(repo, 30)

	res, err := ledger.Consume(context.Background(), "u1", testDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.CreditUsed {
		t.Error("expected a credit to be consumed")
	}
	if res.CreditsRemaining != 1 {
		t.Errorf("expected 1 credit remaining, got %d", res.CreditsRemaining)
	}
	if res.MessageCount != 31 {
		t.Errorf("expected counter 31, got %d", res.MessageCount)
	}
}

func TestConsume_AtLimitNoCredits(t *testing.T) {
	repo := NewMockRepository()
	repo.profiles["u1"] = &account.Profile{ID: "u1", Credits: 0}
	repo.setCounter("u1", testDate, 30)
	ledger := NewLedger(repo, 30)

	_, err := ledger.Consume(context.Background(), "u1", testDate)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// Rejection must not mutate anything
	if count, _ := repo.GetDailyUsage(context.Background(), "u1", testDate); count != 30 {
		t.Errorf("counter changed on rejection: %d", count)
	}
	if repo.profiles["u1"].Credits != 0 {
		t.Errorf("credits changed on rejection: %d", repo.profiles["u1"].Credits)
	}
}

// Sequential acceptance never exceeds dailyLimit + initial credits.
func TestConsume_SequentialCap(t *testing.T) {
	const limit = 5
	const credits = 3

	repo := NewMockRepository()
	repo.profiles["u1"] = &account.Profile{ID: "u1", Credits: credits}
	ledger := NewLedger(repo, limit)

	accepted := 0
	for i := 0; i < limit+credits+10; i++ {
		if _, err := ledger.Consume(context.Background(), "u1", testDate); err == nil {
			accepted++
		} else if !errors.Is(err, ErrQuotaExceeded) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if accepted != limit+credits {
		t.Errorf("accepted %d messages, want %d", accepted, limit+credits)
	}
}

func TestConsume_StoreError(t *testing.T) {
	repo := NewMockRepository()
	repo.incrementErr = errors.New("connection refused")
	ledger := NewLedger(repo, 30)

	_, err := ledger.Consume(context.Background(), "u1", testDate)
	if err == nil || errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected a storage error, got %v", err)
	}
}
