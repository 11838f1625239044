// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"chatwindows/gateway/gateway/account"
	"chatwindows/gateway/gateway/auth"
	"chatwindows/gateway/gateway/billing"
	"chatwindows/gateway/gateway/catalog"
	"chatwindows/gateway/gateway/quota"
	"chatwindows/gateway/gateway/relay"
	"chatwindows/gateway/gateway/usage"
)

// Shared fakes for handler tests. Each fake implements exactly the
// consumer interface the server depends on.

type fakeVerifier struct {
	identity *auth.Identity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeRepo struct {
	profiles      map[string]*account.Profile
	dailyCounts   map[string]int
	usageEntries  []recordedUsage
	feedbacks     []*account.Feedback
	failGet       bool
	failUsage     bool
	nextFeedback  int64
	consumedCreds int
}

type recordedUsage struct {
	userID string
	tokens int
	model  string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		profiles:     map[string]*account.Profile{},
		dailyCounts:  map[string]int{},
		nextFeedback: 1,
	}
}

func (f *fakeRepo) GetProfile(ctx context.Context, userID string) (*account.Profile, error) {
	if f.failGet {
		return nil, errors.New("db down")
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, account.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeRepo) GetProfileBySubscriptionID(ctx context.Context, subscriptionID string) (*account.Profile, error) {
	for _, p := range f.profiles {
		if p.PayPalSubscriptionID == subscriptionID {
			return p, nil
		}
	}
	return nil, account.ErrProfileNotFound
}

func (f *fakeRepo) ApplySubscriptionUpdate(ctx context.Context, userID string, update account.SubscriptionUpdate) error {
	p, ok := f.profiles[userID]
	if !ok {
		return account.ErrProfileNotFound
	}
	p.IsPro = update.IsPro
	p.PayPalSubscriptionID = update.SubscriptionID
	p.SubscriptionEndDate = update.SubscriptionEndDate
	return nil
}

func (f *fakeRepo) IncrementDailyUsageBelowLimit(ctx context.Context, userID, date string, limit int) (int, error) {
	key := userID + "/" + date
	if f.dailyCounts[key] >= limit {
		return 0, account.ErrLimitReached
	}
	f.dailyCounts[key]++
	return f.dailyCounts[key], nil
}

func (f *fakeRepo) IncrementDailyUsage(ctx context.Context, userID, date string) (int, error) {
	key := userID + "/" + date
	f.dailyCounts[key]++
	return f.dailyCounts[key], nil
}

func (f *fakeRepo) GetDailyUsage(ctx context.Context, userID, date string) (int, error) {
	if f.failUsage {
		return 0, errors.New("db down")
	}
	return f.dailyCounts[userID+"/"+date], nil
}

func (f *fakeRepo) ConsumeCredit(ctx context.Context, userID string) (int, error) {
	p, ok := f.profiles[userID]
	if !ok || p.Credits <= 0 {
		return 0, account.ErrNoCredits
	}
	p.Credits--
	f.consumedCreds++
	return p.Credits, nil
}

func (f *fakeRepo) RecordUsage(ctx context.Context, userID string, tokensUsed int, model string) error {
	f.usageEntries = append(f.usageEntries, recordedUsage{userID: userID, tokens: tokensUsed, model: model})
	return nil
}

func (f *fakeRepo) SaveFeedback(ctx context.Context, fb *account.Feedback) (int64, error) {
	id := f.nextFeedback
	f.nextFeedback++
	fb.ID = id
	f.feedbacks = append(f.feedbacks, fb)
	return id, nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return nil }

type fakeRelay struct {
	body     string
	err      error
	model    string
	opts     relay.Options
	messages []relay.ChatMessage
}

func (f *fakeRelay) StreamChatCompletion(ctx context.Context, messages []relay.ChatMessage, model string, opts relay.Options) (io.ReadCloser, error) {
	f.messages = messages
	f.model = model
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

type fakePayPal struct {
	configured bool
	planID     string
	created    *billing.CreatedSubscription
	createErr  error
	portalURL  string
	portalErr  error
	sigValid   bool
	sigErr     error

	createdUserID string
	createdPlanID string
	returnURL     string
	cancelURL     string
}

func (f *fakePayPal) Configured() bool { return f.configured }
func (f *fakePayPal) PlanID() string   { return f.planID }

func (f *fakePayPal) CreateSubscription(ctx context.Context, userID, userEmail, planID, returnURL, cancelURL string) (*billing.CreatedSubscription, error) {
	f.createdUserID = userID
	f.createdPlanID = planID
	f.returnURL = returnURL
	f.cancelURL = cancelURL
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakePayPal) CustomerPortalURL(ctx context.Context, subscriptionID string) (string, error) {
	if f.portalErr != nil {
		return "", f.portalErr
	}
	return f.portalURL, nil
}

func (f *fakePayPal) VerifyWebhookSignature(ctx context.Context, payload []byte, headers http.Header) (bool, error) {
	return f.sigValid, f.sigErr
}

type fakeReconciler struct {
	events []*billing.WebhookEvent
	err    error
}

func (f *fakeReconciler) HandleEvent(ctx context.Context, event *billing.WebhookEvent) error {
	f.events = append(f.events, event)
	return f.err
}

// testServer wires a server against fakes with a fixed clock
type testServer struct {
	*Server
	repo       *fakeRepo
	relay      *fakeRelay
	paypal     *fakePayPal
	reconciler *fakeReconciler
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestServer() *testServer {
	repo := newFakeRepo()
	rel := &fakeRelay{body: "data: {}\n\ndata: [DONE]\n\n"}
	paypal := &fakePayPal{
		configured: true,
		planID:     "P-DEFAULT",
		created:    &billing.CreatedSubscription{ID: "I-NEW", ApprovalURL: "https://paypal.test/approve"},
		portalURL:  "https://paypal.test/manage",
		sigValid:   true,
	}
	rec := &fakeReconciler{}

	cfg := &Config{
		Port:              "8080",
		FrontendURL:       "https://app.chatwindows.test",
		FreeDailyMessages: 30,
	}
	verifier := &fakeVerifier{identity: &auth.Identity{ID: "user-1", Email: "user@example.com"}}
	cat := catalog.Default()

	srv := NewServer(cfg, verifier, repo, cat, quota.NewLedger(repo, cfg.FreeDailyMessages),
		rel, usage.NewRecorder(repo), paypal, rec)
	srv.now = func() time.Time { return testNow }

	return &testServer{Server: srv, repo: repo, relay: rel, paypal: paypal, reconciler: rec}
}

func (ts *testServer) addProfile(p *account.Profile) {
	ts.repo.profiles[p.ID] = p
}

func freeProfile(id string) *account.Profile {
	return &account.Profile{ID: id, Email: id + "@example.com", Credits: 0}
}

func proProfile(id string) *account.Profile {
	end := testNow.Add(30 * 24 * time.Hour)
	return &account.Profile{
		ID:                   id,
		Email:                id + "@example.com",
		IsPro:                true,
		PayPalSubscriptionID: "I-" + id,
		SubscriptionEndDate:  &end,
	}
}
