// Package memstore holds in-memory implementations of the service
// repositories. Conditional writes use the same matching rules as the Mongo
// store, so workflow races behave the same way.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecobhandu-be/models"
	"ecobhandu-be/store"
)

type Reports struct {
	mu      sync.Mutex
	reports map[primitive.ObjectID]*models.Report
	// FailInsert, when set, is returned by Insert.
	FailInsert error
}

func NewReports() *Reports {
	return &Reports{reports: make(map[primitive.ObjectID]*models.Report)}
}

func clone(r *models.Report) *models.Report {
	c := *r
	c.UpvotedBy = append([]primitive.ObjectID{}, r.UpvotedBy...)
	c.Comments = append([]models.Comment{}, r.Comments...)
	return &c
}

func (f *Reports) Insert(_ context.Context, r *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailInsert != nil {
		return f.FailInsert
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	f.reports[r.ID] = clone(r)
	return nil
}

// Put stores r as is, bypassing validation.
func (f *Reports) Put(r *models.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[r.ID] = clone(r)
}

func (f *Reports) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func (f *Reports) FindByID(_ context.Context, id primitive.ObjectID) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(r), nil
}

func (f *Reports) List(_ context.Context, filter models.ReportFilter) ([]models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Report, 0)
	for _, r := range f.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		if filter.Severity != "" && r.Severity != filter.Severity {
			continue
		}
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		out = append(out, *clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *Reports) Transition(_ context.Context, id primitive.ObjectID, t models.ReportTransition) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok || !t.Matches(r) {
		return nil, store.ErrNotFound
	}
	t.Apply(r)
	return clone(r), nil
}

func (f *Reports) ToggleUpvote(_ context.Context, id, userID primitive.ObjectID, at time.Time) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return false, 0, store.ErrNotFound
	}
	r.UpdatedAt = at
	for i, u := range r.UpvotedBy {
		if u == userID {
			r.UpvotedBy = append(r.UpvotedBy[:i], r.UpvotedBy[i+1:]...)
			r.Upvotes = len(r.UpvotedBy)
			return false, r.Upvotes, nil
		}
	}
	r.UpvotedBy = append(r.UpvotedBy, userID)
	r.Upvotes = len(r.UpvotedBy)
	return true, r.Upvotes, nil
}

func (f *Reports) AddComment(_ context.Context, id primitive.ObjectID, c models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Comments = append(r.Comments, c)
	r.UpdatedAt = c.CreatedAt
	return nil
}

func (f *Reports) DeleteOwned(_ context.Context, id, ownerID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok || r.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(f.reports, id)
	return nil
}

func (f *Reports) Stats(_ context.Context) (*models.ReportStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byStatus := map[string]int64{}
	bySeverity := map[string]int64{}
	byCategory := map[string]int64{}
	for _, r := range f.reports {
		byStatus[string(r.Status)]++
		bySeverity[string(r.Severity)]++
		byCategory[r.Category]++
	}
	top := groups(byCategory)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > 10 {
		top = top[:10]
	}
	return &models.ReportStats{
		Total:         int64(len(f.reports)),
		ByStatus:      groups(byStatus),
		BySeverity:    groups(bySeverity),
		TopCategories: top,
	}, nil
}

func groups(m map[string]int64) []models.GroupCount {
	out := make([]models.GroupCount, 0, len(m))
	for k, v := range m {
		out = append(out, models.GroupCount{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *Reports) CountAssignedByStatus(_ context.Context, volunteerID primitive.ObjectID) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var resolved, inProgress int64
	for _, r := range f.reports {
		if r.AssignedTo == nil || *r.AssignedTo != volunteerID {
			continue
		}
		switch r.Status {
		case models.Resolved:
			resolved++
		case models.InProgress:
			inProgress++
		}
	}
	return resolved, inProgress, nil
}

type Users struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func NewUsers() *Users {
	return &Users{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *Users) Insert(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	c := *u
	f.users[u.ID] = &c
	return nil
}

func (f *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *Users) IncrementReports(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.TotalReports++
	u.LastReportDate = &at
	return nil
}

type Claims struct {
	mu     sync.Mutex
	claims []models.RewardClaim
	// FailInsert, when set, is returned by Insert.
	FailInsert error
}

func (f *Claims) Insert(_ context.Context, c *models.RewardClaim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailInsert != nil {
		return f.FailInsert
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.claims = append(f.claims, *c)
	return nil
}

func (f *Claims) ListByUser(_ context.Context, userID primitive.ObjectID, limit int64) ([]models.RewardClaim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.RewardClaim, 0)
	for i := len(f.claims) - 1; i >= 0; i-- {
		if f.claims[i].UserID == userID {
			out = append(out, f.claims[i])
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type Wallets struct {
	mu      sync.Mutex
	wallets map[primitive.ObjectID]models.Wallet
	// BeforeDebit runs once, inside the next Debit before the version check.
	BeforeDebit func()
}

func NewWallets() *Wallets {
	return &Wallets{wallets: make(map[primitive.ObjectID]models.Wallet)}
}

// Put replaces the user's wallet.
func (f *Wallets) Put(w models.Wallet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallets[w.UserID] = w
}

func (f *Wallets) Get(_ context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[userID]
	if !ok {
		return &models.Wallet{UserID: userID}, nil
	}
	return &w, nil
}

func (f *Wallets) Debit(_ context.Context, userID primitive.ObjectID, amount, version int64, at time.Time) error {
	if hook := f.BeforeDebit; hook != nil {
		f.BeforeDebit = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.wallets[userID]
	if w.Version != version {
		return store.ErrConflict
	}
	f.wallets[userID] = models.Wallet{UserID: userID, Spent: w.Spent + amount, Version: w.Version + 1, UpdatedAt: at}
	return nil
}

func (f *Wallets) Credit(_ context.Context, userID primitive.ObjectID, amount int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[userID]
	if !ok {
		return store.ErrNotFound
	}
	f.wallets[userID] = models.Wallet{UserID: userID, Spent: w.Spent - amount, Version: w.Version + 1, UpdatedAt: at}
	return nil
}

// Recorder is a Publisher that keeps every event.
type Recorder struct {
	mu     sync.Mutex
	events []models.ReportEvent
}

func (p *Recorder) Publish(_ context.Context, ev models.ReportEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *Recorder) Events() []models.ReportEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ReportEvent(nil), p.events...)
}

func (p *Recorder) Types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
