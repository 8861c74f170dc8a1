package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/types"
)

// table is an insertion-ordered collection of T keyed by id. Values are
// copied on the way in and out so callers never share state with the store.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[string]*T
	order []string
	id    func(*T) string
	touch func(v *T, now time.Time, created bool)
}

func newTable[T any](id func(*T) string, touch func(*T, time.Time, bool)) *table[T] {
	return &table[T]{rows: make(map[string]*T), id: id, touch: touch}
}

func (t *table[T]) get(id string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (t *table[T]) put(v *T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := t.id(v)
	_, exists := t.rows[key]
	t.touch(v, time.Now(), !exists)
	cp := *v
	if !exists {
		t.order = append(t.order, key)
	}
	t.rows[key] = &cp
}

// update applies fn to the stored row under the write lock and keeps the
// change when fn reports one.
func (t *table[T]) update(id string, fn func(*T) bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		return false, ErrNotFound
	}
	cp := *v
	if !fn(&cp) {
		return false, nil
	}
	t.touch(&cp, time.Now(), false)
	t.rows[id] = &cp
	return true, nil
}

func (t *table[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(k string) bool { return k == id })
	return nil
}

// all returns matching rows in insertion order.
func (t *table[T]) all(match func(*T) bool) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*T, 0, len(t.order))
	for _, key := range t.order {
		v := t.rows[key]
		if match == nil || match(v) {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out
}

func (t *table[T]) find(match func(*T) bool) (*T, error) {
	items := t.all(match)
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

func paginate[T any](items []*T, page Page) []*T {
	if page.From > 0 {
		if page.From >= len(items) {
			return []*T{}
		}
		items = items[page.From:]
	}
	if page.Size > 0 && len(items) > page.Size {
		items = items[:page.Size]
	}
	return items
}

func byOrder[T any](items []*T, order func(*T) int) []*T {
	slices.SortStableFunc(items, func(a, b *T) int { return order(a) - order(b) })
	return items
}

func newestFirstOf[T any](items []*T) []*T {
	slices.Reverse(items)
	return items
}

func stamp(created, updated *time.Time, now time.Time, isNew bool) {
	if isNew && created.IsZero() {
		*created = now
	}
	*updated = now
}

// MemoryStore keeps everything in process memory. It backs local
// development when no database is configured, and the tests.
type MemoryStore struct {
	users    *table[models.User]
	payments *table[models.Payment]
	history  *table[models.SubscriptionHistory]
	subjects *table[models.Subject]
	units    *table[models.Unit]
	chapters *table[models.Chapter]
	videos   *table[models.Video]
	webhooks *table[models.WebhookLog]
}

var _ Store = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{
		users: newTable(func(v *models.User) string { return v.ID },
			func(v *models.User, now time.Time, isNew bool) { stamp(&v.CreatedAt, &v.UpdatedAt, now, isNew) }),
		payments: newTable(func(v *models.Payment) string { return v.ID },
			func(v *models.Payment, now time.Time, isNew bool) { stamp(&v.CreatedAt, &v.UpdatedAt, now, isNew) }),
		history: newTable(func(v *models.SubscriptionHistory) string { return v.ID },
			func(v *models.SubscriptionHistory, now time.Time, isNew bool) {
				stamp(&v.CreatedAt, &v.UpdatedAt, now, isNew)
			}),
		subjects: newTable(func(v *models.Subject) string { return v.ID },
			func(v *models.Subject, now time.Time, isNew bool) { stamp(&v.CreatedAt, &v.UpdatedAt, now, isNew) }),
		units: newTable(func(v *models.Unit) string { return v.ID },
			func(v *models.Unit, now time.Time, isNew bool) { stamp(&v.CreatedAt, &v.UpdatedAt, now, isNew) }),
		chapters: newTable(func(v *models.Chapter) string { return v.ID },
			func(v *models.Chapter, now time.Time, isNew bool) { stamp(&v.CreatedAt, &v.UpdatedAt, now, isNew) }),
		videos: newTable(func(v *models.Video) string { return v.ID },
			func(v *models.Video, now time.Time, isNew bool) { stamp(&v.CreatedAt, &v.UpdatedAt, now, isNew) }),
		webhooks: newTable(func(v *models.WebhookLog) string { return v.ID },
			func(v *models.WebhookLog, now time.Time, isNew bool) { stamp(&v.CreatedAt, &v.UpdatedAt, now, isNew) }),
	}
}

// ---- users ----

func matchUser(q UserQuery) func(*models.User) bool {
	search := strings.ToLower(q.Search)
	return func(u *models.User) bool {
		if q.Status != "" && u.SubscriptionStatus != q.Status {
			return false
		}
		if q.Grade > 0 && u.Grade != q.Grade {
			return false
		}
		if search != "" {
			return lo.SomeBy([]string{u.Email, u.FirstName, u.LastName}, func(s string) bool {
				return strings.Contains(strings.ToLower(s), search)
			})
		}
		return true
	}
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	return m.users.get(id)
}

func (m *MemoryStore) FindUserByGatewaySubscription(_ context.Context, subscriptionID string) (*models.User, error) {
	return m.users.find(func(u *models.User) bool {
		return u.GatewaySubscriptionID != nil && *u.GatewaySubscriptionID == subscriptionID
	})
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.users.put(u)
	return nil
}

func (m *MemoryStore) SaveUser(_ context.Context, u *models.User) error {
	m.users.put(u)
	return nil
}

func (m *MemoryStore) ListUsers(_ context.Context, q UserQuery) ([]*models.User, int64, error) {
	items := newestFirstOf(m.users.all(matchUser(q)))
	return paginate(items, q.Page), int64(len(items)), nil
}

func (m *MemoryStore) CountUsers(_ context.Context, q UserQuery) (int64, error) {
	return int64(len(m.users.all(matchUser(q)))), nil
}

func lapsedAt(now time.Time) func(*models.User) bool {
	return func(u *models.User) bool {
		switch u.SubscriptionStatus {
		case types.SubscriptionStatusTrial:
			return u.TrialEndDate != nil && !u.TrialEndDate.After(now)
		case types.SubscriptionStatusActive:
			return u.SubscriptionEndDate != nil && !u.SubscriptionEndDate.After(now)
		}
		return false
	}
}

func (m *MemoryStore) ListLapsed(_ context.Context, now time.Time) ([]*models.User, error) {
	return m.users.all(lapsedAt(now)), nil
}

func (m *MemoryStore) ExpireIfLapsed(_ context.Context, id string, now time.Time) (bool, error) {
	return m.users.update(id, func(u *models.User) bool {
		if !lapsedAt(now)(u) {
			return false
		}
		u.SubscriptionStatus = types.SubscriptionStatusExpired
		return true
	})
}

// ---- payments ----

func matchPayment(q PaymentQuery) func(*models.Payment) bool {
	search := strings.ToLower(q.Search)
	return func(p *models.Payment) bool {
		if q.UserID != "" && p.UserID != q.UserID {
			return false
		}
		if len(q.Statuses) > 0 && !lo.Contains(q.Statuses, p.Status) {
			return false
		}
		if q.Method != "" && p.PaymentMethod != q.Method {
			return false
		}
		if q.Since != nil && p.CreatedAt.Before(*q.Since) {
			return false
		}
		if search != "" {
			return lo.SomeBy([]string{lo.FromPtr(p.GatewayPaymentID), p.GatewayOrderID, string(p.PlanID)}, func(s string) bool {
				return strings.Contains(strings.ToLower(s), search)
			})
		}
		return true
	}
}

func (m *MemoryStore) CreatePayment(_ context.Context, p *models.Payment) error {
	m.payments.put(p)
	return nil
}

func (m *MemoryStore) SavePayment(_ context.Context, p *models.Payment) error {
	m.payments.put(p)
	return nil
}

func (m *MemoryStore) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	return m.payments.get(id)
}

func (m *MemoryStore) FindPaymentByGatewayPaymentID(_ context.Context, gatewayPaymentID string) (*models.Payment, error) {
	return m.payments.find(func(p *models.Payment) bool {
		return p.GatewayPaymentID != nil && *p.GatewayPaymentID == gatewayPaymentID
	})
}

func (m *MemoryStore) ListPayments(_ context.Context, q PaymentQuery) ([]*models.Payment, int64, error) {
	items := newestFirstOf(m.payments.all(matchPayment(q)))
	return paginate(items, q.Page), int64(len(items)), nil
}

func (m *MemoryStore) SumPayments(_ context.Context, q PaymentQuery) (int64, error) {
	return lo.SumBy(m.payments.all(matchPayment(q)), func(p *models.Payment) int64 { return p.Amount }), nil
}

// ---- history ----

func (m *MemoryStore) AppendHistory(_ context.Context, h *models.SubscriptionHistory) error {
	m.history.put(h)
	return nil
}

func (m *MemoryStore) ListHistory(_ context.Context, userID string) ([]*models.SubscriptionHistory, error) {
	return newestFirstOf(m.history.all(func(h *models.SubscriptionHistory) bool { return h.UserID == userID })), nil
}

// ---- catalog ----

func (m *MemoryStore) GetSubject(_ context.Context, id string) (*models.Subject, error) {
	return m.subjects.get(id)
}

func (m *MemoryStore) FindSubject(_ context.Context, name string, grade int) (*models.Subject, error) {
	return m.subjects.find(func(s *models.Subject) bool { return s.Name == name && s.Grade == grade })
}

func (m *MemoryStore) ListSubjects(_ context.Context, grade int) ([]*models.Subject, error) {
	items := m.subjects.all(func(s *models.Subject) bool { return grade == 0 || s.Grade == grade })
	return byOrder(items, func(s *models.Subject) int { return s.Grade }), nil
}

func (m *MemoryStore) CreateSubject(_ context.Context, s *models.Subject) error {
	m.subjects.put(s)
	return nil
}

func (m *MemoryStore) SaveSubject(_ context.Context, s *models.Subject) error {
	m.subjects.put(s)
	return nil
}

func (m *MemoryStore) DeleteSubject(_ context.Context, id string) error {
	return m.subjects.remove(id)
}

func (m *MemoryStore) GetUnit(_ context.Context, id string) (*models.Unit, error) {
	return m.units.get(id)
}

func (m *MemoryStore) ListUnits(_ context.Context, subjectID string) ([]*models.Unit, error) {
	items := m.units.all(func(u *models.Unit) bool { return subjectID == "" || u.SubjectID == subjectID })
	return byOrder(items, func(u *models.Unit) int { return u.Order }), nil
}

func (m *MemoryStore) CreateUnit(_ context.Context, u *models.Unit) error {
	m.units.put(u)
	return nil
}

func (m *MemoryStore) SaveUnit(_ context.Context, u *models.Unit) error {
	m.units.put(u)
	return nil
}

func (m *MemoryStore) DeleteUnit(_ context.Context, id string) error {
	return m.units.remove(id)
}

func matchChapter(q ChapterQuery) func(*models.Chapter) bool {
	return func(c *models.Chapter) bool {
		return (q.UnitID == "" || c.UnitID == q.UnitID) && (q.SubjectID == "" || c.SubjectID == q.SubjectID)
	}
}

func (m *MemoryStore) GetChapter(_ context.Context, id string) (*models.Chapter, error) {
	return m.chapters.get(id)
}

func (m *MemoryStore) ListChapters(_ context.Context, q ChapterQuery) ([]*models.Chapter, error) {
	return byOrder(m.chapters.all(matchChapter(q)), func(c *models.Chapter) int { return c.Order }), nil
}

func (m *MemoryStore) CreateChapter(_ context.Context, c *models.Chapter) error {
	m.chapters.put(c)
	return nil
}

func (m *MemoryStore) SaveChapter(_ context.Context, c *models.Chapter) error {
	m.chapters.put(c)
	return nil
}

func (m *MemoryStore) DeleteChapter(_ context.Context, id string) error {
	return m.chapters.remove(id)
}

func matchVideo(q VideoQuery) func(*models.Video) bool {
	return func(v *models.Video) bool {
		return (q.ChapterID == "" || v.ChapterID == q.ChapterID) &&
			(q.SubjectID == "" || v.SubjectID == q.SubjectID) &&
			(q.Grade == 0 || v.Grade == q.Grade)
	}
}

func (m *MemoryStore) GetVideo(_ context.Context, id string) (*models.Video, error) {
	return m.videos.get(id)
}

func (m *MemoryStore) ListVideos(_ context.Context, q VideoQuery) ([]*models.Video, error) {
	return byOrder(m.videos.all(matchVideo(q)), func(v *models.Video) int { return v.Order }), nil
}

func (m *MemoryStore) CountVideos(_ context.Context, q VideoQuery) (int64, error) {
	return int64(len(m.videos.all(matchVideo(q)))), nil
}

func (m *MemoryStore) CreateVideo(_ context.Context, v *models.Video) error {
	m.videos.put(v)
	return nil
}

func (m *MemoryStore) SaveVideo(_ context.Context, v *models.Video) error {
	m.videos.put(v)
	return nil
}

func (m *MemoryStore) DeleteVideo(_ context.Context, id string) error {
	return m.videos.remove(id)
}

// ---- webhook log ----

func (m *MemoryStore) SaveWebhookLog(_ context.Context, l *models.WebhookLog) error {
	m.webhooks.put(l)
	return nil
}

// WebhookLogs returns every stored delivery in arrival order.
func (m *MemoryStore) WebhookLogs() []*models.WebhookLog {
	return m.webhooks.all(nil)
}
