package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/types"
)

// GormStore persists entities in Postgres through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *GormStore { return &GormStore{db: db} }

var _ Store = (*GormStore)(nil)

// Catalog rows are ordered by "order", ties broken by insertion.
var catalogOrder = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "order"}},
	{Column: clause.Column{Name: "created_at"}},
	{Column: clause.Column{Name: "id"}},
}}

var newestFirst = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "created_at"}, Desc: true},
}}

func filter(op types.CommonFilterOperator, field string, values ...any) *types.CommonFilter {
	return &types.CommonFilter{Field: field, Operator: op, Values: values}
}

func eq(field string, v any) *types.CommonFilter {
	return filter(types.CommonFilterOperatorEq, field, v)
}

func where(f types.FiltersAnd) clause.Where {
	return clause.Where{Exprs: []clause.Expression{f}}
}

func mapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func first[T any](ctx context.Context, db *gorm.DB, f types.FiltersAnd) (*T, error) {
	var out T
	if err := db.WithContext(ctx).Where(where(f)).Take(&out).Error; err != nil {
		return nil, mapErr(err)
	}
	return &out, nil
}

func list[T any](ctx context.Context, db *gorm.DB, f types.FiltersAnd, order clause.OrderBy, page Page) ([]*T, int64, error) {
	var model T
	// a fresh session so Count and Find each build their own statement
	tx := db.WithContext(ctx).Model(&model).Where(where(f)).Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := tx.Order(order)
	if page.Size > 0 {
		q = q.Limit(page.Size)
	}
	if page.From > 0 {
		q = q.Offset(page.From)
	}
	var items []*T
	if err := q.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func count[T any](ctx context.Context, db *gorm.DB, f types.FiltersAnd) (int64, error) {
	var model T
	var total int64
	err := db.WithContext(ctx).Model(&model).Where(where(f)).Count(&total).Error
	return total, err
}

func remove[T any](ctx context.Context, db *gorm.DB, id string) error {
	var model T
	res := db.WithContext(ctx).Where(where(types.FiltersAnd{eq("id", id)})).Delete(&model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- users ----

func userFilters(q UserQuery) types.FiltersAnd {
	var f types.FiltersAnd
	if q.Status != "" {
		f = append(f, eq("subscription_status", q.Status))
	}
	if q.Grade > 0 {
		f = append(f, eq("grade", q.Grade))
	}
	if q.Search != "" {
		f = append(f, &types.CommonFilter{
			Fields:   []string{"email", "first_name", "last_name"},
			Operator: types.CommonFilterOperatorSearch,
			Values:   []any{q.Search},
		})
	}
	return f
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	return first[models.User](ctx, s.db, types.FiltersAnd{eq("id", id)})
}

func (s *GormStore) FindUserByGatewaySubscription(ctx context.Context, subscriptionID string) (*models.User, error) {
	return first[models.User](ctx, s.db, types.FiltersAnd{eq("gateway_subscription_id", subscriptionID)})
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *GormStore) SaveUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *GormStore) ListUsers(ctx context.Context, q UserQuery) ([]*models.User, int64, error) {
	return list[models.User](ctx, s.db, userFilters(q), newestFirst, q.Page)
}

func (s *GormStore) CountUsers(ctx context.Context, q UserQuery) (int64, error) {
	return count[models.User](ctx, s.db, userFilters(q))
}

func lapsedFilter(now time.Time) clause.Expression {
	return clause.Or(
		types.FiltersAnd{
			eq("subscription_status", types.SubscriptionStatusTrial),
			filter(types.CommonFilterOperatorLte, "trial_end_date", now),
		},
		types.FiltersAnd{
			eq("subscription_status", types.SubscriptionStatusActive),
			filter(types.CommonFilterOperatorLte, "subscription_end_date", now),
		},
	)
}

func (s *GormStore) ListLapsed(ctx context.Context, now time.Time) ([]*models.User, error) {
	var users []*models.User
	if err := s.db.WithContext(ctx).Where(clause.Where{Exprs: []clause.Expression{lapsedFilter(now)}}).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ExpireIfLapsed is a single conditional UPDATE, so a payment that landed
// after ListLapsed read the row is never overwritten.
func (s *GormStore) ExpireIfLapsed(ctx context.Context, id string, now time.Time) (bool, error) {
	cond := clause.Where{Exprs: []clause.Expression{types.FiltersAnd{eq("id", id)}, lapsedFilter(now)}}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where(cond).
		Update("subscription_status", types.SubscriptionStatusExpired)
	return res.RowsAffected == 1, res.Error
}

// ---- payments ----

func paymentFilters(q PaymentQuery) types.FiltersAnd {
	var f types.FiltersAnd
	if q.UserID != "" {
		f = append(f, eq("user_id", q.UserID))
	}
	if len(q.Statuses) > 0 {
		values := make([]any, 0, len(q.Statuses))
		for _, st := range q.Statuses {
			values = append(values, st)
		}
		f = append(f, filter(types.CommonFilterOperatorIn, "status", values...))
	}
	if q.Method != "" {
		f = append(f, eq("payment_method", q.Method))
	}
	if q.Since != nil {
		f = append(f, filter(types.CommonFilterOperatorGte, "created_at", *q.Since))
	}
	if q.Search != "" {
		f = append(f, &types.CommonFilter{
			Fields:   []string{"gateway_payment_id", "gateway_order_id", "plan_id"},
			Operator: types.CommonFilterOperatorSearch,
			Values:   []any{q.Search},
		})
	}
	return f
}

func (s *GormStore) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) SavePayment(ctx context.Context, p *models.Payment) error {
	return s.db.WithContext(ctx).Save(p).Error
}

func (s *GormStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	return first[models.Payment](ctx, s.db, types.FiltersAnd{eq("id", id)})
}

func (s *GormStore) FindPaymentByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error) {
	return first[models.Payment](ctx, s.db, types.FiltersAnd{eq("gateway_payment_id", gatewayPaymentID)})
}

func (s *GormStore) ListPayments(ctx context.Context, q PaymentQuery) ([]*models.Payment, int64, error) {
	return list[models.Payment](ctx, s.db, paymentFilters(q), newestFirst, q.Page)
}

func (s *GormStore) SumPayments(ctx context.Context, q PaymentQuery) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where(where(paymentFilters(q))).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

// ---- history ----

func (s *GormStore) AppendHistory(ctx context.Context, h *models.SubscriptionHistory) error {
	return s.db.WithContext(ctx).Create(h).Error
}

func (s *GormStore) ListHistory(ctx context.Context, userID string) ([]*models.SubscriptionHistory, error) {
	items, _, err := list[models.SubscriptionHistory](ctx, s.db, types.FiltersAnd{eq("user_id", userID)}, newestFirst, Page{})
	return items, err
}

// ---- catalog ----

func (s *GormStore) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	return first[models.Subject](ctx, s.db, types.FiltersAnd{eq("id", id)})
}

func (s *GormStore) FindSubject(ctx context.Context, name string, grade int) (*models.Subject, error) {
	return first[models.Subject](ctx, s.db, types.FiltersAnd{eq("name", name), eq("grade", grade)})
}

func (s *GormStore) ListSubjects(ctx context.Context, grade int) ([]*models.Subject, error) {
	var f types.FiltersAnd
	if grade > 0 {
		f = append(f, eq("grade", grade))
	}
	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "grade"}},
		{Column: clause.Column{Name: "created_at"}},
		{Column: clause.Column{Name: "id"}},
	}}
	items, _, err := list[models.Subject](ctx, s.db, f, order, Page{})
	return items, err
}

func (s *GormStore) CreateSubject(ctx context.Context, v *models.Subject) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *GormStore) SaveSubject(ctx context.Context, v *models.Subject) error {
	return s.db.WithContext(ctx).Save(v).Error
}

func (s *GormStore) DeleteSubject(ctx context.Context, id string) error {
	return remove[models.Subject](ctx, s.db, id)
}

func (s *GormStore) GetUnit(ctx context.Context, id string) (*models.Unit, error) {
	return first[models.Unit](ctx, s.db, types.FiltersAnd{eq("id", id)})
}

func (s *GormStore) ListUnits(ctx context.Context, subjectID string) ([]*models.Unit, error) {
	var f types.FiltersAnd
	if subjectID != "" {
		f = append(f, eq("subject_id", subjectID))
	}
	items, _, err := list[models.Unit](ctx, s.db, f, catalogOrder, Page{})
	return items, err
}

func (s *GormStore) CreateUnit(ctx context.Context, v *models.Unit) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *GormStore) SaveUnit(ctx context.Context, v *models.Unit) error {
	return s.db.WithContext(ctx).Save(v).Error
}

func (s *GormStore) DeleteUnit(ctx context.Context, id string) error {
	return remove[models.Unit](ctx, s.db, id)
}

func chapterFilters(q ChapterQuery) types.FiltersAnd {
	var f types.FiltersAnd
	if q.UnitID != "" {
		f = append(f, eq("unit_id", q.UnitID))
	}
	if q.SubjectID != "" {
		f = append(f, eq("subject_id", q.SubjectID))
	}
	return f
}

func (s *GormStore) GetChapter(ctx context.Context, id string) (*models.Chapter, error) {
	return first[models.Chapter](ctx, s.db, types.FiltersAnd{eq("id", id)})
}

func (s *GormStore) ListChapters(ctx context.Context, q ChapterQuery) ([]*models.Chapter, error) {
	items, _, err := list[models.Chapter](ctx, s.db, chapterFilters(q), catalogOrder, Page{})
	return items, err
}

func (s *GormStore) CreateChapter(ctx context.Context, v *models.Chapter) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *GormStore) SaveChapter(ctx context.Context, v *models.Chapter) error {
	return s.db.WithContext(ctx).Save(v).Error
}

func (s *GormStore) DeleteChapter(ctx context.Context, id string) error {
	return remove[models.Chapter](ctx, s.db, id)
}

func videoFilters(q VideoQuery) types.FiltersAnd {
	var f types.FiltersAnd
	if q.ChapterID != "" {
		f = append(f, eq("chapter_id", q.ChapterID))
	}
	if q.SubjectID != "" {
		f = append(f, eq("subject_id", q.SubjectID))
	}
	if q.Grade > 0 {
		f = append(f, eq("grade", q.Grade))
	}
	return f
}

func (s *GormStore) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	return first[models.Video](ctx, s.db, types.FiltersAnd{eq("id", id)})
}

func (s *GormStore) ListVideos(ctx context.Context, q VideoQuery) ([]*models.Video, error) {
	items, _, err := list[models.Video](ctx, s.db, videoFilters(q), catalogOrder, Page{})
	return items, err
}

func (s *GormStore) CountVideos(ctx context.Context, q VideoQuery) (int64, error) {
	return count[models.Video](ctx, s.db, videoFilters(q))
}

func (s *GormStore) CreateVideo(ctx context.Context, v *models.Video) error {
	return s.db.WithContext(ctx).Create(v).Error
}

func (s *GormStore) SaveVideo(ctx context.Context, v *models.Video) error {
	return s.db.WithContext(ctx).Save(v).Error
}

func (s *GormStore) DeleteVideo(ctx context.Context, id string) error {
	return remove[models.Video](ctx, s.db, id)
}

// ---- webhook log ----

func (s *GormStore) SaveWebhookLog(ctx context.Context, l *models.WebhookLog) error {
	return s.db.WithContext(ctx).Save(l).Error
}
