// Package store is the repository boundary for every persisted entity.
// Services depend on the narrow interfaces; Store bundles them for wiring.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/pkg/types"
)

var ErrNotFound = errors.New("store: record not found")

type Page struct {
	From int
	Size int
}

type UserQuery struct {
	Page
	Status types.SubscriptionStatus
	Grade  int
	Search string
}

type PaymentQuery struct {
	Page
	UserID   string
	Statuses []types.PaymentStatus
	Method   string
	// Since keeps payments created at or after the instant.
	Since *time.Time
	// Search matches the gateway payment id or plan.
	Search string
}

type ChapterQuery struct {
	UnitID    string
	SubjectID string
}

type VideoQuery struct {
	ChapterID string
	SubjectID string
	Grade     int
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUserByGatewaySubscription(ctx context.Context, subscriptionID string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context, q UserQuery) ([]*models.User, int64, error)
	CountUsers(ctx context.Context, q UserQuery) (int64, error)
	// ListLapsed returns trial users whose trial ended and active users whose
	// paid period ended at or before now.
	ListLapsed(ctx context.Context, now time.Time) ([]*models.User, error)
	// ExpireIfLapsed marks the user expired only while the row still matches
	// the ListLapsed condition, and reports whether it changed.
	ExpireIfLapsed(ctx context.Context, id string, now time.Time) (bool, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	SavePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	FindPaymentByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error)
	ListPayments(ctx context.Context, q PaymentQuery) ([]*models.Payment, int64, error)
	// SumPayments totals Amount over payments matching q.
	SumPayments(ctx context.Context, q PaymentQuery) (int64, error)
}

type HistoryStore interface {
	AppendHistory(ctx context.Context, h *models.SubscriptionHistory) error
	ListHistory(ctx context.Context, userID string) ([]*models.SubscriptionHistory, error)
}

type CatalogStore interface {
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	FindSubject(ctx context.Context, name string, grade int) (*models.Subject, error)
	// ListSubjects lists subjects of grade, or every subject when grade is 0.
	ListSubjects(ctx context.Context, grade int) ([]*models.Subject, error)
	CreateSubject(ctx context.Context, s *models.Subject) error
	SaveSubject(ctx context.Context, s *models.Subject) error
	DeleteSubject(ctx context.Context, id string) error

	GetUnit(ctx context.Context, id string) (*models.Unit, error)
	ListUnits(ctx context.Context, subjectID string) ([]*models.Unit, error)
	CreateUnit(ctx context.Context, u *models.Unit) error
	SaveUnit(ctx context.Context, u *models.Unit) error
	DeleteUnit(ctx context.Context, id string) error

	GetChapter(ctx context.Context, id string) (*models.Chapter, error)
	ListChapters(ctx context.Context, q ChapterQuery) ([]*models.Chapter, error)
	CreateChapter(ctx context.Context, c *models.Chapter) error
	SaveChapter(ctx context.Context, c *models.Chapter) error
	DeleteChapter(ctx context.Context, id string) error

	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context, q VideoQuery) ([]*models.Video, error)
	CountVideos(ctx context.Context, q VideoQuery) (int64, error)
	CreateVideo(ctx context.Context, v *models.Video) error
	SaveVideo(ctx context.Context, v *models.Video) error
	DeleteVideo(ctx context.Context, id string) error
}

type WebhookLogStore interface {
	SaveWebhookLog(ctx context.Context, l *models.WebhookLog) error
}

type Store interface {
	UserStore
	PaymentStore
	HistoryStore
	CatalogStore
	WebhookLogStore
}
