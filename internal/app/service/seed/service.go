// Package seed loads the starter catalog and imports accounts that exist only
// in the identity provider. Both operations are safe to re-run.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/brainac/backend/internal/app/service/account"
	"github.com/brainac/backend/internal/app/service/catalog"
	"github.com/brainac/backend/internal/app/service/subscription"
	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/platform/identity"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/types"
)

// Report counts what a run did.
type Report struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Service struct {
	users   store.UserStore
	ident   identity.Provider
	catalog *catalog.Service
	subs    *subscription.Service
	log     *zap.SugaredLogger
}

func NewService(log *zap.SugaredLogger, repo store.Store, ident identity.Provider, cat *catalog.Service, subs *subscription.Service) *Service {
	return &Service{users: repo, ident: ident, catalog: cat, subs: subs, log: log.Named("seed")}
}

// Catalog creates the sample subjects that are not there yet. A subject whose
// name already exists for its grade is left alone, children included.
func (s *Service) Catalog(ctx context.Context) (*Report, error) {
	rep := &Report{}
	for _, sample := range sampleCatalog {
		sub, err := s.catalog.CreateSubject(ctx, &catalog.SubjectInput{
			Name:        sample.Name,
			Description: sample.Description,
			Grade:       sample.Grade,
			Icon:        sample.Icon,
			Color:       sample.Color,
		})
		if apperr.Is(err, apperr.KindConflict) {
			s.log.Infow("sample subject exists, skipping", "name", sample.Name, "grade", sample.Grade)
			rep.Skipped++
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("seed subject %q grade %d: %w", sample.Name, sample.Grade, err)
		}
		videos, err := s.fill(ctx, sub, sample)
		if err != nil {
			return rep, fmt.Errorf("seed subject %q grade %d: %w", sample.Name, sample.Grade, err)
		}
		s.log.Infow("sample subject created", "subject_id", sub.ID, "grade", sub.Grade, "units", len(sample.Units), "videos", videos)
		rep.Created++
	}
	return rep, nil
}

func (s *Service) fill(ctx context.Context, sub *models.Subject, sample sampleSubject) (int, error) {
	videos := 0
	for i, u := range sample.Units {
		unit, err := s.catalog.CreateUnit(ctx, sub.ID, &catalog.UnitInput{Name: u.Name, Order: i + 1})
		if err != nil {
			return videos, err
		}
		ch, err := s.catalog.CreateChapter(ctx, unit.ID, &catalog.UnitInput{Name: u.Name, Order: 1})
		if err != nil {
			return videos, err
		}
		for j, title := range u.Explainers {
			_, err := s.catalog.CreateVideo(ctx, ch.ID, &catalog.VideoInput{
				Title:       title,
				Description: fmt.Sprintf("Comprehensive explanation of %s from %s", title, u.Name),
				VideoURL:    fmt.Sprintf("/videos/grade-%d/%s/%s.mp4", sample.Grade, slug(sample.Name), slug(title)),
				Duration:    fmt.Sprintf("%d:%02d", 3+(i+j)%5, (i*7+j*13)%60),
				Order:       j + 1,
				Category:    sample.Name,
				Tags:        []string{slug(u.Name), slug(title)},
				Difficulty:  difficulty(j),
			})
			if err != nil {
				return videos, err
			}
			videos++
		}
	}
	return videos, nil
}

func difficulty(i int) types.Difficulty {
	if i%2 == 0 {
		return types.DifficultyBeginner
	}
	return types.DifficultyIntermediate
}

func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// Users creates a stored profile for every identity account that lacks one,
// rebuilt from its custom claims. A failing account is counted and skipped.
func (s *Service) Users(ctx context.Context) (*Report, error) {
	rep := &Report{}
	err := s.ident.ListUsers(ctx, func(p *identity.Profile) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.users.GetUser(ctx, p.UID)
		switch {
		case err == nil:
			rep.Skipped++
			return nil
		case !errors.Is(err, store.ErrNotFound):
			s.log.Errorw("user lookup failed", "uid", p.UID, "err", err)
			rep.Failed++
			return nil
		}
		u := account.FromClaims(p, p.CustomClaims)
		u.Preferences = datatypes.NewJSONType(models.DefaultPreferences())
		if err := s.subs.Import(ctx, u); err != nil {
			s.log.Errorw("user import failed", "uid", p.UID, "err", err)
			rep.Failed++
			return nil
		}
		s.log.Infow("user imported", "uid", u.ID, "status", u.SubscriptionStatus, "class", u.Grade)
		rep.Created++
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("import users: %w", err)
	}
	return rep, nil
}
