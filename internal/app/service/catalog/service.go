// Package catalog serves the grade-scoped content tree (subject, unit,
// chapter, video) to students and lets administrators maintain it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/types"
)

var errGradeDenied = apperr.Forbidden("Access denied for this class")

type Service struct {
	repo store.CatalogStore
	log  *zap.SugaredLogger
}

func NewService(log *zap.SugaredLogger, repo store.Store) *Service {
	return &Service{repo: repo, log: log}
}

// SubjectSummary is a subject with the size of its tree.
type SubjectSummary struct {
	*models.Subject
	UnitCount    int `json:"unitCount"`
	ChapterCount int `json:"chapterCount"`
}

type SubjectsResponse struct {
	Subjects           []*SubjectSummary        `json:"subjects"`
	ClassLevel         int                      `json:"classLevel"`
	TotalSubjects      int                      `json:"totalSubjects"`
	SubscriptionStatus types.SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndDate       *time.Time               `json:"trialEndDate,omitempty"`
}

type ChapterNode struct {
	*models.Chapter
	Videos []*models.Video `json:"videos"`
}

type UnitNode struct {
	*models.Unit
	Chapters []*ChapterNode `json:"chapters"`
}

type SubjectDetail struct {
	Subject *models.Subject `json:"subject"`
	Units   []*UnitNode     `json:"units"`
	// Videos not placed under any chapter of the subject.
	Loose      []*models.Video `json:"looseVideos,omitempty"`
	ClassLevel int             `json:"classLevel"`
}

type SubjectVideosResponse struct {
	Subject *models.Subject `json:"subject"`
	Videos  []*models.Video `json:"videos"`
}

// VideoView is a video with its subject's display name.
type VideoView struct {
	*models.Video
	SubjectName string `json:"subjectName"`
}

type AllVideosResponse struct {
	Videos      []*VideoView `json:"videos"`
	ClassLevel  int          `json:"classLevel"`
	TotalVideos int          `json:"totalVideos"`
}

type VideoResponse struct {
	Video *VideoView `json:"video"`
	Class int        `json:"class"`
}

// contentGrade is the grade whose content u browses. Zero lists every grade.
func contentGrade(u *models.User) int {
	if u.IsAdmin() {
		return 0
	}
	return u.Grade
}

func sortByName(items []*models.Subject) []*models.Subject {
	slices.SortStableFunc(items, func(a, b *models.Subject) int { return strings.Compare(a.Name, b.Name) })
	return items
}

// ListSubjects lists the subjects of the caller's grade, sorted by name.
func (s *Service) ListSubjects(ctx context.Context, u *models.User) (*SubjectsResponse, error) {
	items, err := s.repo.ListSubjects(ctx, contentGrade(u))
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch subjects")
	}
	summaries, err := s.summarize(ctx, sortByName(items))
	if err != nil {
		return nil, err
	}
	return &SubjectsResponse{
		Subjects:           summaries,
		ClassLevel:         u.Grade,
		TotalSubjects:      len(summaries),
		SubscriptionStatus: u.SubscriptionStatus,
		TrialEndDate:       u.TrialEndDate,
	}, nil
}

func (s *Service) summarize(ctx context.Context, items []*models.Subject) ([]*SubjectSummary, error) {
	out := make([]*SubjectSummary, 0, len(items))
	for _, sub := range items {
		units, err := s.repo.ListUnits(ctx, sub.ID)
		if err != nil {
			return nil, apperr.Internal(err, "Failed to fetch subjects")
		}
		chapters, err := s.repo.ListChapters(ctx, store.ChapterQuery{SubjectID: sub.ID})
		if err != nil {
			return nil, apperr.Internal(err, "Failed to fetch subjects")
		}
		out = append(out, &SubjectSummary{Subject: sub, UnitCount: len(units), ChapterCount: len(chapters)})
	}
	return out, nil
}

func (s *Service) loadSubject(ctx context.Context, id string) (*models.Subject, error) {
	sub, err := s.repo.GetSubject(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Subject not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch subject")
	}
	return sub, nil
}

// visibleSubject loads a subject and checks that u may read it.
func (s *Service) visibleSubject(ctx context.Context, u *models.User, id string) (*models.Subject, error) {
	sub, err := s.loadSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.CanAccessGrade(sub.Grade) {
		return nil, errGradeDenied
	}
	return sub, nil
}

// Subject returns a subject with its units, chapters and videos in order.
func (s *Service) Subject(ctx context.Context, u *models.User, id string) (*SubjectDetail, error) {
	sub, err := s.visibleSubject(ctx, u, id)
	if err != nil {
		return nil, err
	}
	units, err := s.repo.ListUnits(ctx, sub.ID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch subject")
	}
	chapters, err := s.repo.ListChapters(ctx, store.ChapterQuery{SubjectID: sub.ID})
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch subject")
	}
	videos, err := s.repo.ListVideos(ctx, store.VideoQuery{SubjectID: sub.ID})
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch subject")
	}

	byChapter := lo.GroupBy(videos, func(v *models.Video) string { return v.ChapterID })
	byUnit := lo.GroupBy(chapters, func(c *models.Chapter) string { return c.UnitID })
	placed := map[string]bool{}
	nodes := lo.Map(units, func(un *models.Unit, _ int) *UnitNode {
		return &UnitNode{Unit: un, Chapters: lo.Map(byUnit[un.ID], func(c *models.Chapter, _ int) *ChapterNode {
			placed[c.ID] = true
			return &ChapterNode{Chapter: c, Videos: lo.CoalesceSliceOrEmpty(byChapter[c.ID])}
		})}
	})
	loose := lo.Filter(videos, func(v *models.Video, _ int) bool { return !placed[v.ChapterID] })
	return &SubjectDetail{Subject: sub, Units: nodes, Loose: loose, ClassLevel: u.Grade}, nil
}

func (s *Service) SubjectVideos(ctx context.Context, u *models.User, id string) (*SubjectVideosResponse, error) {
	sub, err := s.visibleSubject(ctx, u, id)
	if err != nil {
		return nil, err
	}
	videos, err := s.repo.ListVideos(ctx, store.VideoQuery{SubjectID: sub.ID})
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch videos")
	}
	return &SubjectVideosResponse{Subject: sub, Videos: videos}, nil
}

// AllVideos lists every video of the caller's grade.
func (s *Service) AllVideos(ctx context.Context, u *models.User) (*AllVideosResponse, error) {
	grade := contentGrade(u)
	subjects, err := s.repo.ListSubjects(ctx, grade)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch videos")
	}
	if len(subjects) == 0 {
		return nil, apperr.NotFound(fmt.Sprintf("No content available for class %d", u.Grade))
	}
	videos, err := s.repo.ListVideos(ctx, store.VideoQuery{Grade: grade})
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch videos")
	}
	views := withSubjectNames(videos, subjects)
	return &AllVideosResponse{Videos: views, ClassLevel: u.Grade, TotalVideos: len(views)}, nil
}

func withSubjectNames(videos []*models.Video, subjects []*models.Subject) []*VideoView {
	names := lo.SliceToMap(subjects, func(s *models.Subject) (string, string) { return s.ID, s.Name })
	return lo.Map(videos, func(v *models.Video, _ int) *VideoView {
		return &VideoView{Video: v, SubjectName: lo.ValueOr(names, v.SubjectID, "Unknown")}
	})
}

func (s *Service) Video(ctx context.Context, u *models.User, id string) (*VideoResponse, error) {
	v, err := s.loadVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.CanAccessGrade(v.Grade) {
		return nil, errGradeDenied
	}
	view := &VideoView{Video: v, SubjectName: "Unknown"}
	if sub, err := s.repo.GetSubject(ctx, v.SubjectID); err == nil {
		view.SubjectName = sub.Name
	}
	return &VideoResponse{Video: view, Class: u.Grade}, nil
}

func (s *Service) loadVideo(ctx context.Context, id string) (*models.Video, error) {
	v, err := s.repo.GetVideo(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Video not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch video")
	}
	return v, nil
}
