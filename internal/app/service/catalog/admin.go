package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/logctx"
	"github.com/brainac/backend/pkg/tool"
	"github.com/brainac/backend/pkg/types"
)

const (
	defaultIcon      = "📚"
	defaultColor     = "#3B82F6"
	defaultDuration  = "0:00"
	defaultThumbnail = "/placeholder.svg"

	defaultVideoLimit = 20
	maxVideoLimit     = 100
)

var errGradeRange = apperr.Validation(fmt.Sprintf("Grade must be between %d and %d", types.MinContentGrade, types.MaxGrade))

func validGrade(g int) bool { return g >= types.MinContentGrade && g <= types.MaxGrade }

// ContentGrades lists the grades content can be authored for.
func ContentGrades() []int {
	return lo.RangeFrom(types.MinContentGrade, types.MaxGrade-types.MinContentGrade+1)
}

// ---- subjects ----

type AdminSubjectsResponse struct {
	Subjects []*SubjectSummary `json:"subjects"`
	Grades   []int             `json:"grades"`
}

type SubjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Grade       int    `json:"grade"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// SubjectPatch carries the fields to change; nil leaves a field as is.
type SubjectPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Grade       *int    `json:"grade"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
}

// AdminListSubjects lists subjects of grade (0 for all), sorted by name.
func (s *Service) AdminListSubjects(ctx context.Context, grade int) (*AdminSubjectsResponse, error) {
	items, err := s.repo.ListSubjects(ctx, grade)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch subjects")
	}
	summaries, err := s.summarize(ctx, sortByName(items))
	if err != nil {
		return nil, err
	}
	return &AdminSubjectsResponse{Subjects: summaries, Grades: ContentGrades()}, nil
}

// nameTaken reports whether another subject already uses name in grade.
func (s *Service) nameTaken(ctx context.Context, name string, grade int, exceptID string) (bool, error) {
	other, err := s.repo.FindSubject(ctx, name, grade)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return other.ID != exceptID, nil
}

func (s *Service) CreateSubject(ctx context.Context, in *SubjectInput) (*models.Subject, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Description) == "" || in.Grade == 0 {
		return nil, apperr.Validation("Name, description, and grade are required")
	}
	if !validGrade(in.Grade) {
		return nil, errGradeRange
	}
	taken, err := s.nameTaken(ctx, name, in.Grade, "")
	if err != nil {
		return nil, apperr.Internal(err, "Failed to create subject")
	}
	if taken {
		return nil, apperr.Conflict("Subject already exists for this grade")
	}
	sub := &models.Subject{
		ID:          tool.GenerateUUIDV7(),
		Name:        name,
		Description: in.Description,
		Grade:       in.Grade,
		Icon:        lo.CoalesceOrEmpty(in.Icon, defaultIcon),
		Color:       lo.CoalesceOrEmpty(in.Color, defaultColor),
	}
	if err := s.repo.CreateSubject(ctx, sub); err != nil {
		return nil, apperr.Internal(err, "Failed to create subject")
	}
	logctx.FromCtx(ctx, s.log).Infow("subject created", "subject_id", sub.ID, "grade", sub.Grade)
	return sub, nil
}

func (s *Service) UpdateSubject(ctx context.Context, id string, p *SubjectPatch) (*models.Subject, error) {
	sub, err := s.loadSubject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Grade != nil && !validGrade(*p.Grade) {
		return nil, errGradeRange
	}
	name := strings.TrimSpace(lo.FromPtrOr(p.Name, sub.Name))
	grade := lo.FromPtrOr(p.Grade, sub.Grade)
	if name == "" {
		return nil, apperr.Validation("Subject name is required")
	}
	if name != sub.Name || grade != sub.Grade {
		taken, err := s.nameTaken(ctx, name, grade, sub.ID)
		if err != nil {
			return nil, apperr.Internal(err, "Failed to update subject")
		}
		if taken {
			return nil, apperr.Conflict("Subject with this name already exists for this grade")
		}
	}
	sub.Name, sub.Grade = name, grade
	sub.Description = lo.FromPtrOr(p.Description, sub.Description)
	sub.Icon = lo.FromPtrOr(p.Icon, sub.Icon)
	sub.Color = lo.FromPtrOr(p.Color, sub.Color)
	if err := s.repo.SaveSubject(ctx, sub); err != nil {
		return nil, apperr.Internal(err, "Failed to update subject")
	}
	if p.Grade != nil {
		if err := s.regradeVideos(ctx, sub); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// regradeVideos keeps the grade of a subject's videos in step with the subject.
func (s *Service) regradeVideos(ctx context.Context, sub *models.Subject) error {
	videos, err := s.repo.ListVideos(ctx, store.VideoQuery{SubjectID: sub.ID})
	if err != nil {
		return apperr.Internal(err, "Failed to update subject")
	}
	for _, v := range videos {
		if v.Grade == sub.Grade {
			continue
		}
		v.Grade = sub.Grade
		if err := s.repo.SaveVideo(ctx, v); err != nil {
			return apperr.Internal(err, "Failed to update subject")
		}
	}
	return nil
}

// DeleteSubject removes a subject with no videos and no units.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	sub, err := s.loadSubject(ctx, id)
	if err != nil {
		return err
	}
	videos, err := s.repo.CountVideos(ctx, store.VideoQuery{SubjectID: sub.ID})
	if err != nil {
		return apperr.Internal(err, "Failed to delete subject")
	}
	if videos > 0 {
		return apperr.Validation(fmt.Sprintf("Cannot delete subject. It has %d videos. Please delete videos first.", videos))
	}
	units, err := s.repo.ListUnits(ctx, sub.ID)
	if err != nil {
		return apperr.Internal(err, "Failed to delete subject")
	}
	if len(units) > 0 {
		return apperr.Validation(fmt.Sprintf("Cannot delete subject. It has %d units. Please delete units first.", len(units)))
	}
	if err := s.repo.DeleteSubject(ctx, sub.ID); err != nil {
		return apperr.Internal(err, "Failed to delete subject")
	}
	logctx.FromCtx(ctx, s.log).Infow("subject deleted", "subject_id", sub.ID)
	return nil
}

// ---- units ----

type UnitInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

type NodePatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
}

func (s *Service) loadUnit(ctx context.Context, id string) (*models.Unit, error) {
	un, err := s.repo.GetUnit(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Unit not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch unit")
	}
	return un, nil
}

func (s *Service) ListUnits(ctx context.Context, subjectID string) ([]*models.Unit, error) {
	if _, err := s.loadSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	units, err := s.repo.ListUnits(ctx, subjectID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch units")
	}
	return units, nil
}

func orderOrFirst(order int) int {
	if order <= 0 {
		return 1
	}
	return order
}

func (s *Service) CreateUnit(ctx context.Context, subjectID string, in *UnitInput) (*models.Unit, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Unit name is required")
	}
	if _, err := s.loadSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	un := &models.Unit{
		ID:          tool.GenerateUUIDV7(),
		Name:        name,
		Description: in.Description,
		SubjectID:   subjectID,
		Order:       orderOrFirst(in.Order),
	}
	if err := s.repo.CreateUnit(ctx, un); err != nil {
		return nil, apperr.Internal(err, "Failed to create unit")
	}
	return un, nil
}

func (s *Service) UpdateUnit(ctx context.Context, id string, p *NodePatch) (*models.Unit, error) {
	un, err := s.loadUnit(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, apperr.Validation("Unit name is required")
	}
	un.Name = strings.TrimSpace(lo.FromPtrOr(p.Name, un.Name))
	un.Description = lo.FromPtrOr(p.Description, un.Description)
	un.Order = lo.FromPtrOr(p.Order, un.Order)
	if err := s.repo.SaveUnit(ctx, un); err != nil {
		return nil, apperr.Internal(err, "Failed to update unit")
	}
	return un, nil
}

func (s *Service) DeleteUnit(ctx context.Context, id string) error {
	un, err := s.loadUnit(ctx, id)
	if err != nil {
		return err
	}
	chapters, err := s.repo.ListChapters(ctx, store.ChapterQuery{UnitID: un.ID})
	if err != nil {
		return apperr.Internal(err, "Failed to delete unit")
	}
	if len(chapters) > 0 {
		return apperr.Validation(fmt.Sprintf("Cannot delete unit. It has %d chapters. Please delete chapters first.", len(chapters)))
	}
	if err := s.repo.DeleteUnit(ctx, un.ID); err != nil {
		return apperr.Internal(err, "Failed to delete unit")
	}
	return nil
}

// ---- chapters ----

func (s *Service) loadChapter(ctx context.Context, id string) (*models.Chapter, error) {
	c, err := s.repo.GetChapter(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Chapter not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch chapter")
	}
	return c, nil
}

func (s *Service) ListChapters(ctx context.Context, unitID string) ([]*models.Chapter, error) {
	if _, err := s.loadUnit(ctx, unitID); err != nil {
		return nil, err
	}
	chapters, err := s.repo.ListChapters(ctx, store.ChapterQuery{UnitID: unitID})
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch chapters")
	}
	return chapters, nil
}

// CreateChapter adds a chapter under unitID; its subject follows the unit.
func (s *Service) CreateChapter(ctx context.Context, unitID string, in *UnitInput) (*models.Chapter, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("Chapter name is required")
	}
	un, err := s.loadUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	c := &models.Chapter{
		ID:          tool.GenerateUUIDV7(),
		Name:        name,
		Description: in.Description,
		UnitID:      un.ID,
		SubjectID:   un.SubjectID,
		Order:       orderOrFirst(in.Order),
	}
	if err := s.repo.CreateChapter(ctx, c); err != nil {
		return nil, apperr.Internal(err, "Failed to create chapter")
	}
	return c, nil
}

func (s *Service) UpdateChapter(ctx context.Context, id string, p *NodePatch) (*models.Chapter, error) {
	c, err := s.loadChapter(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return nil, apperr.Validation("Chapter name is required")
	}
	c.Name = strings.TrimSpace(lo.FromPtrOr(p.Name, c.Name))
	c.Description = lo.FromPtrOr(p.Description, c.Description)
	c.Order = lo.FromPtrOr(p.Order, c.Order)
	if err := s.repo.SaveChapter(ctx, c); err != nil {
		return nil, apperr.Internal(err, "Failed to update chapter")
	}
	return c, nil
}

func (s *Service) DeleteChapter(ctx context.Context, id string) error {
	c, err := s.loadChapter(ctx, id)
	if err != nil {
		return err
	}
	videos, err := s.repo.CountVideos(ctx, store.VideoQuery{ChapterID: c.ID})
	if err != nil {
		return apperr.Internal(err, "Failed to delete chapter")
	}
	if videos > 0 {
		return apperr.Validation(fmt.Sprintf("Cannot delete chapter. It has %d videos. Please delete videos first.", videos))
	}
	if err := s.repo.DeleteChapter(ctx, c.ID); err != nil {
		return apperr.Internal(err, "Failed to delete chapter")
	}
	return nil
}

// ---- videos ----

type VideoInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	VideoURL    string           `json:"videoUrl"`
	Duration    string           `json:"duration"`
	Thumbnail   string           `json:"thumbnail"`
	Order       int              `json:"order"`
	Category    string           `json:"category"`
	Tags        []string         `json:"tags"`
	Difficulty  types.Difficulty `json:"difficulty"`
	// ChapterID is read only by the flat create endpoint.
	ChapterID string `json:"chapterId"`
}

type VideoPatch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	VideoURL    *string           `json:"videoUrl"`
	Duration    *string           `json:"duration"`
	Thumbnail   *string           `json:"thumbnail"`
	Order       *int              `json:"order"`
	Category    *string           `json:"category"`
	Tags        []string          `json:"tags"`
	Difficulty  *types.Difficulty `json:"difficulty"`
	// ChapterID moves the video, re-deriving its subject, unit and grade.
	ChapterID *string `json:"chapterId"`
}

type VideoListRequest struct {
	Page    int    `form:"page"`
	Limit   int    `form:"limit"`
	Grade   int    `form:"grade"`
	Subject string `form:"subject"`
}

type VideoPagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type VideoStats struct {
	TotalVideos     int64  `json:"totalVideos"`
	AverageDuration string `json:"averageDuration"`
	TotalViews      int64  `json:"totalViews"`
}

type VideoListResponse struct {
	Videos     []*VideoView     `json:"videos"`
	Pagination *VideoPagination `json:"pagination"`
	Stats      *VideoStats      `json:"stats"`
}

// AdminListVideos lists videos newest first, filtered by grade and subject name.
func (s *Service) AdminListVideos(ctx context.Context, req *VideoListRequest) (*VideoListResponse, error) {
	page := max(req.Page, 1)
	limit := req.Limit
	if limit <= 0 {
		limit = defaultVideoLimit
	}
	limit = min(limit, maxVideoLimit)

	subjects, err := s.repo.ListSubjects(ctx, 0)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch videos")
	}
	videos, err := s.repo.ListVideos(ctx, store.VideoQuery{Grade: req.Grade})
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch videos")
	}
	views := withSubjectNames(videos, subjects)
	if name := strings.TrimSpace(req.Subject); name != "" && name != "all" {
		views = lo.Filter(views, func(v *VideoView, _ int) bool { return strings.EqualFold(v.SubjectName, name) })
	}
	views = newestFirst(views)

	total := int64(len(views))
	stats := &VideoStats{
		TotalVideos:     total,
		AverageDuration: averageDuration(views),
		TotalViews:      lo.SumBy(views, func(v *VideoView) int64 { return v.Views }),
	}
	return &VideoListResponse{
		Videos: lo.Subset(views, (page-1)*limit, uint(limit)),
		Pagination: &VideoPagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
		Stats: stats,
	}, nil
}

func newestFirst(views []*VideoView) []*VideoView {
	out := slices.Clone(views)
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b *VideoView) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// parseDuration reads "m:ss" or "h:mm:ss" into seconds.
func parseDuration(d string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(d), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

func formatDuration(sec int) string {
	if sec >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
	}
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

func averageDuration(views []*VideoView) string {
	secs := lo.FilterMap(views, func(v *VideoView, _ int) (int, bool) { return parseDuration(v.Duration) })
	if len(secs) == 0 {
		return defaultDuration
	}
	return formatDuration(lo.Sum(secs) / len(secs))
}

// placement is the ancestry a video inherits from its chapter.
type placement struct {
	chapter *models.Chapter
	subject *models.Subject
}

func (s *Service) place(ctx context.Context, chapterID string) (*placement, error) {
	c, err := s.loadChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	sub, err := s.loadSubject(ctx, c.SubjectID)
	if err != nil {
		return nil, err
	}
	return &placement{chapter: c, subject: sub}, nil
}

func (p *placement) apply(v *models.Video) {
	v.ChapterID = p.chapter.ID
	v.UnitID = p.chapter.UnitID
	v.SubjectID = p.subject.ID
	v.Grade = p.subject.Grade
}

// CreateVideo adds a video under chapterID and bumps the subject's video count.
func (s *Service) CreateVideo(ctx context.Context, chapterID string, in *VideoInput) (*models.Video, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.VideoURL) == "" {
		return nil, apperr.Validation("Title and video URL are required")
	}
	if chapterID == "" {
		return nil, apperr.Validation("Chapter is required")
	}
	if in.Difficulty != "" && !in.Difficulty.Valid() {
		return nil, apperr.Validation("Invalid difficulty")
	}
	pl, err := s.place(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	v := &models.Video{
		ID:          tool.GenerateUUIDV7(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Duration:    lo.CoalesceOrEmpty(in.Duration, defaultDuration),
		VideoURL:    in.VideoURL,
		Thumbnail:   lo.CoalesceOrEmpty(in.Thumbnail, defaultThumbnail),
		Order:       orderOrFirst(in.Order),
		Category:    in.Category,
		Tags:        lo.CoalesceSliceOrEmpty(in.Tags),
		Difficulty:  lo.CoalesceOrEmpty(in.Difficulty, types.DifficultyBeginner),
	}
	pl.apply(v)
	if err := s.repo.CreateVideo(ctx, v); err != nil {
		return nil, apperr.Internal(err, "Failed to create video")
	}
	s.adjustVideoCount(ctx, v.SubjectID, 1)
	logctx.FromCtx(ctx, s.log).Infow("video created", "video_id", v.ID, "chapter_id", v.ChapterID)
	return v, nil
}

// AddVideo is the flat create form that names the chapter in the body.
func (s *Service) AddVideo(ctx context.Context, in *VideoInput) (*models.Video, error) {
	if strings.TrimSpace(in.Title) == "" || in.ChapterID == "" || strings.TrimSpace(in.VideoURL) == "" {
		return nil, apperr.Validation("Title, chapter and video URL are required")
	}
	return s.CreateVideo(ctx, in.ChapterID, in)
}

func (s *Service) UpdateVideo(ctx context.Context, id string, p *VideoPatch) (*models.Video, error) {
	v, err := s.loadVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Difficulty != nil && !p.Difficulty.Valid() {
		return nil, apperr.Validation("Invalid difficulty")
	}
	fromSubject := v.SubjectID
	if p.ChapterID != nil && *p.ChapterID != v.ChapterID {
		pl, err := s.place(ctx, *p.ChapterID)
		if err != nil {
			return nil, err
		}
		pl.apply(v)
	}
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, apperr.Validation("Title is required")
		}
		v.Title = strings.TrimSpace(*p.Title)
	}
	v.Description = lo.FromPtrOr(p.Description, v.Description)
	v.VideoURL = lo.CoalesceOrEmpty(lo.FromPtr(p.VideoURL), v.VideoURL)
	v.Duration = lo.CoalesceOrEmpty(lo.FromPtr(p.Duration), v.Duration)
	v.Thumbnail = lo.CoalesceOrEmpty(lo.FromPtr(p.Thumbnail), v.Thumbnail)
	v.Order = lo.FromPtrOr(p.Order, v.Order)
	v.Category = lo.FromPtrOr(p.Category, v.Category)
	v.Difficulty = lo.FromPtrOr(p.Difficulty, v.Difficulty)
	if p.Tags != nil {
		v.Tags = p.Tags
	}
	if err := s.repo.SaveVideo(ctx, v); err != nil {
		return nil, apperr.Internal(err, "Failed to update video")
	}
	if v.SubjectID != fromSubject {
		s.adjustVideoCount(ctx, fromSubject, -1)
		s.adjustVideoCount(ctx, v.SubjectID, 1)
	}
	return v, nil
}

func (s *Service) DeleteVideo(ctx context.Context, id string) error {
	v, err := s.loadVideo(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteVideo(ctx, v.ID); err != nil {
		return apperr.Internal(err, "Failed to delete video")
	}
	s.adjustVideoCount(ctx, v.SubjectID, -1)
	logctx.FromCtx(ctx, s.log).Infow("video deleted", "video_id", v.ID)
	return nil
}

// adjustVideoCount is a read-modify-write on the subject's counter, floored
// at zero. Concurrent edits may lose an update; failures are only logged.
func (s *Service) adjustVideoCount(ctx context.Context, subjectID string, delta int) {
	lg := logctx.FromCtx(ctx, s.log)
	sub, err := s.repo.GetSubject(ctx, subjectID)
	if err != nil {
		lg.Warnw("video count update skipped", "subject_id", subjectID, "err", err)
		return
	}
	sub.VideoCount = max(0, sub.VideoCount+delta)
	if err := s.repo.SaveSubject(ctx, sub); err != nil {
		lg.Warnw("video count update failed", "subject_id", subjectID, "err", err)
	}
}
