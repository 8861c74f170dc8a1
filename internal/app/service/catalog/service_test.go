package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/types"
)

type fixture struct {
	svc *Service
	mem *store.MemoryStore
}

func newFixture() *fixture {
	mem := store.NewMemory()
	return &fixture{svc: NewService(zap.NewNop().Sugar(), mem), mem: mem}
}

func student(grade int) *models.User {
	return &models.User{ID: "u1", Grade: grade, Role: types.RoleStudent, SubscriptionStatus: types.SubscriptionStatusTrial}
}

func admin() *models.User {
	return &models.User{ID: "admin", Role: types.RoleAdmin, SubscriptionStatus: types.SubscriptionStatusActive, Synthetic: true}
}

// tree builds subject > unit > chapter > video for grade and returns the ids.
func (f *fixture) tree(t *testing.T, name string, grade int) (*models.Subject, *models.Chapter, *models.Video) {
	t.Helper()
	ctx := context.Background()
	sub, err := f.svc.CreateSubject(ctx, &SubjectInput{Name: name, Description: name + " basics", Grade: grade})
	require.NoError(t, err)
	un, err := f.svc.CreateUnit(ctx, sub.ID, &UnitInput{Name: "Unit 1"})
	require.NoError(t, err)
	ch, err := f.svc.CreateChapter(ctx, un.ID, &UnitInput{Name: "Chapter 1"})
	require.NoError(t, err)
	v, err := f.svc.CreateVideo(ctx, ch.ID, &VideoInput{Title: "Intro", VideoURL: "https://cdn/v.mp4", Duration: "10:00"})
	require.NoError(t, err)
	return sub, ch, v
}

func TestListSubjects_GradeScoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.tree(t, "Science", 8)
	f.tree(t, "Maths", 8)
	f.tree(t, "History", 9)

	res, err := f.svc.ListSubjects(ctx, student(8))
	require.NoError(t, err)
	require.Len(t, res.Subjects, 2)
	assert.Equal(t, "Maths", res.Subjects[0].Name, "sorted by name")
	assert.Equal(t, 8, res.ClassLevel)
	assert.Equal(t, 1, res.Subjects[0].UnitCount)
	assert.Equal(t, 1, res.Subjects[0].ChapterCount)
	assert.Equal(t, 1, res.Subjects[0].VideoCount)
	for _, s := range res.Subjects {
		assert.Equal(t, 8, s.Grade)
	}

	res, err = f.svc.ListSubjects(ctx, admin())
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalSubjects)
}

func TestSubject_GradeMismatchDenied(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sub, _, v := f.tree(t, "History", 9)

	_, err := f.svc.Subject(ctx, student(8), sub.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, "Access denied for this class", err.Error())

	_, err = f.svc.SubjectVideos(ctx, student(8), sub.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Video(ctx, student(8), v.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.Subject(ctx, student(8), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	detail, err := f.svc.Subject(ctx, admin(), sub.ID)
	require.NoError(t, err)
	require.Len(t, detail.Units, 1)
	require.Len(t, detail.Units[0].Chapters, 1)
	assert.Equal(t, v.ID, detail.Units[0].Chapters[0].Videos[0].ID)
	assert.Empty(t, detail.Loose)
}

func TestSubject_OrderedTree(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sub, err := f.svc.CreateSubject(ctx, &SubjectInput{Name: "Science", Description: "d", Grade: 7})
	require.NoError(t, err)
	second, err := f.svc.CreateUnit(ctx, sub.ID, &UnitInput{Name: "Second", Order: 2})
	require.NoError(t, err)
	first, err := f.svc.CreateUnit(ctx, sub.ID, &UnitInput{Name: "First", Order: 1})
	require.NoError(t, err)
	tie, err := f.svc.CreateUnit(ctx, sub.ID, &UnitInput{Name: "Also first"})
	require.NoError(t, err)

	detail, err := f.svc.Subject(ctx, student(7), sub.ID)
	require.NoError(t, err)
	ids := []string{}
	for _, u := range detail.Units {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{first.ID, tie.ID, second.ID}, ids, "order ascending, ties by insertion")
}

func TestAllVideos(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, v := f.tree(t, "Science", 6)
	f.tree(t, "History", 7)

	res, err := f.svc.AllVideos(ctx, student(6))
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalVideos)
	assert.Equal(t, v.ID, res.Videos[0].ID)
	assert.Equal(t, "Science", res.Videos[0].SubjectName)

	_, err = f.svc.AllVideos(ctx, student(10))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "No content available for class 10", err.Error())
}

func TestVideo(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, _, v := f.tree(t, "Science", 6)

	res, err := f.svc.Video(ctx, student(6), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Science", res.Video.SubjectName)
	assert.Equal(t, 6, res.Class)

	_, err = f.svc.Video(ctx, student(6), "nope")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
