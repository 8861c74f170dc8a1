package catalog

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/types"
)

func TestCreateSubject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	sub, err := f.svc.CreateSubject(ctx, &SubjectInput{Name: " Science ", Description: "d", Grade: 8})
	require.NoError(t, err)
	assert.Equal(t, "Science", sub.Name)
	assert.Equal(t, defaultIcon, sub.Icon)
	assert.Equal(t, defaultColor, sub.Color)
	assert.Zero(t, sub.VideoCount)

	cases := []struct {
		name string
		in   SubjectInput
		msg  string
	}{
		{"missing fields", SubjectInput{Name: "Maths", Grade: 8}, "Name, description, and grade are required"},
		{"grade low", SubjectInput{Name: "Maths", Description: "d", Grade: 5}, "Grade must be between 6 and 10"},
		{"grade high", SubjectInput{Name: "Maths", Description: "d", Grade: 11}, "Grade must be between 6 and 10"},
		{"duplicate", SubjectInput{Name: "Science", Description: "d", Grade: 8}, "Subject already exists for this grade"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateSubject(ctx, &tc.in)
			require.Error(t, err)
			assert.Equal(t, 400, apperr.KindOf(err).HTTPStatus())
			assert.Equal(t, tc.msg, err.Error())
		})
	}

	_, err = f.svc.CreateSubject(ctx, &SubjectInput{Name: "Science", Description: "d", Grade: 9})
	assert.NoError(t, err, "same name in another grade")
}

func TestUpdateSubject(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sci, _, v := f.tree(t, "Science", 8)
	_, err := f.svc.CreateSubject(ctx, &SubjectInput{Name: "Maths", Description: "d", Grade: 8})
	require.NoError(t, err)

	_, err = f.svc.UpdateSubject(ctx, sci.ID, &SubjectPatch{Name: lo.ToPtr("Maths")})
	assert.EqualError(t, err, "Subject with this name already exists for this grade")

	updated, err := f.svc.UpdateSubject(ctx, sci.ID, &SubjectPatch{Grade: lo.ToPtr(9), Color: lo.ToPtr("#000")})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Grade)
	assert.Equal(t, "#000", updated.Color)

	moved, err := f.mem.GetVideo(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, moved.Grade, "videos follow the subject grade")

	_, err = f.svc.UpdateSubject(ctx, sci.ID, &SubjectPatch{Grade: lo.ToPtr(4)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteSubject_RefusedWhileContentExists(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sub, ch, v := f.tree(t, "Science", 8)

	err := f.svc.DeleteSubject(ctx, sub.ID)
	assert.EqualError(t, err, "Cannot delete subject. It has 1 videos. Please delete videos first.")
	_, err = f.mem.GetSubject(ctx, sub.ID)
	require.NoError(t, err, "subject survives")

	require.NoError(t, f.svc.DeleteVideo(ctx, v.ID))
	err = f.svc.DeleteSubject(ctx, sub.ID)
	assert.EqualError(t, err, "Cannot delete subject. It has 1 units. Please delete units first.")

	err = f.svc.DeleteUnit(ctx, ch.UnitID)
	assert.EqualError(t, err, "Cannot delete unit. It has 1 chapters. Please delete chapters first.")

	require.NoError(t, f.svc.DeleteChapter(ctx, ch.ID))
	require.NoError(t, f.svc.DeleteUnit(ctx, ch.UnitID))
	require.NoError(t, f.svc.DeleteSubject(ctx, sub.ID))

	err = f.svc.DeleteSubject(ctx, sub.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteChapter_RefusedWhileVideosExist(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, ch, _ := f.tree(t, "Science", 8)

	err := f.svc.DeleteChapter(ctx, ch.ID)
	assert.EqualError(t, err, "Cannot delete chapter. It has 1 videos. Please delete videos first.")
}

func TestUnitsAndChapters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sub, err := f.svc.CreateSubject(ctx, &SubjectInput{Name: "Science", Description: "d", Grade: 8})
	require.NoError(t, err)

	_, err = f.svc.CreateUnit(ctx, sub.ID, &UnitInput{})
	assert.EqualError(t, err, "Unit name is required")
	_, err = f.svc.ListUnits(ctx, "missing")
	assert.EqualError(t, err, "Subject not found")

	un, err := f.svc.CreateUnit(ctx, sub.ID, &UnitInput{Name: "Matter"})
	require.NoError(t, err)
	assert.Equal(t, 1, un.Order)

	un, err = f.svc.UpdateUnit(ctx, un.ID, &NodePatch{Order: lo.ToPtr(3), Description: lo.ToPtr("states")})
	require.NoError(t, err)
	assert.Equal(t, 3, un.Order)
	assert.Equal(t, "Matter", un.Name)

	_, err = f.svc.CreateChapter(ctx, un.ID, &UnitInput{Name: "  "})
	assert.EqualError(t, err, "Chapter name is required")
	_, err = f.svc.ListChapters(ctx, "missing")
	assert.EqualError(t, err, "Unit not found")

	ch, err := f.svc.CreateChapter(ctx, un.ID, &UnitInput{Name: "Solids"})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, ch.SubjectID, "subject follows the unit")

	chapters, err := f.svc.ListChapters(ctx, un.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 1)
}

func TestCreateVideo_DerivesAncestry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sub, ch, v := f.tree(t, "Science", 7)

	assert.Equal(t, sub.ID, v.SubjectID)
	assert.Equal(t, ch.UnitID, v.UnitID)
	assert.Equal(t, 7, v.Grade)
	assert.Equal(t, types.DifficultyBeginner, v.Difficulty)
	assert.Equal(t, defaultThumbnail, v.Thumbnail)
	assert.NotNil(t, v.Tags)

	got, err := f.mem.GetSubject(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VideoCount)

	_, err = f.svc.CreateVideo(ctx, ch.ID, &VideoInput{Title: "x"})
	assert.EqualError(t, err, "Title and video URL are required")
	_, err = f.svc.CreateVideo(ctx, "missing", &VideoInput{Title: "x", VideoURL: "u"})
	assert.EqualError(t, err, "Chapter not found")

	flat, err := f.svc.AddVideo(ctx, &VideoInput{Title: "Flat", VideoURL: "u", ChapterID: ch.ID})
	require.NoError(t, err)
	assert.Equal(t, "0:00", flat.Duration)
	_, err = f.svc.AddVideo(ctx, &VideoInput{Title: "Flat", VideoURL: "u"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateVideo_MoveAdjustsCounts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sci, _, v := f.tree(t, "Science", 7)
	his, hisCh, _ := f.tree(t, "History", 9)

	moved, err := f.svc.UpdateVideo(ctx, v.ID, &VideoPatch{ChapterID: lo.ToPtr(hisCh.ID), Title: lo.ToPtr("Moved")})
	require.NoError(t, err)
	assert.Equal(t, his.ID, moved.SubjectID)
	assert.Equal(t, 9, moved.Grade)
	assert.Equal(t, "Moved", moved.Title)

	got, err := f.mem.GetSubject(ctx, sci.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.VideoCount)
	got, err = f.mem.GetSubject(ctx, his.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.VideoCount)

	require.NoError(t, f.svc.DeleteVideo(ctx, moved.ID))
	got, err = f.mem.GetSubject(ctx, his.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VideoCount)
}

func TestAdminListVideos(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, ch, _ := f.tree(t, "Science", 7)
	_, err := f.svc.CreateVideo(ctx, ch.ID, &VideoInput{Title: "Two", VideoURL: "u", Duration: "20:00"})
	require.NoError(t, err)
	f.tree(t, "History", 9)

	res, err := f.svc.AdminListVideos(ctx, &VideoListRequest{Subject: "science", Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Stats.TotalVideos)
	assert.Equal(t, "15:00", res.Stats.AverageDuration)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	require.Len(t, res.Videos, 1)
	assert.Equal(t, "Two", res.Videos[0].Title, "newest first")

	res, err = f.svc.AdminListVideos(ctx, &VideoListRequest{Grade: 9})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Pagination.Total)
	assert.Equal(t, "History", res.Videos[0].SubjectName)
}

func TestParseDuration(t *testing.T) {
	sec, ok := parseDuration("1:02:03")
	assert.True(t, ok)
	assert.Equal(t, 3723, sec)
	_, ok = parseDuration("abc")
	assert.False(t, ok)
	assert.Equal(t, "1:02:03", formatDuration(3723))
	assert.Equal(t, "0:45", formatDuration(45))
}

func TestContentGrades(t *testing.T) {
	assert.Equal(t, []int{6, 7, 8, 9, 10}, ContentGrades())
}
