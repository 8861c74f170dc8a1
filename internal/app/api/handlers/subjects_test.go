package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brainac/backend/internal/app/api/middleware"
	"github.com/brainac/backend/internal/app/service/catalog"
	"github.com/brainac/backend/internal/store"
)

func subjectsRouter(t *testing.T) (http.Handler, map[string]string) {
	t.Helper()
	ctx := context.Background()
	r, e, authn := testEnv()
	svc := catalog.NewService(zap.NewNop().Sugar(), store.NewMemory())

	sub, err := svc.CreateSubject(ctx, &catalog.SubjectInput{Name: "Science", Description: "d", Grade: 8})
	require.NoError(t, err)
	un, err := svc.CreateUnit(ctx, sub.ID, &catalog.UnitInput{Name: "Matter"})
	require.NoError(t, err)
	ch, err := svc.CreateChapter(ctx, un.ID, &catalog.UnitInput{Name: "Solids"})
	require.NoError(t, err)
	v, err := svc.CreateVideo(ctx, ch.ID, &catalog.VideoInput{Title: "Intro", VideoURL: "https://cdn/v.mp4"})
	require.NoError(t, err)

	RegisterSubjectRoutes(r.Group("/api/subjects", authn), svc, e, middleware.RequireSubscription(time.Now))
	return r, map[string]string{"subject": sub.ID, "video": v.ID}
}

func TestSubjects_GradeScoped(t *testing.T) {
	r, ids := subjectsRouter(t)

	code, env := call(t, r, http.MethodGet, "/api/subjects", "trial8", nil)
	require.Equal(t, http.StatusOK, code)
	res := decode[catalog.SubjectsResponse](t, env)
	require.Len(t, res.Subjects, 1)
	assert.Equal(t, 1, res.Subjects[0].UnitCount)

	code, env = call(t, r, http.MethodGet, "/api/subjects", "trial9", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[catalog.SubjectsResponse](t, env).Subjects)

	code, env = call(t, r, http.MethodGet, "/api/subjects/"+ids["subject"], "trial9", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied for this class", env.Error)

	code, _ = call(t, r, http.MethodGet, "/api/subjects/"+ids["subject"], "admin", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, r, http.MethodGet, "/api/subjects/missing", "trial8", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Subject not found", env.Error)
}

func TestSubjects_VideosAreGated(t *testing.T) {
	r, ids := subjectsRouter(t)

	for _, path := range []string{
		"/api/subjects/" + ids["subject"] + "/videos",
		"/api/subjects/all/videos",
		"/api/subjects/videos/" + ids["video"],
	} {
		code, _ := call(t, r, http.MethodGet, path, "trial8", nil)
		assert.Equal(t, http.StatusOK, code, path)

		code, env := call(t, r, http.MethodGet, path, "expired8", nil)
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.True(t, env.SubscriptionRequired, path)
	}

	code, env := call(t, r, http.MethodGet, "/api/subjects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)
}
