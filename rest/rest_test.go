package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/scheduler"
	"github.com/Elantris/attention-please-sub000/store"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newTestAPI(t *testing.T) (*API, http.Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s, err := store.OpenBolt(filepath.Join(t.TempDir(), "rest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := logrus.New()
	logger.Out = io.Discard

	mirror := cache.NewMirror(logger)
	require.NoError(t, mirror.Attach(ctx, s))

	api := &API{
		Scheduler: scheduler.New(s, mirror, nil, "client-a", logger),
		Settings:  cache.NewSettingsCache(s, time.Minute),
		Mirror:    mirror,
		Store:     s,
		Log:       logger,
	}
	return api, api.NewContainer()
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func TestJobs(t *testing.T) {
	api, handler := newTestAPI(t)

	for _, guildID := range []string{"g1", "g2"} {
		job := models.Job{
			Command: models.JobCommand{GuildID: guildID, ChannelID: "c1"},
			Target:  models.JobTarget{ChannelID: "c1", MessageID: "m-" + guildID},
		}
		job.SetExecuteTime(time.Now().Add(time.Hour))
		_, err := api.Scheduler.Schedule(context.Background(), models.JobKindCheck, job)
		require.NoError(t, err)
	}

	response := do(t, handler, http.MethodGet, "/jobs", "")
	require.Equal(t, http.StatusOK, response.Code)
	var jobs []models.Rest_Job
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 2)

	response = do(t, handler, http.MethodGet, "/jobs/guild/g2", "")
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "check_m-g2", jobs[0].ID)
	assert.Equal(t, models.JobKindCheck, jobs[0].Kind)

	response = do(t, handler, http.MethodDelete, "/jobs/check_m-g2", "")
	assert.Equal(t, http.StatusNoContent, response.Code)
	assert.Len(t, api.Scheduler.Pending(""), 1)

	response = do(t, handler, http.MethodDelete, "/jobs/check_m-g2", "")
	assert.Equal(t, http.StatusNotFound, response.Code)
}

func TestSettings(t *testing.T) {
	_, handler := newTestAPI(t)

	response := do(t, handler, http.MethodGet, "/settings/g1", "")
	require.Equal(t, http.StatusOK, response.Code)
	var settings models.GuildSettings
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &settings))
	assert.Equal(t, models.GuildSettings{}.Default(), settings)

	settings.Offset = 13
	body, _ := json.Marshal(settings)
	response = do(t, handler, http.MethodPut, "/settings/g1", string(body))
	assert.Equal(t, http.StatusBadRequest, response.Code)

	settings.Offset = -3.5
	settings.Locale = "ja"
	body, _ = json.Marshal(settings)
	response = do(t, handler, http.MethodPut, "/settings/g1", string(body))
	require.Equal(t, http.StatusOK, response.Code)

	response = do(t, handler, http.MethodGet, "/settings/g1", "")
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &settings))
	assert.Equal(t, -3.5, settings.Offset)
	assert.Equal(t, "ja", settings.Locale)
}

func TestBans(t *testing.T) {
	api, handler := newTestAPI(t)

	response := do(t, handler, http.MethodPut, "/bans/u1", `{"Reason":"spam"}`)
	require.Equal(t, http.StatusOK, response.Code)
	assert.True(t, api.Mirror.IsBanned("u1"))

	response = do(t, handler, http.MethodGet, "/bans", "")
	var bans []models.Rest_Ban
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &bans))
	require.Len(t, bans, 1)
	assert.Equal(t, "spam", bans[0].Reason)

	response = do(t, handler, http.MethodDelete, "/bans/u1", "")
	assert.Equal(t, http.StatusNoContent, response.Code)
	assert.False(t, api.Mirror.IsBanned("u1"))
}

func TestBansAreSortedByID(t *testing.T) {
	_, handler := newTestAPI(t)

	for _, id := range []string{"u3", "u1", "u2"} {
		response := do(t, handler, http.MethodPut, "/bans/"+id, "")
		require.Equal(t, http.StatusOK, response.Code)
	}

	response := do(t, handler, http.MethodGet, "/bans", "")
	var bans []models.Rest_Ban
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &bans))
	require.Len(t, bans, 3)
	assert.Equal(t, []string{"u1", "u2", "u3"}, []string{bans[0].ID, bans[1].ID, bans[2].ID})
}

func TestMetricsMounted(t *testing.T) {
	_, handler := newTestAPI(t)

	response := do(t, handler, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, response.Code)
	assert.Contains(t, response.Body.String(), "attention_please_")
}
