package rest

import (
	"net/http"
	"sort"
	"time"

	"github.com/Elantris/attention-please-sub000/cache"
	"github.com/Elantris/attention-please-sub000/metrics"
	"github.com/Elantris/attention-please-sub000/models"
	"github.com/Elantris/attention-please-sub000/scheduler"
	"github.com/Elantris/attention-please-sub000/store"
	"github.com/emicklei/go-restful/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// API is the operator facing REST interface
type API struct {
	Scheduler *scheduler.Scheduler
	Settings  *cache.SettingsCache
	Mirror    *cache.Mirror
	Store     store.Store
	Log       logrus.FieldLogger
}

func (a *API) NewRestServices() []*restful.WebService {
	services := make([]*restful.WebService, 0)

	service := new(restful.WebService)
	service.
		Path("/jobs").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("").To(a.GetJobs))
	service.Route(service.GET("/guild/{guild-id}").To(a.GetGuildJobs))
	service.Route(service.DELETE("/{job-id}").To(a.DeleteJob))
	services = append(services, service)

	service = new(restful.WebService)
	service.
		Path("/settings").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("/{guild-id}").To(a.GetSettings))
	service.Route(service.PUT("/{guild-id}").To(a.PutSettings))
	services = append(services, service)

	service = new(restful.WebService)
	service.
		Path("/bans").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("").To(a.GetBans))
	service.Route(service.PUT("/{id}").To(a.PutBan))
	service.Route(service.DELETE("/{id}").To(a.DeleteBan))
	services = append(services, service)

	return services
}

// NewContainer mounts every service plus /metrics, requests are logged with their duration
func (a *API) NewContainer() *restful.Container {
	wsContainer := restful.NewContainer()

	for _, service := range a.NewRestServices() {
		wsContainer.Add(service)
	}
	wsContainer.Handle("/metrics", metrics.Handler())

	log := a.Log.WithField("module", "rest")
	wsContainer.Filter(func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		now := time.Now()
		chain.ProcessFilter(req, resp)
		log.Infof("received api request: %s %s (%d, took %v)",
			req.Request.Method, req.Request.URL, resp.StatusCode(), time.Since(now))
	})

	return wsContainer
}

func writeError(response *restful.Response, status int, err error) {
	response.WriteHeaderAndEntity(status, models.Rest_Error{Error: err.Error()})
}

func restJobs(entries []cache.JobEntry) []models.Rest_Job {
	jobs := make([]models.Rest_Job, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, models.NewRestJob(entry.Key, entry.Job))
	}
	return jobs
}

func (a *API) GetJobs(request *restful.Request, response *restful.Response) {
	response.WriteEntity(restJobs(a.Scheduler.Pending("")))
}

func (a *API) GetGuildJobs(request *restful.Request, response *restful.Response) {
	response.WriteEntity(restJobs(a.Scheduler.Pending(request.PathParameter("guild-id"))))
}

func (a *API) DeleteJob(request *restful.Request, response *restful.Response) {
	key := request.PathParameter("job-id")

	err := a.Scheduler.CancelAny(request.Request.Context(), key)
	if errors.Cause(err) == scheduler.ErrJobNotFound {
		writeError(response, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(response, http.StatusInternalServerError, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

func (a *API) GetSettings(request *restful.Request, response *restful.Response) {
	settings, err := a.Settings.Get(request.Request.Context(), request.PathParameter("guild-id"))
	if err != nil {
		writeError(response, http.StatusInternalServerError, err)
		return
	}
	response.WriteEntity(settings)
}

func (a *API) PutSettings(request *restful.Request, response *restful.Response) {
	guildID := request.PathParameter("guild-id")

	var settings models.GuildSettings
	if err := request.ReadEntity(&settings); err != nil {
		writeError(response, http.StatusBadRequest, err)
		return
	}
	if err := settings.Validate(); err != nil {
		writeError(response, http.StatusBadRequest, err)
		return
	}
	settings.Locale, _ = models.NormalizeLocale(settings.Locale)

	if err := a.Settings.Set(request.Request.Context(), guildID, settings); err != nil {
		writeError(response, http.StatusInternalServerError, err)
		return
	}
	response.WriteEntity(settings)
}

func (a *API) GetBans(request *restful.Request, response *restful.Response) {
	bans := make([]models.Rest_Ban, 0)
	for id, ban := range a.Mirror.Bans() {
		bans = append(bans, models.NewRestBan(id, ban))
	}
	sort.Slice(bans, func(i, j int) bool { return bans[i].ID < bans[j].ID })
	response.WriteEntity(bans)
}

func (a *API) PutBan(request *restful.Request, response *restful.Response) {
	id := request.PathParameter("id")

	var body struct {
		Reason string
	}
	if request.Request.ContentLength > 0 {
		if err := request.ReadEntity(&body); err != nil {
			writeError(response, http.StatusBadRequest, err)
			return
		}
	}

	ban, err := cache.AddBan(request.Request.Context(), a.Store, a.Mirror, id, body.Reason)
	if err != nil {
		writeError(response, http.StatusInternalServerError, err)
		return
	}
	response.WriteEntity(models.NewRestBan(id, ban))
}

func (a *API) DeleteBan(request *restful.Request, response *restful.Response) {
	err := cache.RemoveBan(request.Request.Context(), a.Store, a.Mirror, request.PathParameter("id"))
	if err != nil {
		writeError(response, http.StatusInternalServerError, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
