package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gradeflow/grading-gateway/internal/api/metrics"
	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

// proxyError is the normalized client-facing error body for job routes.
type proxyError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobsHandler relays job-status and grade-posting requests to the grading
// backend. It holds no job state; the jobId is a pure pass-through key.
type JobsHandler struct {
	backend ports.JobBackend
	log     zerolog.Logger
}

func NewJobsHandler(backend ports.JobBackend, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{backend: backend, log: log.With().Str("component", "job_proxy").Logger()}
}

// JobStatus handles GET /canvas/jobs/:jobId. Forwards the status query and
// relays the backend's status and body verbatim.
//
// @Summary      Poll an asynchronous grading job
// @Tags         jobs
// @Produce      json
// @Param        jobId  path      string  true  "Backend job identifier"
// @Success      200    {object}  map[string]any
// @Failure      400    {object}  proxyError
// @Failure      500    {object}  proxyError
// @Router       /canvas/jobs/{jobId} [get]
func (h *JobsHandler) JobStatus(c echo.Context) error {
	jobID := c.Param("jobId")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, proxyError{Status: "error", Message: "jobId is required"})
	}

	start := time.Now()
	resp, err := h.backend.JobStatus(c.Request().Context(), jobID)
	metrics.ProxyForwardDuration.WithLabelValues("job_status").Observe(time.Since(start).Seconds())

	if err != nil {
		return h.relayError(c, "job_status", err)
	}
	metrics.ProxyForwardsTotal.WithLabelValues("job_status", strconv.Itoa(resp.Status)).Inc()
	return c.Blob(resp.Status, resp.ContentType, resp.Body)
}

// PostGrades handles POST /canvas/post-grades/:jobId. Forwards the
// form-encoded grade-posting command. Long-running: the transport below is
// configured for multi-minute completion.
//
// @Summary      Post a finished job's grades to Canvas
// @Tags         jobs
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        jobId       path      string  true  "Backend job identifier"
// @Param        canvas_url  formData  string  true  "Canvas instance URL"
// @Param        api_key     formData  string  true  "Canvas API key"
// @Success      200         {object}  map[string]any
// @Failure      400         {object}  proxyError
// @Failure      500         {object}  proxyError
// @Router       /canvas/post-grades/{jobId} [post]
func (h *JobsHandler) PostGrades(c echo.Context) error {
	jobID := c.Param("jobId")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, proxyError{Status: "error", Message: "jobId is required"})
	}
	canvasURL := c.FormValue("canvas_url")
	if canvasURL == "" {
		return c.JSON(http.StatusBadRequest, proxyError{Status: "error", Message: "canvas_url is required"})
	}
	apiKey := c.FormValue("api_key")
	if apiKey == "" {
		return c.JSON(http.StatusBadRequest, proxyError{Status: "error", Message: "api_key is required"})
	}

	start := time.Now()
	resp, err := h.backend.PostGrades(c.Request().Context(), jobID, canvasURL, apiKey)
	metrics.ProxyForwardDuration.WithLabelValues("post_grades").Observe(time.Since(start).Seconds())

	if err != nil {
		return h.relayError(c, "post_grades", err)
	}
	metrics.ProxyForwardsTotal.WithLabelValues("post_grades", strconv.Itoa(resp.Status)).Inc()
	return c.Blob(resp.Status, resp.ContentType, resp.Body)
}

// MissingJobID answers the parameterless forms of the job routes with the
// same 400 the parameter check would produce.
func (h *JobsHandler) MissingJobID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, proxyError{Status: "error", Message: "jobId is required"})
}

// relayError maps a forward failure onto the client-facing contract: the
// backend's status and detail when it responded, a generic 500 otherwise.
func (h *JobsHandler) relayError(c echo.Context, route string, err error) error {
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		msg := ue.Detail
		if msg == "" {
			msg = "grading backend error"
		}
		metrics.ProxyForwardsTotal.WithLabelValues(route, strconv.Itoa(ue.Status)).Inc()
		return c.JSON(ue.Status, proxyError{Status: "error", Message: msg})
	}

	h.log.Error().Err(err).Str("route", route).Msg("backend unreachable")
	metrics.ProxyUpstreamErrorsTotal.WithLabelValues(route).Inc()
	return c.JSON(http.StatusInternalServerError, proxyError{Status: "error", Message: "failed to reach grading backend"})
}
