package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/DjordjeVuckovic/perf-automation/internal/apperr"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/config"
	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ResultsReader interface {
	ReadResults(ctx context.Context) ([]*result.Result, error)
}

type ResultsRouter struct {
	e      *echo.Echo
	reader ResultsReader
}

func NewResultsRouter(e *echo.Echo, reader ResultsReader) *ResultsRouter {
	return &ResultsRouter{
		e:      e,
		reader: reader,
	}
}

func (r *ResultsRouter) Bind() {
	g := r.e.Group("/api/v1")
	g.GET("/results", r.listHandler)
	g.GET("/results/:id", r.getHandler)
	g.GET("/results/:id/stats", r.statsHandler)
	g.GET("/summary", r.summaryHandler)
}

// listHandler returns the recorded results, optionally narrowed by the
// service, test, language and run_id query parameters.
func (r *ResultsRouter) listHandler(c echo.Context) error {
	results, err := r.filtered(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}

func (r *ResultsRouter) getHandler(c echo.Context) error {
	res, err := r.find(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// statsHandler reports the throughput spread of one result's iterations.
func (r *ResultsRouter) statsHandler(c echo.Context) error {
	res, err := r.find(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.Stats())
}

func (r *ResultsRouter) find(c echo.Context) (*result.Result, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "id must be a UUID")
	}

	results, err := r.reader.ReadResults(c.Request().Context())
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.ID == id {
			return res, nil
		}
	}
	return nil, echo.NewHTTPError(http.StatusNotFound, "result not found")
}

func (r *ResultsRouter) summaryHandler(c echo.Context) error {
	results, err := r.filtered(c)
	if err != nil {
		return err
	}
	summaries := result.Summarize(results)
	if summaries == nil {
		summaries = []result.Summary{}
	}
	return c.JSON(http.StatusOK, summaries)
}

func (r *ResultsRouter) filtered(c echo.Context) ([]*result.Result, error) {
	f, err := parseFilter(c)
	if err != nil {
		return nil, err
	}

	results, err := r.reader.ReadResults(c.Request().Context())
	if err != nil {
		return nil, err
	}

	out := make([]*result.Result, 0, len(results))
	for _, res := range results {
		if f.matches(res) {
			out = append(out, res)
		}
	}
	return out, nil
}

type filter struct {
	service  string
	test     string
	language config.Language
	runID    uuid.UUID
}

func parseFilter(c echo.Context) (filter, error) {
	f := filter{
		service: c.QueryParam("service"),
		test:    c.QueryParam("test"),
	}
	if v := c.QueryParam("language"); v != "" {
		l, err := config.ParseLanguage(v)
		if err != nil {
			return f, apperr.NewConfigWrap("language", "invalid query parameter", err)
		}
		f.language = l
	}
	if v := c.QueryParam("run_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperr.NewConfigWrap("run_id", "invalid query parameter", err)
		}
		f.runID = id
	}
	return f, nil
}

func (f filter) matches(res *result.Result) bool {
	if f.service != "" && !strings.EqualFold(f.service, res.Service) {
		return false
	}
	if f.test != "" && !strings.EqualFold(f.test, res.Test) {
		return false
	}
	if f.language != "" && f.language != res.Language {
		return false
	}
	if f.runID != uuid.Nil && f.runID != res.RunID {
		return false
	}
	return true
}
