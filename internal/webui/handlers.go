package webui

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkpost/internal/report"
)

type menuGroup struct {
	Category string
	Entries  []report.Entry
}

type pageData struct {
	Title   string
	Active  string
	Error   string
	Menu    []menuGroup
	Query   url.Values
	Options map[string][]string

	Summary *report.Summary
	Entry   *report.Entry
	Result  *report.Result
	Bars    []report.Bar
	Groups  []report.GroupBar
	Limit   int
}

// apiResult is a report.Result plus its chart series.
type apiResult struct {
	report.Result
	Series []report.Bar      `json:"bars,omitempty"`
	Groups []report.GroupBar `json:"violations_by_gender,omitempty"`
}

func (s *Server) page(c *gin.Context, title string) *pageData {
	cat := s.svc.Catalog()
	var menu []menuGroup
	for _, name := range cat.Categories() {
		g := menuGroup{Category: name}
		for _, e := range cat.Entries() {
			if e.Category == name {
				g.Entries = append(g.Entries, e)
			}
		}
		menu = append(menu, g)
	}
	return &pageData{Title: title, Menu: menu, Query: c.Request.URL.Query(), Limit: report.BrowseLimit}
}

// options loads the filter dropdowns. A failing column is logged and left
// empty so the page still renders.
func (s *Server) options(ctx context.Context) map[string][]string {
	out := make(map[string][]string, len(report.DistinctColumns))
	for _, col := range report.DistinctColumns {
		vals, err := s.svc.Distinct(ctx, col)
		if err != nil {
			s.log.Warn("filter options", zap.String("column", col), zap.Error(err))
			continue
		}
		out[col] = vals
	}
	return out
}

func (s *Server) failed(what string, err error) string {
	s.log.Warn("query failed", zap.String("what", what), zap.Error(err))
	return err.Error()
}

func (s *Server) handleIndex(c *gin.Context) {
	data := s.page(c, "Traffic stops")
	data.Active = "index"
	sum, err := s.svc.Summary(c.Request.Context())
	if err != nil {
		data.Error = s.failed("summary", err)
		c.HTML(pageStatus(err), "index.html", data)
		return
	}
	data.Summary = &sum
	c.HTML(http.StatusOK, "index.html", data)
}

func (s *Server) handleBrowse(c *gin.Context) {
	ctx := c.Request.Context()
	data := s.page(c, "Browse stops")
	data.Active = "browse"
	data.Options = s.options(ctx)

	f, err := report.ParseFilter(c.Query)
	if err != nil {
		data.Error = err.Error()
		c.HTML(http.StatusBadRequest, "browse.html", data)
		return
	}
	res, err := s.svc.Browse(ctx, f)
	if err != nil {
		data.Error = s.failed("browse", err)
		c.HTML(pageStatus(err), "browse.html", data)
		return
	}
	data.Result = &res
	data.Groups = res.ViolationsByGender()
	c.HTML(http.StatusOK, "browse.html", data)
}

func (s *Server) handleReport(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	data := s.page(c, "Report")
	data.Active = id

	e, ok := s.svc.Catalog().Lookup(id)
	if !ok {
		data.Error = "unknown report " + id
		c.HTML(http.StatusNotFound, "report.html", data)
		return
	}
	data.Title = e.Title
	data.Entry = &e
	data.Options = s.options(ctx)

	f, err := report.ParseFilter(c.Query)
	if err != nil {
		data.Error = err.Error()
		c.HTML(http.StatusBadRequest, "report.html", data)
		return
	}
	res, err := s.svc.Run(ctx, id, f)
	if err != nil {
		data.Error = s.failed(id, err)
		c.HTML(pageStatus(err), "report.html", data)
		return
	}
	data.Result = &res
	data.Bars = res.Bars()
	c.HTML(http.StatusOK, "report.html", data)
}

func (s *Server) handleAPIReports(c *gin.Context) {
	cat := s.svc.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"categories": cat.Categories(),
		"reports":    cat.Entries(),
	})
}

func (s *Server) handleAPIReport(c *gin.Context) {
	f, err := report.ParseFilter(c.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.svc.Run(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		c.JSON(apiStatus(err), gin.H{"error": s.failed(c.Param("id"), err)})
		return
	}
	c.JSON(http.StatusOK, apiResult{Result: res, Series: res.Bars()})
}

func (s *Server) handleAPIBrowse(c *gin.Context) {
	f, err := report.ParseFilter(c.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.svc.Browse(c.Request.Context(), f)
	if err != nil {
		c.JSON(apiStatus(err), gin.H{"error": s.failed("browse", err)})
		return
	}
	c.JSON(http.StatusOK, apiResult{Result: res, Groups: res.ViolationsByGender()})
}

func (s *Server) handleAPISummary(c *gin.Context) {
	sum, err := s.svc.Summary(c.Request.Context())
	if err != nil {
		c.JSON(apiStatus(err), gin.H{"error": s.failed("summary", err)})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) handleAPIOptions(c *gin.Context) {
	col := c.Param("column")
	vals, err := s.svc.Distinct(c.Request.Context(), col)
	if err != nil {
		c.JSON(apiStatus(err), gin.H{"error": s.failed("distinct "+col, err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"column": col, "values": vals})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.svc.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
