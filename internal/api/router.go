package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
	"github.com/LJTian/NewsSpectrum/internal/model"
	"github.com/LJTian/NewsSpectrum/internal/scheduler"
	"github.com/LJTian/NewsSpectrum/internal/storage"
)

// NewsLister *storage.Store 实现了它
type NewsLister interface {
	ListNews(ctx context.Context, q storage.Query) ([]model.NewsItem, error)
}

// CycleRunner *scheduler.Orchestrator 实现了它
type CycleRunner interface {
	Run(ctx context.Context, category model.Category) (*scheduler.CycleReport, error)
	State() scheduler.State
	Last() *scheduler.CycleReport
}

// maxLimit 与存储层的上限一致
const maxLimit = 500

type Server struct {
	news    NewsLister
	cycles  CycleRunner
	catalog *catalog.Catalog
	enabled func(id string) bool
	log     *zap.Logger

	// 异步触发的采集使用的上下文，进程退出时取消
	baseCtx context.Context
}

// NewServer enabled 为 nil 时视全部来源为启用
func NewServer(ctx context.Context, news NewsLister, cycles CycleRunner, cat *catalog.Catalog, enabled func(string) bool, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if enabled == nil {
		enabled = func(string) bool { return true }
	}
	return &Server{news: news, cycles: cycles, catalog: cat, enabled: enabled, log: log, baseCtx: ctx}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.listNews)
		v1.GET("/sources", s.listSources)
		v1.GET("/sources/:id", s.getSource)
		v1.POST("/fetch", s.triggerFetch)
		v1.GET("/fetch/last", s.lastFetch)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": msg,
	})
}

func parseCategory(c *gin.Context) (model.Category, bool) {
	cat, valid := model.ParseCategory(c.Query("category"))
	if !valid {
		fail(c, http.StatusBadRequest, "invalid_category", "unknown category")
	}
	return cat, valid
}

func (s *Server) listNews(c *gin.Context) {
	cat, valid := parseCategory(c)
	if !valid {
		return
	}

	var bias model.Bias
	if raw := c.Query("bias"); raw != "" {
		bias = model.ParseBias(raw)
		if bias == model.BiasUnclear && raw != string(model.BiasUnclear) {
			fail(c, http.StatusBadRequest, "invalid_bias", "unknown bias")
			return
		}
	}

	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			fail(c, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	switch {
	case err != nil || limit <= 0:
		limit = 50
	case limit > maxLimit:
		limit = maxLimit
	}

	items, err := s.news.ListNews(c.Request.Context(), storage.Query{
		Category: cat,
		Bias:     bias,
		Source:   c.Query("source"),
		Date:     date,
		Limit:    limit,
	})
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	ok(c, http.StatusOK, items)
}

type sourceView struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Kind     model.SourceKind `json:"kind"`
	Category model.Category   `json:"category"`
	Bias     model.Bias       `json:"bias"`
	Enabled  bool             `json:"enabled"`
}

func (s *Server) listSources(c *gin.Context) {
	cat, valid := parseCategory(c)
	if !valid {
		return
	}
	srcs := s.catalog.ForCategory(cat)
	out := make([]sourceView, 0, len(srcs))
	for _, src := range srcs {
		out = append(out, s.view(src))
	}
	ok(c, http.StatusOK, out)
}

func (s *Server) getSource(c *gin.Context) {
	src, found := s.catalog.ByID(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, "not_found", "unknown source")
		return
	}
	ok(c, http.StatusOK, s.view(src))
}

func (s *Server) view(src catalog.Source) sourceView {
	return sourceView{
		ID:       src.ID,
		Name:     src.Name,
		Kind:     src.Kind,
		Category: src.Category,
		Bias:     src.Bias,
		Enabled:  s.enabled(src.ID),
	}
}

// triggerFetch 默认异步启动一轮采集并返回 202；wait=true 时同步执行并返回报告
func (s *Server) triggerFetch(c *gin.Context) {
	cat, valid := parseCategory(c)
	if !valid {
		return
	}
	if s.cycles.State() == scheduler.StateRunning {
		fail(c, http.StatusConflict, "cycle_running", scheduler.ErrCycleRunning.Error())
		return
	}

	if c.Query("wait") == "true" {
		rep, err := s.cycles.Run(c.Request.Context(), cat)
		if errors.Is(err, scheduler.ErrCycleRunning) {
			fail(c, http.StatusConflict, "cycle_running", err.Error())
			return
		}
		if err != nil {
			_ = c.Error(err)
			fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		ok(c, http.StatusOK, rep)
		return
	}

	go func() {
		if _, err := s.cycles.Run(s.baseCtx, cat); err != nil {
			s.log.Warn("manual fetch cycle not run", zap.String("category", string(cat)), zap.Error(err))
		}
	}()
	ok(c, http.StatusAccepted, gin.H{"state": scheduler.StateRunning, "category": cat})
}

func (s *Server) lastFetch(c *gin.Context) {
	rep := s.cycles.Last()
	if rep == nil {
		fail(c, http.StatusNotFound, "not_found", "no fetch cycle has completed yet")
		return
	}
	ok(c, http.StatusOK, gin.H{"state": s.cycles.State(), "report": rep})
}
