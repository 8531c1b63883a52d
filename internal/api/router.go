package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/LJTian/LiveNewsBoard/internal/aggregator"
	"github.com/LJTian/LiveNewsBoard/internal/collector"
	"github.com/LJTian/LiveNewsBoard/internal/fallback"
	"github.com/LJTian/LiveNewsBoard/web"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const pageTitle = "🎯 实时财经新闻播报 - 直播专用"

// Aggregator 每个页面/接口请求执行一次聚合
type Aggregator interface {
	Aggregate(ctx context.Context) (aggregator.Result, error)
}

type Server struct {
	agg            Aggregator
	gatherer       prometheus.Gatherer
	refreshSeconds int
	logger         zerolog.Logger
}

// NewServer gatherer 为 nil 时使用默认注册表
func NewServer(agg Aggregator, gatherer prometheus.Gatherer, refreshSeconds int, logger zerolog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		agg:            agg,
		gatherer:       gatherer,
		refreshSeconds: refreshSeconds,
		logger:         logger.With().Str("component", "api").Logger(),
	}
}

// NewEngine 创建带中间件、模板和全部路由的 gin 引擎
func NewEngine(s *Server, mode string) (*gin.Engine, error) {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(RequestID(), AccessLog(s.logger), gin.Recovery())

	tmpl, err := web.Templates(nil)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	s.RegisterRoutes(r)
	return r, nil
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/", s.dashboard)
	r.GET("/ticker", s.ticker)
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	r.StaticFS("/static", web.Static())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.listNews)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type categoryCount struct {
	Category collector.Category
	Label    string
	Icon     string
	Count    int
}

// pageData 模板使用的视图模型
type pageData struct {
	Title          string
	RefreshSeconds int
	GeneratedAt    string

	aggregator.Result
	PriceText  string
	ChangeText string
	Up         bool

	Total  int
	Counts []categoryCount
}

func (s *Server) newPageData(res aggregator.Result) pageData {
	counts := res.CategoryCounts()
	cc := make([]categoryCount, 0, len(collector.Categories))
	for _, c := range collector.Categories {
		if c == collector.CategoryOther {
			continue
		}
		cc = append(cc, categoryCount{Category: c, Label: c.Label(), Icon: c.Icon(), Count: counts[c]})
	}
	return pageData{
		Title:          pageTitle,
		RefreshSeconds: s.refreshSeconds,
		GeneratedAt:    res.GeneratedAt.Format("2006-01-02 15:04:05"),
		Result:         res,
		PriceText:      fallback.FormatPrice(res.Quote.Price),
		ChangeText:     fallback.FormatChange(res.Quote.Change24hPercent),
		Up:             res.Quote.Change24hPercent >= 0,
		Total:          len(res.Items),
		Counts:         cc,
	}
}

func (s *Server) dashboard(c *gin.Context) {
	s.renderPage(c, "dashboard.html")
}

func (s *Server) ticker(c *gin.Context) {
	s.renderPage(c, "ticker.html")
}

// renderPage 聚合失败时返回静态降级页，状态码仍为 200，直播画面不出现错误页
func (s *Server) renderPage(c *gin.Context, name string) {
	res, err := s.agg.Aggregate(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("render degraded page")
		c.HTML(http.StatusOK, "degraded.html", pageData{Title: pageTitle, RefreshSeconds: s.refreshSeconds})
		return
	}
	c.HTML(http.StatusOK, name, s.newPageData(res))
}

func (s *Server) listNews(c *gin.Context) {
	res, err := s.agg.Aggregate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "aggregation_failed",
			"message": "news aggregation failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data": gin.H{
			"items":          res.Items,
			"quote":          res.Quote,
			"quote_live":     res.QuoteLive,
			"counts":         res.CategoryCounts(),
			"sources":        res.Sources,
			"fallback_items": res.FallbackItems,
			"generated_at":   res.GeneratedAt,
		},
	})
}
