package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/LJTian/LiveNewsBoard/internal/collector"
	"github.com/LJTian/LiveNewsBoard/internal/fallback"
	"github.com/LJTian/LiveNewsBoard/internal/metrics"
	"github.com/LJTian/LiveNewsBoard/internal/quote"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrAggregationFailure 数据源之外的核心逻辑出错（兜底生成、分类等），调用方应渲染静态降级页
var ErrAggregationFailure = errors.New("aggregation failure")

// AggregationError 唯一会从 Aggregate 返回的错误类型
type AggregationError struct {
	Stage string
	Err   error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failure at %s: %v", e.Stage, e.Err)
}

func (e *AggregationError) Unwrap() []error {
	return []error{ErrAggregationFailure, e.Err}
}

// Normalizer 数据源边界之后的清洗步骤，返回的每条都必须有非空标题和确定的分类
type Normalizer interface {
	Process(ctx context.Context, items []collector.NewsItem) []collector.NewsItem
}

// Options 聚合参数
type Options struct {
	MinItems int
	MaxItems int
	// PerSourceQuota 单个数据源最多贡献的条数，0 表示不限
	PerSourceQuota  int
	IncludeHeadline bool
	// Parallel 并发请求所有数据源，结果仍按优先级顺序合并
	Parallel bool
	// MaxConcurrentFetches 并发模式下同时在途的请求数，0 表示不限
	MaxConcurrentFetches int
	Asset                string
	DefaultQuote         quote.PriceQuote
}

func (o Options) Validate() error {
	if o.MinItems < 1 {
		return fmt.Errorf("aggregator: min items must be >= 1, got %d", o.MinItems)
	}
	if o.MaxItems < o.MinItems {
		return fmt.Errorf("aggregator: max items (%d) must be >= min items (%d)", o.MaxItems, o.MinItems)
	}
	if o.PerSourceQuota < 0 {
		return fmt.Errorf("aggregator: per-source quota must be >= 0, got %d", o.PerSourceQuota)
	}
	if o.MaxConcurrentFetches < 0 {
		return fmt.Errorf("aggregator: max concurrent fetches must be >= 0, got %d", o.MaxConcurrentFetches)
	}
	if !o.DefaultQuote.Valid() {
		return fmt.Errorf("aggregator: invalid default quote %+v", o.DefaultQuote)
	}
	return nil
}

type SourceStatus string

const (
	StatusOK      SourceStatus = "ok"
	StatusEmpty   SourceStatus = "empty"
	StatusFailed  SourceStatus = "failed"
	StatusSkipped SourceStatus = "skipped"
	// StatusNotRun 顺序模式下结果已满，未调用该数据源
	StatusNotRun SourceStatus = "not_run"
)

// SourceReport 单个数据源在本次聚合中的诊断信息
type SourceReport struct {
	Name     string       `json:"name"`
	Priority int          `json:"priority"`
	Status   SourceStatus `json:"status"`
	Fetched  int          `json:"fetched"`
	Accepted int          `json:"accepted"`
	Error    string       `json:"error,omitempty"`
}

// Result 一次聚合的完整输出
type Result struct {
	Items         []collector.NewsItem `json:"items"`
	Quote         quote.PriceQuote     `json:"quote"`
	QuoteLive     bool                 `json:"quote_live"`
	Sources       []SourceReport       `json:"sources"`
	FallbackItems int                  `json:"fallback_items"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// CategoryCounts 面板统计栏使用，四个分类都有键
func (r Result) CategoryCounts() map[collector.Category]int {
	counts := make(map[collector.Category]int, len(collector.Categories))
	for _, c := range collector.Categories {
		counts[c] = 0
	}
	for _, it := range r.Items {
		counts[it.Category]++
	}
	return counts
}

// Pipeline 按优先级依次查询数据源、去重、限额、兜底补齐
type Pipeline struct {
	fetchers []collector.Fetcher
	quotes   quote.Provider
	proc     Normalizer
	opts     Options
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New quotes 可以为 nil，此时始终使用默认报价；m 可以为 nil
func New(fetchers []collector.Fetcher, quotes quote.Provider, proc Normalizer, opts Options, logger zerolog.Logger, m *metrics.Metrics) (*Pipeline, error) {
	if proc == nil {
		return nil, errors.New("aggregator: normalizer is required")
	}
	if opts.Asset == "" {
		opts.Asset = opts.DefaultQuote.Asset
	}
	if opts.Asset == "" {
		opts.Asset = quote.DefaultAsset
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	sorted := make([]collector.Fetcher, len(fetchers))
	copy(sorted, fetchers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	return &Pipeline{
		fetchers: sorted,
		quotes:   quotes,
		proc:     proc,
		opts:     opts,
		logger:   logger.With().Str("component", "aggregator").Logger(),
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Fetchers 按执行顺序返回数据源
func (p *Pipeline) Fetchers() []collector.Fetcher {
	out := make([]collector.Fetcher, len(p.fetchers))
	copy(out, p.fetchers)
	return out
}

// builder 本次聚合独占的工作列表
type builder struct {
	items []collector.NewsItem
	seen  map[string]struct{}
}

func (b *builder) add(it collector.NewsItem) bool {
	if _, ok := b.seen[it.Title]; ok {
		return false
	}
	b.seen[it.Title] = struct{}{}
	b.items = append(b.items, it)
	return true
}

type fetchOutcome struct {
	items []collector.NewsItem
	err   error
}

// Aggregate 数据源的失败只会降级，不会返回错误；只有 *AggregationError 会被返回
func (p *Pipeline) Aggregate(ctx context.Context) (res Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = &AggregationError{Stage: "core", Err: fmt.Errorf("panic: %v", r)}
		}
		p.metrics.RecordAggregation(time.Since(start).Seconds(), err != nil)
		if err != nil {
			p.logger.Error().Err(err).Msg("aggregation failed")
		}
	}()

	q, live := p.quote(ctx)
	res.Quote = q
	res.QuoteLive = live
	res.GeneratedAt = p.now()

	headlineSlots := 0
	var headline collector.NewsItem
	b := &builder{seen: make(map[string]struct{})}
	if p.opts.IncludeHeadline {
		headline, err = fallback.Headline(q)
		if err != nil {
			return Result{}, &AggregationError{Stage: "headline", Err: err}
		}
		// 头条固定在第一位，标题相同的数据源条目让位
		b.seen[headline.Title] = struct{}{}
		headlineSlots = 1
	}
	liveCap := p.opts.MaxItems - headlineSlots

	res.Sources = p.collect(ctx, b, liveCap)

	if len(b.items)+headlineSlots < p.opts.MinItems {
		fb, err := fallback.Generate(q)
		if err != nil {
			return Result{}, &AggregationError{Stage: "fallback", Err: err}
		}
		for _, it := range fb {
			if len(b.items)+headlineSlots >= p.opts.MinItems {
				break
			}
			if b.add(it) {
				res.FallbackItems++
			}
		}
		p.metrics.RecordFallback(res.FallbackItems)
		p.logger.Info().
			Int("live", len(b.items)-res.FallbackItems).
			Int("fallback", res.FallbackItems).
			Msg("live sources insufficient, backfilled with fallback items")
	}

	items := b.items
	if p.opts.IncludeHeadline {
		items = append([]collector.NewsItem{headline}, items...)
	}
	if len(items) > p.opts.MaxItems {
		items = items[:p.opts.MaxItems]
	}
	res.Items = items
	return res, nil
}

func (p *Pipeline) quote(ctx context.Context) (quote.PriceQuote, bool) {
	if p.quotes != nil {
		q, err := p.quotes.GetQuote(ctx, p.opts.Asset)
		if err == nil && q.Valid() {
			return q, true
		}
		if err == nil {
			err = fmt.Errorf("%w: invalid quote %+v", quote.ErrQuoteUnavailable, q)
		}
		p.logger.Warn().Err(err).Str("asset", p.opts.Asset).Msg("price fetch failed, using default quote")
	}
	p.metrics.RecordQuoteDefault()
	return p.opts.DefaultQuote, false
}

func (p *Pipeline) fetchLimit(liveCap int) int {
	if p.opts.PerSourceQuota > 0 {
		return p.opts.PerSourceQuota
	}
	return max(liveCap, 1)
}

func (p *Pipeline) collect(ctx context.Context, b *builder, liveCap int) []SourceReport {
	reports := make([]SourceReport, len(p.fetchers))
	for i, f := range p.fetchers {
		reports[i] = SourceReport{Name: f.Name(), Priority: f.Priority(), Status: StatusNotRun}
	}
	if liveCap <= 0 {
		return reports
	}
	limit := p.fetchLimit(liveCap)

	if p.opts.Parallel {
		outcomes := make([]fetchOutcome, len(p.fetchers))
		var g errgroup.Group
		if p.opts.MaxConcurrentFetches > 0 {
			g.SetLimit(p.opts.MaxConcurrentFetches)
		}
		for i, f := range p.fetchers {
			g.Go(func() error {
				items, err := safeFetch(ctx, f, limit)
				outcomes[i] = fetchOutcome{items: items, err: err}
				return nil
			})
		}
		// 各数据源的错误记录在 outcome 里，Wait 只用于等待
		_ = g.Wait()

		// 按优先级而不是完成顺序合并；每个数据源都已调用过，结果满了也要记录状态
		for i, f := range p.fetchers {
			p.accept(ctx, f, outcomes[i], b, liveCap, &reports[i])
		}
		return reports
	}

	for i, f := range p.fetchers {
		if len(b.items) >= liveCap {
			break
		}
		items, err := safeFetch(ctx, f, limit)
		p.accept(ctx, f, fetchOutcome{items: items, err: err}, b, liveCap, &reports[i])
	}
	return reports
}

// safeFetch 数据源内部的 panic 也按不可用处理
func safeFetch(ctx context.Context, f collector.Fetcher, limit int) (items []collector.NewsItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = &collector.SourceError{Source: f.Name(), Kind: collector.ErrSourceUnavailable, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return f.Fetch(ctx, limit)
}

func (p *Pipeline) accept(ctx context.Context, f collector.Fetcher, out fetchOutcome, b *builder, liveCap int, rep *SourceReport) {
	name := f.Name()
	log := p.logger.With().Str("source", name).Logger()

	if out.err != nil {
		rep.Error = out.err.Error()
		if errors.Is(out.err, collector.ErrCredentialMissing) {
			rep.Status = StatusSkipped
			log.Debug().Msg("source skipped: credential missing")
		} else {
			rep.Status = StatusFailed
			log.Warn().Err(out.err).Msg("source unavailable")
		}
		p.metrics.RecordSource(name, string(rep.Status), 0)
		return
	}

	rep.Fetched = len(out.items)
	if len(out.items) == 0 {
		rep.Status = StatusEmpty
		log.Debug().Msg("source returned no items")
		p.metrics.RecordSource(name, string(rep.Status), 0)
		return
	}
	if len(b.items) >= liveCap {
		rep.Status = StatusOK
		log.Debug().Int("fetched", rep.Fetched).Msg("live list full, items discarded")
		p.metrics.RecordSource(name, string(rep.Status), 0)
		return
	}

	for _, it := range p.proc.Process(ctx, out.items) {
		if p.opts.PerSourceQuota > 0 && rep.Accepted >= p.opts.PerSourceQuota {
			break
		}
		if len(b.items) >= liveCap {
			break
		}
		if it.Source == "" {
			it.Source = name
		}
		if b.add(it) {
			rep.Accepted++
		}
	}
	rep.Status = StatusOK
	log.Debug().Int("fetched", rep.Fetched).Int("accepted", rep.Accepted).Msg("source done")
	p.metrics.RecordSource(name, string(rep.Status), rep.Accepted)
}
