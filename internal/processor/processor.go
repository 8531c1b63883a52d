package processor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/LiveNewsBoard/internal/classifier"
	"github.com/LJTian/LiveNewsBoard/internal/collector"
)

// Processor 在数据源边界之后做统一清洗：标题规整、分类、图标、展示时间、可选翻译
type Processor struct {
	classifier *classifier.Classifier
	translator *Translator
	now        func() time.Time
}

// NewProcessor translator 为 nil 时不翻译
func NewProcessor(c *classifier.Classifier, t *Translator) *Processor {
	return &Processor{classifier: c, translator: t, now: time.Now}
}

// Process 返回的每一条都有非空标题和已确定的分类
func (p *Processor) Process(ctx context.Context, items []collector.NewsItem) []collector.NewsItem {
	out := make([]collector.NewsItem, 0, len(items))
	now := p.now()

	for _, it := range items {
		it.Title = strings.Join(strings.Fields(it.Title), " ")
		if it.Title == "" {
			continue
		}
		// 先按原文分类，英文关键词在翻译后会丢失
		if !it.Category.Valid() {
			it.Category = p.classifier.Classify(it.Title)
		}
		if it.Icon == "" {
			it.Icon = it.Category.Icon()
		}
		if it.DisplayTime == "" {
			it.DisplayTime = DisplayTime(it.PublishedAt, now)
		}
		out = append(out, it)
	}

	if p.translator != nil && len(out) > 0 {
		titles := make([]string, len(out))
		for i := range out {
			titles[i] = out[i].Title
		}
		for i, title := range p.translator.TranslateAll(ctx, titles) {
			out[i].Title = title
		}
	}
	return out
}

// DisplayTime 生成相对时间文案；没有发布时间时显示“实时”
func DisplayTime(published, now time.Time) string {
	if published.IsZero() {
		return "实时"
	}
	d := now.Sub(published)
	switch {
	case d < time.Minute:
		return "刚刚"
	case d < time.Hour:
		return strconv.Itoa(int(d/time.Minute)) + "分钟前"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d/time.Hour)) + "小时前"
	default:
		return strconv.Itoa(int(d/(24*time.Hour))) + "天前"
	}
}
