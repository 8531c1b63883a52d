package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	translateMaxResponseBytes = 256 * 1024
	translateMaxLen           = 500
	translateClientTimeout    = 5 * time.Second
	translateDefaultBudget    = 8 * time.Second
	translateConcurrency      = 4
	googleTranslateURL        = "https://translate.googleapis.com/translate_a/single"
	myMemoryURL               = "https://api.mymemory.translated.net/get"
)

// Translator 把英文标题翻译成中文：依次尝试 Google gtx → MyMemory，均失败则返回原文
type Translator struct {
	GoogleURL   string
	MyMemoryURL string
	Client      *http.Client
	// Budget 一次 TranslateAll 的总耗时上限，超时未完成的标题保留原文
	Budget time.Duration
	logger zerolog.Logger
}

func NewTranslator(budget time.Duration, logger zerolog.Logger) *Translator {
	if budget <= 0 {
		budget = translateDefaultBudget
	}
	return &Translator{
		GoogleURL:   googleTranslateURL,
		MyMemoryURL: myMemoryURL,
		Client:      &http.Client{Timeout: translateClientTimeout},
		Budget:      budget,
		logger:      logger,
	}
}

// TranslateAll 并发翻译一批标题，整体受 Budget 限制；返回切片与入参一一对应
func (t *Translator) TranslateAll(ctx context.Context, texts []string) []string {
	out := make([]string, len(texts))
	copy(out, texts)

	budget := t.Budget
	if budget <= 0 {
		budget = translateDefaultBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(translateConcurrency)
	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out[i] = t.Translate(gctx, text)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		t.logger.Debug().Dur("budget", budget).Int("titles", len(texts)).Msg("translate budget exhausted, keeping originals")
	}
	return out
}

func isMostlyChinese(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	var cjk, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isCJK(r) {
			cjk++
		}
	}
	if total == 0 {
		return true
	}
	return cjk >= 1 && (cjk*4 >= total || cjk >= 2)
}

func isCJK(r rune) bool {
	return (r >= 0x4e00 && r <= 0x9fff) ||
		(r >= 0x3400 && r <= 0x4dbf) ||
		(r >= 0x3000 && r <= 0x303f)
}

func sourceLangForMyMemory(s string) string {
	for _, r := range s {
		if r >= 0x3040 && r <= 0x309f || r >= 0x30a0 && r <= 0x30ff {
			return "ja"
		}
	}
	return "en"
}

// Translate 已是中文的文本原样返回
func (t *Translator) Translate(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" || isMostlyChinese(text) || ctx.Err() != nil {
		return text
	}
	if rs := []rune(text); len(rs) > translateMaxLen {
		text = string(rs[:translateMaxLen])
	}

	if out, err := t.viaGoogle(ctx, text); err == nil && out != "" {
		return out
	} else if err != nil {
		t.logger.Debug().Err(err).Msg("translate via google failed")
	}
	if out, err := t.viaMyMemory(ctx, text); err == nil && out != "" {
		return out
	} else if err != nil {
		t.logger.Debug().Err(err).Msg("translate via mymemory failed")
	}
	return text
}

func (t *Translator) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: translateClientTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, translateMaxResponseBytes))
}

// viaGoogle 使用 Google Translate 公开接口（client=gtx，无需密钥）
func (t *Translator) viaGoogle(ctx context.Context, text string) (string, error) {
	params := url.Values{
		"client": {"gtx"},
		"sl":     {"auto"},
		"tl":     {"zh-CN"},
		"dt":     {"t"},
		"q":      {text},
	}
	body, err := t.get(ctx, t.GoogleURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}

	// 响应格式: [[["翻译文本","原文",...],...],...]
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(raw) == 0 {
		return "", nil
	}
	outer, ok := raw[0].([]any)
	if !ok {
		return "", nil
	}
	var result strings.Builder
	for _, seg := range outer {
		pair, ok := seg.([]any)
		if !ok || len(pair) < 1 {
			continue
		}
		if s, ok := pair[0].(string); ok {
			result.WriteString(s)
		}
	}
	return strings.TrimSpace(result.String()), nil
}

func (t *Translator) viaMyMemory(ctx context.Context, text string) (string, error) {
	params := url.Values{
		"langpair": {sourceLangForMyMemory(text) + "|zh"},
		"q":        {text},
	}
	body, err := t.get(ctx, t.MyMemoryURL+"?"+params.Encode())
	if err != nil {
		return "", err
	}
	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return strings.TrimSpace(out.ResponseData.TranslatedText), nil
}
