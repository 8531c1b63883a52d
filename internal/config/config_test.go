package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	t.Setenv(key, "")
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestTypedHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_BAD_INT", "twelve")
	t.Setenv("TEST_FLOAT", "64000.5")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_DUR", "1m30s")
	t.Setenv("TEST_DUR_SECONDS", "45")
	t.Setenv("TEST_LIST", " https://a.example/rss , ,https://b.example/rss")

	if got := getEnvInt("TEST_INT", 1); got != 12 {
		t.Fatalf("getEnvInt = %d, want 12", got)
	}
	// 解析失败回退默认值
	if got := getEnvInt("TEST_BAD_INT", 1); got != 1 {
		t.Fatalf("getEnvInt(bad) = %d, want 1", got)
	}
	if got := getEnvFloat("TEST_FLOAT", 0); got != 64000.5 {
		t.Fatalf("getEnvFloat = %v, want 64000.5", got)
	}
	if getEnvBool("TEST_BOOL", true) {
		t.Fatalf("getEnvBool(TEST_BOOL) = true, want false")
	}
	if !getEnvBool("TEST_MISSING_BOOL", true) {
		t.Fatalf("getEnvBool(missing) should return default true")
	}
	if got := getEnvDuration("TEST_DUR", 0); got != 90*time.Second {
		t.Fatalf("getEnvDuration = %s, want 1m30s", got)
	}
	if got := getEnvDuration("TEST_DUR_SECONDS", 0); got != 45*time.Second {
		t.Fatalf("getEnvDuration(seconds) = %s, want 45s", got)
	}
	want := []string{"https://a.example/rss", "https://b.example/rss"}
	if got := getEnvList("TEST_LIST", nil); !reflect.DeepEqual(got, want) {
		t.Fatalf("getEnvList = %v, want %v", got, want)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "MIN_ITEMS", "MAX_ITEMS", "REDIS_ADDR", "DEFAULT_PRICE", "PER_SOURCE_QUOTA", "FETCH_CONCURRENCY"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.AppPort != "9000" {
		t.Fatalf("AppPort = %q, want 9000", cfg.AppPort)
	}
	if cfg.MinItems != 6 || cfg.MaxItems != 8 {
		t.Fatalf("MinItems/MaxItems = %d/%d, want 6/8", cfg.MinItems, cfg.MaxItems)
	}
	if cfg.DefaultPrice != 118590 {
		t.Fatalf("DefaultPrice = %v, want 118590", cfg.DefaultPrice)
	}
	if cfg.PerSourceQuota != 4 || cfg.FetchConcurrency != 4 {
		t.Fatalf("PerSourceQuota/FetchConcurrency = %d/%d, want 4/4", cfg.PerSourceQuota, cfg.FetchConcurrency)
	}
	if cfg.CacheEnabled() {
		t.Fatalf("cache should be disabled without REDIS_ADDR")
	}
	if !cfg.IncludeHeadline {
		t.Fatalf("IncludeHeadline should default to true")
	}
}

func TestFromEnvReadsOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("MIN_ITEMS", "3")
	t.Setenv("MAX_ITEMS", "12")
	t.Setenv("RSS_FEEDS", "https://feeds.example/a.xml")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.AppPort != "1234" {
		t.Fatalf("AppPort = %q, want 1234", cfg.AppPort)
	}
	if !cfg.CacheEnabled() {
		t.Fatalf("cache should be enabled with REDIS_ADDR set")
	}
	if cfg.MinItems != 3 || cfg.MaxItems != 12 {
		t.Fatalf("MinItems/MaxItems = %d/%d, want 3/12", cfg.MinItems, cfg.MaxItems)
	}
	if len(cfg.RSSFeeds) != 1 || cfg.RSSFeeds[0] != "https://feeds.example/a.xml" {
		t.Fatalf("RSSFeeds = %v", cfg.RSSFeeds)
	}
}

func TestValidateRejectsBadBounds(t *testing.T) {
	cases := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"MIN_ITEMS": "9", "MAX_ITEMS": "8"}, "MAX_ITEMS"},
		{map[string]string{"DEFAULT_PRICE": "-1"}, "DEFAULT_PRICE"},
		{map[string]string{"FETCH_CONCURRENCY": "-2"}, "FETCH_CONCURRENCY"},
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			for k, v := range c.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			if err == nil {
				t.Fatalf("FromEnv with %v should fail", c.env)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Fatalf("error %q should mention %s", err, c.want)
			}
		})
	}
}
