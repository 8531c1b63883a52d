package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/LJTian/LiveNewsBoard/internal/aggregator"
	"github.com/LJTian/LiveNewsBoard/internal/app"
	"go.uber.org/fx"
)

// 执行一次聚合并把结果以 JSON 打印到 stdout，适合手动检查各数据源状态
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var p *aggregator.Pipeline
	a := fx.New(app.Core(), fx.NopLogger, fx.Populate(&p))
	if err := a.Err(); err != nil {
		return fmt.Errorf("init failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}
	defer func() { _ = a.Stop(context.Background()) }()

	res, err := p.Aggregate(ctx)
	if err != nil {
		return fmt.Errorf("aggregate failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}
