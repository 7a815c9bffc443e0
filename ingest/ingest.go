package ingest

// 驱动浏览器逐页渲染结果页，把渲染后的HTML写入raw层

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dszqbsm/rentmonitor/limiter"
	"github.com/dszqbsm/rentmonitor/storage"
)

var (
	ErrConflictingFlags = errors.New("all and max pages are mutually exclusive")
	ErrNoPageLimit      = errors.New("either all or max pages must be set")
)

type Option func(opts *options)

type options struct {
	logger *zap.Logger
	pacer  limiter.RateLimiter
}

var defaultOptions = options{
	logger: zap.NewNop(),
	pacer:  limiter.Pacer(0, 0),
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithPacer 控制翻页节奏
func WithPacer(pacer limiter.RateLimiter) Option {
	return func(opts *options) {
		opts.pacer = pacer
	}
}

type Ingestor struct {
	renderer Renderer
	store    storage.Store
	layout   storage.Layout
	endpoint string
	options
}

func New(renderer Renderer, store storage.Store, layout storage.Layout, endpoint string, opts ...Option) *Ingestor {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Ingestor{
		renderer: renderer,
		store:    store,
		layout:   layout,
		endpoint: endpoint,
		options:  options,
	}
}

type Request struct {
	Date     string
	Pattern  string
	MaxPages int  // 最多采集的页数
	All      bool // 一直翻页直到没有下一页
}

type Report struct {
	Pages int
	Keys  []string
}

func (r Request) validate() error {
	if r.All && r.MaxPages > 0 {
		return ErrConflictingFlags
	}
	if !r.All && r.MaxPages <= 0 {
		return ErrNoPageLimit
	}
	if r.Pattern == "" {
		return errors.New("empty file pattern")
	}
	return storage.ValidateDate(r.Date)
}

/*
输入采集请求，输出写入的原始页面

每页渲染后写入 raw/{source}/{city}/{date}/{pattern}-{page}.html，页码从1开始；
翻页失败视为已到最后一页，正常结束。读取或写入失败时返回已完成的部分和错误
*/
func (i *Ingestor) Run(ctx context.Context, req Request) (Report, error) {
	var report Report
	if err := req.validate(); err != nil {
		return report, err
	}
	if err := i.renderer.Open(ctx, i.endpoint); err != nil {
		return report, err
	}
	defer i.renderer.Close()

	for page := 1; ; page++ {
		html, err := i.renderer.HTML(ctx)
		if err != nil {
			return report, fmt.Errorf("render page %d: %w", page, err)
		}
		key := i.layout.RawKey(req.Date, req.Pattern, page)
		if err := i.store.Put(ctx, key, []byte(html)); err != nil {
			return report, fmt.Errorf("write page %d: %w", page, err)
		}
		report.Pages++
		report.Keys = append(report.Keys, key)
		i.logger.Info("page ingested", zap.Int("page", page), zap.String("key", key), zap.Int("bytes", len(html)))

		if !req.All && page >= req.MaxPages {
			break
		}
		if err := i.pacer.Wait(ctx); err != nil {
			return report, err
		}
		if err := i.renderer.Next(ctx); err != nil {
			i.logger.Info("no next page", zap.Int("page", page), zap.Error(err))
			break
		}
	}
	return report, nil
}
