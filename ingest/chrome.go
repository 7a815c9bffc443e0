package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer 驱动一个浏览器会话：打开结果页、读取渲染后的HTML、翻到下一页
type Renderer interface {
	Open(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	// Next 翻到下一页，没有下一页时返回错误
	Next(ctx context.Context) error
	Close() error
}

var errNotOpen = errors.New("renderer not open")

type ChromeOptions struct {
	Headless     bool
	ExecPath     string
	UserAgent    string
	NextSelector string        // 下一页按钮
	WaitSelector string        // 页面渲染完成的标志元素
	StepTimeout  time.Duration // 单次操作的超时
	ProxyServer  string        // 为空时直连
}

var DefaultChromeOptions = ChromeOptions{
	Headless:     true,
	UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	NextSelector: ".pagination__item:nth-child(9) > .js-change-page",
	WaitSelector: "article.property-card__container",
	StepTimeout:  60 * time.Second,
}

// ChromeRenderer 基于chromedp的Renderer
type ChromeRenderer struct {
	opts        ChromeOptions
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
}

func NewChromeRenderer(opts ChromeOptions) *ChromeRenderer {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultChromeOptions.StepTimeout
	}
	return &ChromeRenderer{opts: opts}
}

/*
输入结果页地址，启动浏览器并打开该页

窗口大小固定为1366x800，翻页按钮的位置依赖这个尺寸
*/
func (c *ChromeRenderer) Open(ctx context.Context, url string) error {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1366, 800),
	)
	if c.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(c.opts.UserAgent))
	}
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}
	if c.opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(c.opts.ProxyServer))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	c.ctx, c.cancelAlloc, c.cancelTab = tabCtx, cancelAlloc, cancelTab

	// 浏览器的生命周期绑定在第一次Run的ctx上，必须先在tabCtx上启动，不能用带超时的子ctx
	if err := chromedp.Run(tabCtx); err != nil {
		c.Close()
		return fmt.Errorf("start browser: %w", err)
	}
	actions := []chromedp.Action{chromedp.Navigate(url)}
	if c.opts.WaitSelector != "" {
		actions = append(actions, chromedp.WaitReady(c.opts.WaitSelector, chromedp.ByQuery))
	}
	if err := c.run(ctx, actions...); err != nil {
		c.Close()
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// 在浏览器上下文中执行操作，调用方的ctx取消时同样中止
func (c *ChromeRenderer) run(ctx context.Context, actions ...chromedp.Action) error {
	if c.ctx == nil {
		return errNotOpen
	}
	stepCtx, cancel := context.WithTimeout(c.ctx, c.opts.StepTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(stepCtx, actions...)
}

func (c *ChromeRenderer) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Next 滚动到分页栏并点击下一页按钮，按钮不存在或不可见时超时返回错误
func (c *ChromeRenderer) Next(ctx context.Context) error {
	actions := []chromedp.Action{
		chromedp.Evaluate(`window.scrollTo(0, 9800)`, nil),
		chromedp.Click(c.opts.NextSelector, chromedp.ByQuery, chromedp.NodeVisible),
	}
	if c.opts.WaitSelector != "" {
		actions = append(actions, chromedp.WaitReady(c.opts.WaitSelector, chromedp.ByQuery))
	}
	return c.run(ctx, actions...)
}

func (c *ChromeRenderer) Close() error {
	if c.cancelTab != nil {
		c.cancelTab()
	}
	if c.cancelAlloc != nil {
		c.cancelAlloc()
	}
	c.ctx, c.cancelTab, c.cancelAlloc = nil, nil, nil
	return nil
}
