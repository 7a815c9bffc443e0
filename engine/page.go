package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dszqbsm/rentmonitor/dataset"
	"github.com/dszqbsm/rentmonitor/extract"
	"github.com/dszqbsm/rentmonitor/storage"
)

var ErrEmptyDocument = errors.New("empty document")

// FragmentError 记录单张卡片处理失败的原因，该卡片被跳过
type FragmentError struct {
	Index int
	Err   error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("fragment %d: %v", e.Index, e.Err)
}

func (e *FragmentError) Unwrap() error {
	return e.Err
}

// DocumentError 记录整页无法解析的原因，该页被跳过
type DocumentError struct {
	Key string
	Err error
}

func (e *DocumentError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("document: %v", e.Err)
	}
	return fmt.Sprintf("document %s: %v", e.Key, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// PageResult 是单页的处理结果
type PageResult struct {
	Fragments       int // 页面中的卡片数
	Added           int // 追加到累加器的记录数
	Duplicates      int // 因id重复跳过的卡片数
	FragmentErrors  []*FragmentError
	FieldFailures   int // 全部记录的字段失败数之和
	DeclaredResults int // 页面宣称的结果总数，找不到时为-1
}

// Engine 负责把原始页面转换为房源记录
type Engine struct {
	store     storage.Store
	layout    storage.Layout
	formatter *extract.Formatter
	cards     cascadia.Selector
	options
}

/*
输入存储、数据层路径和格式化器，输出处理器

卡片选择器在这里预编译，选择器非法时返回错误
*/
func New(store storage.Store, layout storage.Layout, formatter *extract.Formatter, opts ...Option) (*Engine, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	sel := formatter.Registry().Selectors().Card
	cards, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("compile card selector %q: %w", sel, err)
	}
	return &Engine{
		store:     store,
		layout:    layout,
		formatter: formatter,
		cards:     cards,
		options:   options,
	}, nil
}

// 根据页面前1024字节判断编码，转换为UTF-8后解析
func parseDocument(raw []byte) (*html.Node, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyDocument
	}
	r := bufio.NewReader(bytes.NewReader(raw))
	e := determineEncoding(r)
	doc, err := html.Parse(transform.NewReader(r, e.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func determineEncoding(r *bufio.Reader) encoding.Encoding {
	b, err := r.Peek(1024)
	if err != nil && len(b) == 0 {
		return unicode.UTF8
	}
	e, _, _ := charset.DetermineEncoding(b, "text/html")
	return e
}

/*
输入一页原始HTML和累加器，输出该页的处理结果

先只抽取id：id无法解析的卡片记为失败，本页已出现或累加器中已有的id直接跳过，不做格式化；
其余卡片格式化后追加。单张卡片出错(包括panic)不影响同页其他卡片
*/
func (e *Engine) ProcessPage(raw []byte, acc *dataset.Table) (PageResult, error) {
	res := PageResult{DeclaredResults: -1}
	root, err := parseDocument(raw)
	if err != nil {
		return res, &DocumentError{Err: err}
	}

	if expr := e.formatter.Registry().Selectors().ResultCount; expr != "" {
		if n, err := extract.ResultCount(root, expr); err == nil {
			res.DeclaredResults = n
		} else {
			e.Logger.Debug("declared result count unavailable", zap.Error(err))
		}
	}

	doc := goquery.NewDocumentFromNode(root)
	seen := make(map[int64]struct{})
	doc.FindMatcher(e.cards).Each(func(i int, card *goquery.Selection) {
		res.Fragments++
		if err := e.processFragment(card, acc, seen, &res); err != nil {
			fe := &FragmentError{Index: i, Err: err}
			res.FragmentErrors = append(res.FragmentErrors, fe)
			e.Logger.Warn("fragment skipped", zap.Int("index", i), zap.Error(err))
		}
	})

	e.Logger.Info("records added",
		zap.Int("fragments", res.Fragments),
		zap.Int("added", res.Added),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("fragment_errors", len(res.FragmentErrors)),
		zap.Int("field_failures", res.FieldFailures),
	)
	return res, nil
}

func (e *Engine) processFragment(card *goquery.Selection, acc *dataset.Table, seen map[int64]struct{}, res *PageResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fragment panic: %v", r)
		}
	}()

	id, err := e.formatter.FormatID(card)
	if err != nil {
		return err
	}
	if _, ok := seen[id]; ok || acc.Has(id) {
		res.Duplicates++
		return nil
	}
	formatted := e.formatter.Format(card)
	if !acc.Append(formatted.Listing) {
		res.Duplicates++
		return nil
	}
	seen[id] = struct{}{}
	res.Added++
	res.FieldFailures += len(formatted.Failures)
	return nil
}
