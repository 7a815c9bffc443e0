package aggregate

// 把所有日期的formatted文件拼接为curated层的历史数据集，每次全量重建

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/dszqbsm/rentmonitor/dataset"
	"github.com/dszqbsm/rentmonitor/listing"
	"github.com/dszqbsm/rentmonitor/storage"
)

var (
	ErrUnknownMode = errors.New("unknown aggregate mode")
	ErrNoSink      = errors.New("sql mode requires a sink")
)

// Mode 决定拼接结果的去向
type Mode string

const (
	ModeWrite  Mode = "write"  // 写出curated文件
	ModeReturn Mode = "return" // 只返回记录
	ModeSQL    Mode = "sql"    // 写出curated文件并同步到SQL表
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeWrite, ModeReturn, ModeSQL:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Sink 接收curated层的全部记录
type Sink interface {
	Reset() error
	Save(rows ...listing.Formatted) error
	Flush() error
}

type Option func(opts *options)

type options struct {
	logger *zap.Logger
	sink   Sink
}

var defaultOptions = options{
	logger: zap.NewNop(),
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithSink(sink Sink) Option {
	return func(opts *options) {
		opts.sink = sink
	}
}

type Aggregator struct {
	store  storage.Store
	layout storage.Layout
	format dataset.Format
	options
}

func New(store storage.Store, layout storage.Layout, format dataset.Format, opts ...Option) *Aggregator {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Aggregator{store: store, layout: layout, format: format, options: options}
}

type Result struct {
	Rows  []listing.Formatted
	Files []string // 按顺序读取的formatted文件
	Key   string   // 写出的curated文件，ModeReturn时为空
}

/*
输入输出模式，输出拼接后的历史数据集

按键名顺序读取formatted目录下全部formatted-*文件(各自按扩展名解码)并直接拼接，不跨日期去重：同一房源在不同日期各保留一行。
模式非法或sql模式没有配置sink时在任何I/O之前返回错误
*/
func (a *Aggregator) Run(ctx context.Context, mode Mode) (Result, error) {
	var res Result
	switch mode {
	case ModeWrite, ModeReturn:
	case ModeSQL:
		if a.sink == nil {
			return res, ErrNoSink
		}
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
	if _, err := dataset.ParseFormat(string(a.format)); err != nil {
		return res, err
	}

	keys, err := a.store.List(ctx, a.layout.FormattedPrefix())
	if err != nil {
		return res, fmt.Errorf("list formatted: %w", err)
	}
	for _, in := range formattedFiles(keys, a.format) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		data, err := a.store.Get(ctx, in.key)
		if err != nil {
			return res, fmt.Errorf("read formatted: %w", err)
		}
		rows, err := dataset.Decode[listing.Formatted](in.format, data)
		if err != nil {
			return res, fmt.Errorf("%s: %w", in.key, err)
		}
		res.Rows = append(res.Rows, rows...)
		res.Files = append(res.Files, in.key)
		a.logger.Debug("formatted file read", zap.String("key", in.key), zap.Int("rows", len(rows)))
	}

	if mode == ModeReturn {
		return res, nil
	}
	data, err := dataset.Encode(a.format, res.Rows)
	if err != nil {
		return res, err
	}
	res.Key = a.layout.CuratedKey(a.format.Ext())
	if err := a.store.Put(ctx, res.Key, data); err != nil {
		return res, fmt.Errorf("write curated: %w", err)
	}
	if mode == ModeSQL {
		if err := a.mirror(res.Rows); err != nil {
			return res, err
		}
	}
	a.logger.Info("curated dataset rebuilt",
		zap.String("key", res.Key),
		zap.Int("files", len(res.Files)),
		zap.Int("rows", len(res.Rows)),
	)
	return res, nil
}

func (a *Aggregator) mirror(rows []listing.Formatted) error {
	if err := a.sink.Reset(); err != nil {
		return err
	}
	if err := a.sink.Save(rows...); err != nil {
		return err
	}
	return a.sink.Flush()
}

type formattedFile struct {
	key    string
	format dataset.Format
}

/*
输入formatted目录下的键和curated输出格式，输出要读取的文件

每个文件按自己的扩展名解码，与输出格式无关；同一日期同时存在多种格式时只取一个，
优先与输出格式相同的那个。不是formatted-*或扩展名不支持的键被忽略，结果保持键名顺序
*/
func formattedFiles(keys []string, preferred dataset.Format) []formattedFile {
	var files []formattedFile
	byStem := make(map[string]int)
	for _, key := range keys {
		name := path.Base(key)
		if !strings.HasPrefix(name, "formatted-") {
			continue
		}
		ext := path.Ext(name)
		format, err := dataset.ParseFormat(ext)
		if err != nil {
			continue
		}
		stem := strings.TrimSuffix(key, ext)
		if i, ok := byStem[stem]; ok {
			if format == preferred {
				files[i] = formattedFile{key: key, format: format}
			}
			continue
		}
		byStem[stem] = len(files)
		files = append(files, formattedFile{key: key, format: format})
	}
	return files
}
