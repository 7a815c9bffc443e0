package normalize

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dszqbsm/rentmonitor/dataset"
	"github.com/dszqbsm/rentmonitor/listing"
	"github.com/dszqbsm/rentmonitor/storage"
)

type Option func(opts *options)

type options struct {
	logger *zap.Logger
}

var defaultOptions = options{
	logger: zap.NewNop(),
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// Stage 读取某一天的extracted文件，写出同一天的formatted文件
type Stage struct {
	store  storage.Store
	layout storage.Layout
	options
}

func NewStage(store storage.Store, layout storage.Layout, opts ...Option) *Stage {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Stage{store: store, layout: layout, options: options}
}

type Request struct {
	Date         string
	Pattern      string // extracted文件名前缀
	InputFormat  string
	OutputFormat string
}

type Report struct {
	Key     string
	Input   int
	Kept    int
	Dropped int
}

func (s *Stage) Run(ctx context.Context, req Request) (Report, error) {
	var report Report
	in, err := dataset.ParseFormat(req.InputFormat)
	if err != nil {
		return report, err
	}
	out, err := dataset.ParseFormat(req.OutputFormat)
	if err != nil {
		return report, err
	}
	if err := storage.ValidateDate(req.Date); err != nil {
		return report, err
	}

	src := s.layout.ExtractedKey(req.Date, req.Pattern, in.Ext())
	data, err := s.store.Get(ctx, src)
	if err != nil {
		return report, fmt.Errorf("read extracted: %w", err)
	}
	rows, err := dataset.Decode[listing.Listing](in, data)
	if err != nil {
		return report, fmt.Errorf("%s: %w", src, err)
	}

	kept := Apply(rows)
	encoded, err := dataset.Encode(out, kept)
	if err != nil {
		return report, err
	}
	report = Report{
		Key:     s.layout.FormattedKey(req.Date, out.Ext()),
		Input:   len(rows),
		Kept:    len(kept),
		Dropped: len(rows) - len(kept),
	}
	if err := s.store.Put(ctx, report.Key, encoded); err != nil {
		return report, fmt.Errorf("write formatted: %w", err)
	}
	s.logger.Info("records formatted",
		zap.String("date", req.Date),
		zap.String("key", report.Key),
		zap.Int("input", report.Input),
		zap.Int("kept", report.Kept),
		zap.Int("dropped", report.Dropped),
	)
	return report, nil
}
