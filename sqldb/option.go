package sqldb

// 函数式选项模式

import (
	"go.uber.org/zap"
)

type options struct {
	logger   *zap.Logger
	dialect  Dialect
	sqlUrl   string
	maxConns int
}

// 默认选项
var defaultOptions = options{
	logger:   zap.NewNop(),
	dialect:  MySQL,
	maxConns: 16,
}

type Option func(opts *options)

// 配置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func WithConnURL(sqlURL string) Option {
	return func(opts *options) {
		opts.sqlUrl = sqlURL
	}
}

// 配置数据库类型，决定驱动、占位符和列类型
func WithDialect(d Dialect) Option {
	return func(opts *options) {
		opts.dialect = d
	}
}

func WithMaxConns(n int) Option {
	return func(opts *options) {
		opts.maxConns = n
	}
}
