package sqlstorage

// 用于配置sql存储相关的选项

import (
	"go.uber.org/zap"
)

type options struct {
	logger     *zap.Logger
	table      string
	BatchCount int // 批量数
}

// 默认选项
var defaultOptions = options{
	logger:     zap.NewNop(),
	table:      "listings_history",
	BatchCount: 500,
}

type Option func(opts *options)

// 配置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// 配置写入的表名
func WithTable(table string) Option {
	return func(opts *options) {
		opts.table = table
	}
}

// 配置批量处理的数量
func WithBatchCount(batchCount int) Option {
	return func(opts *options) {
		opts.BatchCount = batchCount
	}
}
