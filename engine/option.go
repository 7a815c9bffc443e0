package engine

import (
	"go.uber.org/zap"
)

type Option func(opts *options)

// 处理器配置选项
type options struct {
	Logger *zap.Logger // 日志
}

var defaultOptions = options{
	Logger: zap.NewNop(),
}

func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.Logger = logger
	}
}
