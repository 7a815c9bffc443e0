package log

import (
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Plugin = zapcore.Core

// 由Plugin创建日志器，附加默认选项
func NewLogger(plugin zapcore.Core, options ...zap.Option) *zap.Logger {
	return zap.New(plugin, append(DefaultOption(), options...)...)
}

func NewPlugin(writer zapcore.WriteSyncer, enabler zapcore.LevelEnabler) Plugin {
	return zapcore.NewCore(DefaultEncoder(), writer, enabler)
}

// 输出到标准输出的Plugin
func NewStdoutPlugin(enabler zapcore.LevelEnabler) Plugin {
	return NewPlugin(zapcore.Lock(zapcore.AddSync(os.Stdout)), enabler)
}

// Lumberjack没有暴露sync方法，额外返回closer，进程退出前需要close以保证内容刷到磁盘
func NewFilePlugin(filePath string, enabler zapcore.LevelEnabler) (Plugin, io.Closer) {
	var writer = DefaultLumberjackLogger()
	writer.Filename = filePath
	return NewPlugin(zapcore.AddSync(writer), enabler), writer
}

type Options struct {
	Level zapcore.Level
	File  string // 非空时同时写入轮转文件
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

/*
输入日志选项，输出日志器和closer

标准输出始终启用，配置了文件时把两个Plugin合并为一个
*/
func New(opts Options) (*zap.Logger, io.Closer) {
	plugins := []Plugin{NewStdoutPlugin(opts.Level)}
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		p, c := NewFilePlugin(opts.File, opts.Level)
		plugins = append(plugins, p)
		closer = c
	}
	return NewLogger(zapcore.NewTee(plugins...)), closer
}

// WithRunID 给一次运行的全部日志加上run_id，返回带字段的日志器和该id
func WithRunID(logger *zap.Logger) (*zap.Logger, string) {
	id := uuid.NewString()
	return logger.With(zap.String("run_id", id)), id
}
