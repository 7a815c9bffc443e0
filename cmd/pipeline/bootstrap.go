package pipeline

// 各子命令共用的初始化：加载配置、创建日志器和存储、组装各阶段

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dszqbsm/rentmonitor/aggregate"
	"github.com/dszqbsm/rentmonitor/config"
	"github.com/dszqbsm/rentmonitor/dataset"
	"github.com/dszqbsm/rentmonitor/engine"
	"github.com/dszqbsm/rentmonitor/extract"
	"github.com/dszqbsm/rentmonitor/ingest"
	"github.com/dszqbsm/rentmonitor/limiter"
	"github.com/dszqbsm/rentmonitor/log"
	"github.com/dszqbsm/rentmonitor/normalize"
	"github.com/dszqbsm/rentmonitor/proxy"
	"github.com/dszqbsm/rentmonitor/sqldb"
	"github.com/dszqbsm/rentmonitor/sqlstorage"
	"github.com/dszqbsm/rentmonitor/storage"
	"github.com/dszqbsm/rentmonitor/storage/s3store"
	"github.com/dszqbsm/rentmonitor/version"
)

const ConfigFlag = "config"

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	runID  string
	closer io.Closer
	store  storage.Store
	layout storage.Layout
}

/*
输入当前子命令，输出初始化好的运行环境

配置在这里完成校验，任何存储I/O都发生在校验之后；每次运行的日志都带有同一个run_id
*/
func newApp(ctx context.Context, c *cobra.Command) (*app, error) {
	path, err := c.Root().PersistentFlags().GetString(ConfigFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, closer := log.New(log.Options{Level: cfg.LogLevel(), File: cfg.Log.File})
	logger, runID := log.WithRunID(logger.With(zap.String("command", c.Name())))
	logger.Info("log init end", zap.String("config", path), zap.String("version", version.GetVersion()))

	a := &app{
		cfg:    cfg,
		logger: logger,
		runID:  runID,
		closer: closer,
		layout: storage.Layout{Root: cfg.Storage.Root, Source: cfg.Source, City: cfg.City},
	}
	switch cfg.Storage.Driver {
	case "s3":
		a.store, err = s3store.New(ctx, s3store.Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Endpoint:        cfg.Storage.Endpoint,
		}, logger.Named("s3"))
		if err != nil {
			a.close()
			return nil, err
		}
	case "memory":
		a.store = storage.NewMemory()
	default:
		a.store = storage.NewDir(cfg.Storage.Dir)
	}
	logger.Debug("storage ready", zap.String("driver", cfg.Storage.Driver))
	return a, nil
}

func (a *app) close() {
	a.logger.Sync()
	a.closer.Close()
}

func (a *app) ingestor(headless bool) (*ingest.Ingestor, error) {
	opts := ingest.DefaultChromeOptions
	opts.Headless = headless
	opts.ExecPath = a.cfg.Ingest.ChromePath
	opts.WaitSelector = a.cfg.Extract.Selectors.Card
	if len(a.cfg.Ingest.Proxies) > 0 {
		rr, err := proxy.NewRoundRobin(a.cfg.Ingest.Proxies...)
		if err != nil {
			return nil, err
		}
		opts.ProxyServer = proxy.Server(rr.ForRun(a.runID))
		a.logger.Info("ingest through proxy", zap.String("proxy", opts.ProxyServer))
	}
	return ingest.New(
		ingest.NewChromeRenderer(opts),
		a.store,
		a.layout,
		a.cfg.Endpoint(),
		ingest.WithLogger(a.logger.Named("ingest")),
		ingest.WithPacer(limiter.Pacer(a.cfg.Ingest.Delay, a.cfg.Ingest.PagesPerMinute)),
	), nil
}

func (a *app) engine() (*engine.Engine, error) {
	registry := extract.NewRegistry(a.cfg.Extract.Selectors, a.cfg.BaseURL)
	formatter := extract.NewFormatter(registry,
		extract.WithSource(a.cfg.Source),
		extract.WithCity(a.cfg.City),
		extract.WithLogger(a.logger.Named("formatter")),
	)
	return engine.New(a.store, a.layout, formatter, engine.WithLogger(a.logger.Named("engine")))
}

func (a *app) stage() *normalize.Stage {
	return normalize.NewStage(a.store, a.layout, normalize.WithLogger(a.logger.Named("normalize")))
}

// 返回聚合器和释放数据库连接的函数，只有sql模式才会连接数据库
func (a *app) aggregator(mode aggregate.Mode) (*aggregate.Aggregator, func(), error) {
	format, err := dataset.ParseFormat(a.cfg.Curated.Format)
	if err != nil {
		return nil, nil, err
	}
	opts := []aggregate.Option{aggregate.WithLogger(a.logger.Named("aggregate"))}
	release := func() {}
	if mode == aggregate.ModeSQL {
		dialect, err := sqldb.ParseDialect(a.cfg.SQL.Dialect)
		if err != nil {
			return nil, nil, err
		}
		if a.cfg.SQL.DSN == "" {
			return nil, nil, fmt.Errorf("%w: sql mode requires %s", config.ErrInvalid, config.EnvSQLDSN)
		}
		db, err := sqldb.New(
			sqldb.WithDialect(dialect),
			sqldb.WithConnURL(a.cfg.SQL.DSN),
			sqldb.WithLogger(a.logger.Named("sqlDB")),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open sql sink: %w", err)
		}
		release = func() { db.Close() }
		sink := sqlstorage.New(db,
			sqlstorage.WithTable(a.cfg.SQL.Table),
			sqlstorage.WithBatchCount(a.cfg.SQL.BatchCount),
			sqlstorage.WithLogger(a.logger.Named("sqlStore")),
		)
		opts = append(opts, aggregate.WithSink(sink))
	}
	return aggregate.New(a.store, a.layout, format, opts...), release, nil
}

func today() string {
	return time.Now().Format(storage.DateLayout)
}
