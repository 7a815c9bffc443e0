package config

// 运行配置：非敏感项来自YAML文件，密钥来自环境变量(可由.env提供)

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/dszqbsm/rentmonitor/aggregate"
	"github.com/dszqbsm/rentmonitor/dataset"
	"github.com/dszqbsm/rentmonitor/extract"
	"github.com/dszqbsm/rentmonitor/proxy"
	"github.com/dszqbsm/rentmonitor/sqldb"
	"github.com/dszqbsm/rentmonitor/sqlstorage"
)

var ErrInvalid = errors.New("invalid configuration")

// 环境变量名
const (
	EnvAWSID  = "AWS_ID"
	EnvAWSKey = "AWS_KEY"
	EnvSQLDSN = "RENTMONITOR_SQL_DSN"
)

type Config struct {
	Source  string `yaml:"source"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	BaseURL string `yaml:"base_url"`

	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Extract   ExtractConfig   `yaml:"extract"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Curated   CuratedConfig   `yaml:"curated"`
	SQL       SQLConfig       `yaml:"sql"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // 为空时只输出到标准输出
}

type StorageConfig struct {
	Driver   string `yaml:"driver"` // dir | s3 | memory
	Root     string `yaml:"root"`   // 各数据层的公共前缀
	Dir      string `yaml:"dir"`    // dir驱动的本地目录
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type IngestConfig struct {
	Pattern        string        `yaml:"pattern"`
	MaxPages       int           `yaml:"max_pages"`
	All            bool          `yaml:"all"`
	Delay          time.Duration `yaml:"delay"`
	PagesPerMinute int           `yaml:"pages_per_minute"`
	Headless       bool          `yaml:"headless"`
	ChromePath     string        `yaml:"chrome_path"`
	Proxies        []string      `yaml:"proxies"` // 每次运行轮流选用一个
}

type ExtractConfig struct {
	Pattern   string            `yaml:"pattern"`
	Format    string            `yaml:"format"`
	MaxPages  int               `yaml:"max_pages"`
	Selectors extract.Selectors `yaml:"selectors"` // 未配置的选择器使用默认值
}

type NormalizeConfig struct {
	OutputFormat string `yaml:"output_format"`
}

type CuratedConfig struct {
	Format string `yaml:"format"`
	Mode   string `yaml:"mode"` // write | return | sql
}

type SQLConfig struct {
	Dialect    string `yaml:"dialect"`
	Table      string `yaml:"table"`
	BatchCount int    `yaml:"batch_count"`

	DSN string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Source:  "vivareal",
		City:    "florianopolis",
		State:   "santa-catarina",
		BaseURL: "https://www.vivareal.com.br",
		Log:     LogConfig{Level: "info"},
		Storage: StorageConfig{Driver: "dir", Root: "pipeline", Dir: "."},
		Ingest: IngestConfig{
			Pattern:  "aluguel",
			All:      true,
			Delay:    2 * time.Second,
			Headless: true,
		},
		Extract:   ExtractConfig{Pattern: "aluguel", Format: "parquet"},
		Normalize: NormalizeConfig{OutputFormat: "parquet"},
		Curated:   CuratedConfig{Format: "parquet", Mode: "write"},
		SQL:       SQLConfig{Dialect: "postgres", Table: "listings_history", BatchCount: 500},
	}
}

/*
输入配置文件路径，输出校验后的配置

文件不存在时使用默认配置；文件中缺失的键保持默认值。随后加载.env(不存在时忽略)并从环境变量读取密钥
*/
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
			}
		}
	}

	_ = godotenv.Load()
	cfg.Storage.AccessKeyID = os.Getenv(EnvAWSID)
	cfg.Storage.SecretAccessKey = os.Getenv(EnvAWSKey)
	cfg.SQL.DSN = os.Getenv(EnvSQLDSN)

	cfg.Extract.Selectors = cfg.Extract.Selectors.Merge(extract.DefaultSelectors)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 在任何I/O之前拒绝不支持的格式、驱动和互斥的参数
func (c *Config) Validate() error {
	var errs []string
	check := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Source == "" || c.City == "" {
		errs = append(errs, "source and city are required")
	}
	_, err := zapcore.ParseLevel(c.Log.Level)
	check(err)
	for _, f := range []string{c.Extract.Format, c.Normalize.OutputFormat, c.Curated.Format} {
		_, err := dataset.ParseFormat(f)
		check(err)
	}
	mode, err := aggregate.ParseMode(c.Curated.Mode)
	check(err)

	switch c.Storage.Driver {
	case "dir", "memory":
	case "s3":
		if c.Storage.Bucket == "" {
			errs = append(errs, "s3 storage requires a bucket")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown storage driver %q", c.Storage.Driver))
	}

	if c.Ingest.All && c.Ingest.MaxPages > 0 {
		errs = append(errs, "ingest.all and ingest.max_pages are mutually exclusive")
	}
	if c.Ingest.Delay < 0 || c.Ingest.PagesPerMinute < 0 {
		errs = append(errs, "ingest pacing must not be negative")
	}
	if len(c.Ingest.Proxies) > 0 {
		_, err := proxy.NewRoundRobin(c.Ingest.Proxies...)
		check(err)
	}
	if c.Extract.MaxPages < 0 {
		errs = append(errs, "extract.max_pages must not be negative")
	}

	if mode == aggregate.ModeSQL {
		_, err := sqldb.ParseDialect(c.SQL.Dialect)
		check(err)
		if c.SQL.DSN == "" {
			errs = append(errs, fmt.Sprintf("sql mode requires %s", EnvSQLDSN))
		}
		if c.SQL.BatchCount < 1 || c.SQL.BatchCount > sqlstorage.MaxBatchCount {
			errs = append(errs, fmt.Sprintf("sql.batch_count must be between 1 and %d", sqlstorage.MaxBatchCount))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// Endpoint 返回城市租房结果页的地址
func (c *Config) Endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/aluguel/" + c.State + "/" + c.City + "/"
}

// LogLevel 返回解析后的日志级别，Validate通过后不会出错
func (c *Config) LogLevel() zapcore.Level {
	l, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}
