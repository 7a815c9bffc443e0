package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dszqbsm/rentmonitor/dataset"
	"github.com/dszqbsm/rentmonitor/storage"
)

// FolderRequest 描述一次按日期处理原始页面的请求
type FolderRequest struct {
	Date     string // 采集日期 YYYY-MM-DD
	Pattern  string // 输出文件名前缀
	Format   string // 输出格式 parquet | csv
	MaxPages int    // 大于0时最多处理的页面数
}

// FolderReport 是一次目录处理的汇总
type FolderReport struct {
	Key            string // 写出的extracted对象
	Pages          int    // 处理过的页面数，包括解析失败的页面
	Added          int
	Duplicates     int
	DocumentErrors []*DocumentError
	FragmentErrors int
}

// Err 合并全部页面级错误，没有时返回nil
func (r FolderReport) Err() error {
	var err error
	for _, de := range r.DocumentErrors {
		err = multierr.Append(err, de)
	}
	return err
}

func (r FolderRequest) validate() (dataset.Format, error) {
	f, err := dataset.ParseFormat(r.Format)
	if err != nil {
		return "", err
	}
	if err := storage.ValidateDate(r.Date); err != nil {
		return "", err
	}
	if r.Pattern == "" {
		return "", errors.New("empty output pattern")
	}
	if r.MaxPages < 0 {
		return "", fmt.Errorf("negative page limit %d", r.MaxPages)
	}
	return f, nil
}

/*
输入处理请求，输出处理汇总

请求在任何I/O之前校验；按键名顺序处理日期目录下的.html对象，所有页面共用同一个累加器，
因此去重范围是整个目录。单页解析失败记录在汇总中并跳过，存储读写失败直接返回且不写出结果
*/
func (e *Engine) ProcessFolder(ctx context.Context, req FolderRequest) (FolderReport, error) {
	var report FolderReport
	format, err := req.validate()
	if err != nil {
		return report, err
	}

	prefix := e.layout.RawPrefix(req.Date)
	keys, err := e.store.List(ctx, prefix)
	if err != nil {
		return report, fmt.Errorf("list raw pages: %w", err)
	}

	acc := dataset.NewTable()
	for _, key := range keys {
		if !strings.HasSuffix(strings.ToLower(key), ".html") {
			continue
		}
		if req.MaxPages > 0 && report.Pages >= req.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		raw, err := e.store.Get(ctx, key)
		if err != nil {
			return report, fmt.Errorf("get raw page: %w", err)
		}
		report.Pages++

		res, err := e.ProcessPage(raw, acc)
		if err != nil {
			de := &DocumentError{Key: key, Err: err}
			var pe *DocumentError
			if errors.As(err, &pe) {
				de.Err = pe.Err
			}
			report.DocumentErrors = append(report.DocumentErrors, de)
			e.Logger.Error("document skipped", zap.String("key", key), zap.Error(de.Err))
			continue
		}
		report.Added += res.Added
		report.Duplicates += res.Duplicates
		report.FragmentErrors += len(res.FragmentErrors)
	}

	data, err := dataset.Encode(format, acc.Rows())
	if err != nil {
		return report, err
	}
	report.Key = e.layout.ExtractedKey(req.Date, req.Pattern, format.Ext())
	if err := e.store.Put(ctx, report.Key, data); err != nil {
		return report, fmt.Errorf("write extracted: %w", err)
	}

	e.Logger.Info("folder processed",
		zap.String("date", req.Date),
		zap.String("key", report.Key),
		zap.Int("pages", report.Pages),
		zap.Int("rows", acc.Len()),
		zap.Int("document_errors", len(report.DocumentErrors)),
	)
	return report, nil
}
