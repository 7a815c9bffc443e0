package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Format 是列式文件的编码格式，取值同时用作文件扩展名
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// ParseFormat 解析格式名，大小写和前导点不敏感，例如".Parquet" -> parquet
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	switch f {
	case FormatParquet, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) Ext() string {
	return string(f)
}

/*
输入格式和一组记录，输出编码后的文件内容

列名和列顺序都来自记录结构体的parquet标签，CSV与parquet的表头完全一致，不写索引列
*/
func Encode[T any](f Format, rows []T) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatParquet:
		if err := parquet.Write(&buf, rows); err != nil {
			return nil, fmt.Errorf("encode parquet: %w", err)
		}
	case FormatCSV:
		if err := writeCSV(&buf, rows); err != nil {
			return nil, fmt.Errorf("encode csv: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
	return buf.Bytes(), nil
}

// Decode 按格式解码文件内容
func Decode[T any](f Format, data []byte) ([]T, error) {
	switch f {
	case FormatParquet:
		rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("decode parquet: %w", err)
		}
		return rows, nil
	case FormatCSV:
		rows, err := readCSV[T](bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
}
