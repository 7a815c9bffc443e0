package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/dszqbsm/rentmonitor/listing"
)

// CSV中时间列的格式
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

var timeType = reflect.TypeOf(time.Time{})

type column struct {
	name  string
	index int
}

func columnsOf(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		if name := listing.ColumnName(t.Field(i)); name != "" {
			cols = append(cols, column{name: name, index: i})
		}
	}
	return cols
}

func writeCSV[T any](w io.Writer, rows []T) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("row type %s is not a struct", t)
	}
	cols := columnsOf(t)
	cw := csv.NewWriter(w)

	record := make([]string, len(cols))
	for i, c := range cols {
		record[i] = c.name
	}
	if err := cw.Write(record); err != nil {
		return err
	}
	for n := range rows {
		v := reflect.ValueOf(&rows[n]).Elem()
		for i, c := range cols {
			s, err := formatCell(v.Field(c.index))
			if err != nil {
				return fmt.Errorf("row %d column %s: %w", n, c.name, err)
			}
			record[i] = s
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// 空指针写为空单元格
func formatCell(v reflect.Value) (string, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}
	if v.Type() == timeType {
		return v.Interface().(time.Time).UTC().Format(timeLayout), nil
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	}
	return "", fmt.Errorf("unsupported kind %s", v.Kind())
}

/*
输入CSV内容，输出记录列表

按表头名匹配列，表头中多出的列被忽略，缺少的列保持零值；指针字段遇到空单元格时为nil
*/
func readCSV[T any](r io.Reader) ([]T, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("row type %s is not a struct", t)
	}
	byName := make(map[string]int)
	for _, c := range columnsOf(t) {
		byName[c.name] = c.index
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fields := make([]int, len(header))
	for i, name := range header {
		idx, ok := byName[name]
		if !ok {
			idx = -1
		}
		fields[i] = idx
	}

	var rows []T
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		var row T
		v := reflect.ValueOf(&row).Elem()
		for i, cell := range record {
			if i >= len(fields) || fields[i] < 0 {
				continue
			}
			if err := parseCell(v.Field(fields[i]), cell); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, header[i], err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseCell(v reflect.Value, cell string) error {
	if v.Kind() == reflect.Pointer {
		if cell == "" {
			return nil
		}
		p := reflect.New(v.Type().Elem())
		if err := parseCell(p.Elem(), cell); err != nil {
			return err
		}
		v.Set(p)
		return nil
	}
	if v.Type() == timeType {
		if cell == "" {
			return nil
		}
		ts, err := time.Parse(timeLayout, cell)
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(ts))
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(cell)
	case reflect.Int, reflect.Int32, reflect.Int64:
		if cell == "" {
			return nil
		}
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Float32, reflect.Float64:
		if cell == "" {
			return nil
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		if cell == "" {
			return nil
		}
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return err
		}
		v.SetBool(b)
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}
