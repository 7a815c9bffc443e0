package sqlstorage

// 把curated层的记录同步到SQL表中，分批缓存后批量插入

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/dszqbsm/rentmonitor/listing"
	"github.com/dszqbsm/rentmonitor/sqldb"
)

// postgres单条语句最多65535个绑定参数，mysql同样以uint16计数
const maxBindParams = 65535

// MaxBatchCount 是一次批量插入的最大行数，每行占用全部列的参数
var MaxBatchCount = maxBindParams / len(listing.FormattedColumns)

type SqlStore struct {
	dataDocker  []listing.Formatted // 待插入数据库的记录
	columnNames []sqldb.Field       // 表的列信息，与formatted层的列一致
	db          sqldb.DBer
	options
}

func New(db sqldb.DBer, opts ...Option) *SqlStore {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.BatchCount <= 0 {
		options.BatchCount = defaultOptions.BatchCount
	}
	if options.BatchCount > MaxBatchCount {
		options.logger.Warn("batch count capped",
			zap.Int("requested", options.BatchCount), zap.Int("max", MaxBatchCount))
		options.BatchCount = MaxBatchCount
	}
	return &SqlStore{
		db:          db,
		columnNames: getFields(),
		options:     options,
	}
}

func (s *SqlStore) tableData() sqldb.TableData {
	return sqldb.TableData{
		TableName:   s.table,
		ColumnNames: s.columnNames,
		AutoKey:     true,
	}
}

// Reset 删除并重建表，curated层每次全量重建，SQL表也一样
func (s *SqlStore) Reset() error {
	s.dataDocker = nil
	if err := s.db.DropTable(s.tableData()); err != nil {
		return fmt.Errorf("drop table %s: %w", s.table, err)
	}
	if err := s.db.CreateTable(s.tableData()); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Save 缓存记录，缓存数量达到批量数时写入数据库
func (s *SqlStore) Save(rows ...listing.Formatted) error {
	for _, row := range rows {
		s.dataDocker = append(s.dataDocker, row)
		if len(s.dataDocker) >= s.BatchCount {
			if err := s.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush 把缓存的记录批量插入数据库，无论成功与否都清空缓存
func (s *SqlStore) Flush() error {
	if len(s.dataDocker) == 0 {
		return nil
	}
	defer func() {
		s.dataDocker = nil
	}()
	args := make([]any, 0, len(s.dataDocker)*len(s.columnNames))
	for i := range s.dataDocker {
		args = append(args, values(s.dataDocker[i])...)
	}
	td := s.tableData()
	td.Args = args
	td.DataCount = len(s.dataDocker)
	if err := s.db.Insert(td); err != nil {
		return fmt.Errorf("insert %d rows into %s: %w", td.DataCount, s.table, err)
	}
	s.logger.Debug("rows flushed", zap.String("table", s.table), zap.Int("rows", td.DataCount))
	return nil
}

var (
	formattedType = reflect.TypeOf(listing.Formatted{})
	timeType      = reflect.TypeOf(time.Time{})
)

// 按formatted层的列生成表结构，列类型由字段的Go类型决定
func getFields() []sqldb.Field {
	var columnNames []sqldb.Field
	for i := 0; i < formattedType.NumField(); i++ {
		f := formattedType.Field(i)
		name := listing.ColumnName(f)
		if name == "" {
			continue
		}
		columnNames = append(columnNames, sqldb.Field{Title: name, Type: columnType(f.Type)})
	}
	return columnNames
}

func columnType(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return sqldb.TypeTime
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return sqldb.TypeInt
	case reflect.Float32, reflect.Float64:
		return sqldb.TypeFloat
	}
	return sqldb.TypeText
}

// 按列顺序取出一条记录的值，空指针为nil
func values(row listing.Formatted) []any {
	v := reflect.ValueOf(row)
	out := make([]any, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		if listing.ColumnName(formattedType.Field(i)) == "" {
			continue
		}
		f := v.Field(i)
		if f.Kind() == reflect.Pointer {
			if f.IsNil() {
				out = append(out, nil)
				continue
			}
			f = f.Elem()
		}
		out = append(out, f.Interface())
	}
	return out
}
