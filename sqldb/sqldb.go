package sqldb

// 定义了与SQL数据库交互的功能，包括建表、删表、批量插入，支持MySQL和Postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// 为数据库操作统一了规范，包括创建表、删除表、插入数据
type DBer interface {
	CreateTable(t TableData) error
	DropTable(t TableData) error
	Insert(t TableData) error
}

// sql数据库实例
type Sqldb struct {
	options
	db *sql.DB
}

// 按方言打开数据库连接，设置连接数上限，通过ping测试连接是否正常
func (d *Sqldb) OpenDB() error {
	db, err := sql.Open(string(d.dialect), d.sqlUrl)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(d.maxConns)
	db.SetMaxIdleConns(d.maxConns)
	if err = db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping %s: %w", d.dialect, err)
	}
	d.db = db
	return nil
}

func (d *Sqldb) CreateTable(t TableData) error {
	sql, err := d.dialect.CreateTableSQL(t)
	if err != nil {
		return err
	}
	d.logger.Debug("create table", zap.String("sql", sql))
	_, err = d.db.Exec(sql)
	return err
}

func (d *Sqldb) DropTable(t TableData) error {
	sql := d.dialect.DropTableSQL(t)
	d.logger.Debug("drop table", zap.String("sql", sql))
	_, err := d.db.Exec(sql)
	return err
}

func (d *Sqldb) Insert(t TableData) error {
	sql, err := d.dialect.InsertSQL(t)
	if err != nil {
		return err
	}
	d.logger.Debug("insert table", zap.String("table", t.TableName), zap.Int("rows", t.DataCount))
	_, err = d.db.Exec(sql, t.Args...)
	return err
}

func (d *Sqldb) Close() error {
	return d.db.Close()
}

// 表示数据库表中的一个字段，包含字段名和字段类型
type Field struct {
	Title string
	Type  string
}

// 表示要操作的数据库表的数据
type TableData struct {
	TableName   string
	ColumnNames []Field // 标题字段
	Args        []any   // 数据，按行依次排列
	DataCount   int     // 插入数据的行数
	AutoKey     bool
}

// 创建一个新的Sqldb实例，并根据传入的选项进行配置
func New(opts ...Option) (*Sqldb, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	d := &Sqldb{}
	d.options = options
	if err := d.OpenDB(); err != nil {
		return nil, err
	}
	return d, nil
}
