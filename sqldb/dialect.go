package sqldb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnsupportedDialect = errors.New("unsupported sql dialect")

// Dialect 表示一种数据库方言，取值同时是database/sql的驱动名
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// 与方言无关的列类型，建表时由方言转换
const (
	TypeText  = "TEXT"
	TypeInt   = "BIGINT"
	TypeFloat = "DOUBLE"
	TypeTime  = "TIMESTAMP"
)

func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case MySQL, Postgres:
		return d, nil
	case "postgresql", "pg":
		return Postgres, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, s)
}

// Placeholder 返回第n个参数(从1开始)的占位符，MySQL为"?"，Postgres为"$n"
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d Dialect) ColumnType(t string) string {
	switch d {
	case Postgres:
		switch t {
		case TypeFloat:
			return "DOUBLE PRECISION"
		case TypeTime:
			return "TIMESTAMPTZ"
		}
	case MySQL:
		switch t {
		case TypeTime:
			return "DATETIME(3)"
		}
	}
	return t
}

/*
输入一个TableData实例，输出建表语句

MySQL形如 CREATE TABLE IF NOT EXISTS t (id BIGINT NOT NULL PRIMARY KEY AUTO_INCREMENT,a TEXT) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
*/
func (d Dialect) CreateTableSQL(t TableData) (string, error) {
	if len(t.ColumnNames) == 0 {
		return "", errors.New("column can not be empty")
	}
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + t.TableName + " (")
	if t.AutoKey {
		if d == Postgres {
			b.WriteString("id BIGSERIAL PRIMARY KEY,")
		} else {
			b.WriteString("id BIGINT NOT NULL PRIMARY KEY AUTO_INCREMENT,")
		}
	}
	for i, c := range t.ColumnNames {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.Title + " " + d.ColumnType(c.Type))
	}
	b.WriteString(")")
	if d == MySQL {
		b.WriteString(" ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	b.WriteString(";")
	return b.String(), nil
}

func (d Dialect) DropTableSQL(t TableData) string {
	return "DROP TABLE IF EXISTS " + t.TableName + ";"
}

/*
输入一个TableData实例，输出批量插入语句

形如INSERT INTO users(id,name) VALUES (?,?),(?,?);，Postgres的占位符按行依次编号为$1,$2,$3...
参数个数必须等于列数乘以行数
*/
func (d Dialect) InsertSQL(t TableData) (string, error) {
	cols := len(t.ColumnNames)
	if cols == 0 {
		return "", errors.New("empty column")
	}
	if t.DataCount <= 0 {
		return "", errors.New("empty data")
	}
	if len(t.Args) != cols*t.DataCount {
		return "", fmt.Errorf("got %d args for %d rows of %d columns", len(t.Args), t.DataCount, cols)
	}
	var b strings.Builder
	b.WriteString("INSERT INTO " + t.TableName + "(")
	for i, c := range t.ColumnNames {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c.Title)
	}
	b.WriteString(") VALUES ")
	n := 1
	for row := 0; row < t.DataCount; row++ {
		if row > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for col := 0; col < cols; col++ {
			if col > 0 {
				b.WriteString(",")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String(), nil
}
