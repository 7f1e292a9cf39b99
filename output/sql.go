package output

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // 注册pgx为database/sql驱动
	"github.com/samber/lo"
	_ "modernc.org/sqlite" // 纯Go实现的sqlite驱动
)

// Dialect SQL方言
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

const (
	defaultSQLitePath  = "occupancy.db"
	defaultPostgresDSN = "postgres://localhost/occupancy?sslmode=disable"
)

func (d Dialect) driver() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// placeholder 第i个（从1开始）参数的占位符
func (d Dialect) placeholder(i int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// tableColumns 各表的列定义，列名加引号以保留大小写并避开index关键字
var tableColumns = []struct {
	table   string
	columns []string
	types   []string
}{
	{TablePeople, []string{"index", "dwellingId"}, []string{"BIGINT", "BIGINT"}},
	{TableDwellings, []string{"index", "region"}, []string{"BIGINT", "TEXT"}},
	{TableActivity, []string{"timestamp", "id", "value"}, []string{"BIGINT", "BIGINT", "TEXT"}},
	{TableActivityCounts, []string{"timestamp", "id", "value"}, []string{"BIGINT", "TEXT", "TEXT"}},
}

func quote(s string) string {
	return `"` + s + `"`
}

// SQLSink 基于database/sql的输出，支持sqlite与postgres
type SQLSink struct {
	db      *sql.DB
	dialect Dialect
	inserts map[string]string // 表名->INSERT语句
}

// OpenSQL 打开SQL输出并创建输出表
// 参数：ctx-上下文，d-方言，dsn-sqlite文件路径或postgres连接串，为空时使用默认值
// 返回：SQLSink；连接或建表失败时返回错误
func OpenSQL(ctx context.Context, d Dialect, dsn string) (*SQLSink, error) {
	if dsn == "" {
		dsn = lo.Ternary(d == DialectPostgres, defaultPostgresDSN, defaultSQLitePath)
	}
	if d == DialectSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open(d.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver(), err)
	}
	if d == DialectSQLite {
		// sqlite不支持并发写，单连接串行化
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver(), err)
	}
	s := &SQLSink{db: db, dialect: d, inserts: make(map[string]string)}
	for _, t := range tableColumns {
		defs := lo.Map(t.columns, func(c string, i int) string {
			return quote(c) + " " + t.types[i]
		})
		ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.table), strings.Join(defs, ", "))
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create table %s: %w", t.table, err)
		}
		s.inserts[t.table] = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quote(t.table),
			strings.Join(lo.Map(t.columns, func(c string, _ int) string { return quote(c) }), ", "),
			strings.Join(lo.Times(len(t.columns), func(i int) string { return d.placeholder(i + 1) }), ", "),
		)
	}
	log.Infof("%s output opened", d.driver())
	return s, nil
}

// DB 底层数据库连接
func (s *SQLSink) DB() *sql.DB {
	return s.db
}

// insert 在一个事务中逐行插入
func (s *SQLSink) insert(ctx context.Context, table string, rows [][]any) (err error) {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, s.inserts[table])
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()
	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func (s *SQLSink) WritePeople(ctx context.Context, people []PersonRow, dwellings []DwellingRow) error {
	if err := s.insert(ctx, TablePeople, lo.Map(people, func(p PersonRow, _ int) []any {
		return []any{int64(p.ID), int64(p.DwellingID)}
	})); err != nil {
		return err
	}
	return s.insert(ctx, TableDwellings, lo.Map(dwellings, func(d DwellingRow, _ int) []any {
		return []any{int64(d.ID), d.Region}
	}))
}

func (s *SQLSink) WriteActivity(ctx context.Context, records []Record) error {
	return s.insert(ctx, TableActivity, lo.Map(records, func(r Record, _ int) []any {
		return []any{r.Timestamp, int64(r.PersonID), string(r.Activity)}
	}))
}

func (s *SQLSink) WriteAggregated(ctx context.Context, records []AggregateRecord) error {
	return s.insert(ctx, TableActivityCounts, lo.Map(records, func(r AggregateRecord, _ int) []any {
		return []any{r.Timestamp, r.Region, r.Value()}
	}))
}

func (s *SQLSink) Close() error {
	return s.db.Close()
}
