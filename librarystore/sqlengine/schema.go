package sqlengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/librarydesk/librarystore"
)

// Table names of the library schema.
const (
	TableBooks     = "books"
	TableMembers   = "members"
	TableBorrowing = "borrowing"
)

type tableDDL struct {
	table      string
	statements []string
}

// schemaDDL lists the tables in creation order (parents before children) per dialect.
var schemaDDL = map[string][]tableDDL{
	DialectPostgres: {
		{TableBooks, []string{
			`CREATE TABLE IF NOT EXISTS books (
				book_id BIGSERIAL PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				author VARCHAR(255) NOT NULL,
				published_year INTEGER NOT NULL,
				available_copies INTEGER NOT NULL DEFAULT 1 CHECK (available_copies >= 0),
				genre VARCHAR(100),
				isbn VARCHAR(20) UNIQUE,
				description TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				CONSTRAINT uq_books_title_author UNIQUE (title, author)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_books_title ON books (title)`,
			`CREATE INDEX IF NOT EXISTS idx_books_author ON books (author)`,
		}},
		{TableMembers, []string{
			`CREATE TABLE IF NOT EXISTS members (
				member_id BIGSERIAL PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL UNIQUE,
				phone_number VARCHAR(20),
				address TEXT,
				join_date DATE NOT NULL DEFAULT CURRENT_DATE,
				status VARCHAR(20) NOT NULL DEFAULT 'Active' CHECK (status IN ('Active', 'Inactive', 'Suspended')),
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_members_name ON members (name)`,
		}},
		{TableBorrowing, []string{
			`CREATE TABLE IF NOT EXISTS borrowing (
				borrow_id BIGSERIAL PRIMARY KEY,
				member_id BIGINT NOT NULL REFERENCES members (member_id) ON DELETE CASCADE,
				book_id BIGINT NOT NULL REFERENCES books (book_id) ON DELETE CASCADE,
				borrow_date DATE NOT NULL,
				due_date DATE,
				return_date DATE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_borrowing_member ON borrowing (member_id)`,
			`CREATE INDEX IF NOT EXISTS idx_borrowing_book ON borrowing (book_id)`,
			`CREATE INDEX IF NOT EXISTS idx_borrowing_borrow_date ON borrowing (borrow_date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_borrowing_open_loan ON borrowing (member_id, book_id) WHERE return_date IS NULL`,
		}},
	},
	DialectMySQL: {
		{TableBooks, []string{
			`CREATE TABLE IF NOT EXISTS books (
				book_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				author VARCHAR(255) NOT NULL,
				published_year INT NOT NULL,
				available_copies INT NOT NULL DEFAULT 1,
				genre VARCHAR(100),
				isbn VARCHAR(20) UNIQUE,
				description TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				UNIQUE KEY uq_books_title_author (title, author),
				INDEX idx_books_title (title),
				INDEX idx_books_author (author),
				CONSTRAINT chk_books_available_copies CHECK (available_copies >= 0)
			) ENGINE=InnoDB`,
		}},
		{TableMembers, []string{
			`CREATE TABLE IF NOT EXISTS members (
				member_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL UNIQUE,
				phone_number VARCHAR(20),
				address TEXT,
				join_date DATE NOT NULL,
				status ENUM('Active', 'Inactive', 'Suspended') NOT NULL DEFAULT 'Active',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				INDEX idx_members_name (name)
			) ENGINE=InnoDB`,
		}},
		{TableBorrowing, []string{
			`CREATE TABLE IF NOT EXISTS borrowing (
				borrow_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				member_id BIGINT NOT NULL,
				book_id BIGINT NOT NULL,
				borrow_date DATE NOT NULL,
				due_date DATE,
				return_date DATE,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				INDEX idx_borrowing_member (member_id),
				INDEX idx_borrowing_book (book_id),
				INDEX idx_borrowing_borrow_date (borrow_date),
				FOREIGN KEY (member_id) REFERENCES members (member_id) ON DELETE CASCADE,
				FOREIGN KEY (book_id) REFERENCES books (book_id) ON DELETE CASCADE
			) ENGINE=InnoDB`,
		}},
	},
	DialectSQLite: {
		{TableBooks, []string{
			`CREATE TABLE IF NOT EXISTS books (
				book_id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				published_year INTEGER NOT NULL,
				available_copies INTEGER NOT NULL DEFAULT 1 CHECK (available_copies >= 0),
				genre TEXT,
				isbn TEXT UNIQUE,
				description TEXT,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (title, author)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_books_title ON books (title)`,
			`CREATE INDEX IF NOT EXISTS idx_books_author ON books (author)`,
		}},
		{TableMembers, []string{
			`CREATE TABLE IF NOT EXISTS members (
				member_id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				phone_number TEXT,
				address TEXT,
				join_date DATE NOT NULL,
				status TEXT NOT NULL DEFAULT 'Active' CHECK (status IN ('Active', 'Inactive', 'Suspended')),
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_members_name ON members (name)`,
		}},
		{TableBorrowing, []string{
			`CREATE TABLE IF NOT EXISTS borrowing (
				borrow_id INTEGER PRIMARY KEY AUTOINCREMENT,
				member_id INTEGER NOT NULL REFERENCES members (member_id) ON DELETE CASCADE,
				book_id INTEGER NOT NULL REFERENCES books (book_id) ON DELETE CASCADE,
				borrow_date DATE NOT NULL,
				due_date DATE,
				return_date DATE,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_borrowing_member ON borrowing (member_id)`,
			`CREATE INDEX IF NOT EXISTS idx_borrowing_book ON borrowing (book_id)`,
			`CREATE INDEX IF NOT EXISTS idx_borrowing_borrow_date ON borrowing (borrow_date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS uq_borrowing_open_loan ON borrowing (member_id, book_id) WHERE return_date IS NULL`,
		}},
	},
}

// Migrate creates the books, members and borrowing tables with their indexes.
// Tables that already exist are left untouched, so Migrate can run on every start.
func (e *Engine) Migrate(ctx context.Context) error {
	created := 0

	for _, table := range schemaDDL[e.dialect] {
		exists, err := e.TableExists(ctx, table.table)
		if err != nil {
			return err
		}

		if exists {
			continue
		}

		for _, ddl := range table.statements {
			if _, execErr := e.Exec(ctx, Raw(ddl)); execErr != nil {
				return execErr
			}
		}

		created++
		e.logOperation(ctx, logMsgTableCreated, logAttrTable, table.table, logAttrDialect, e.dialect)
	}

	e.logOperation(ctx, logMsgMigrationCompleted, logAttrDialect, e.dialect, "tables_created", created)

	return nil
}

// TableExists reports whether a table with the given name exists in the current database or schema.
func (e *Engine) TableExists(ctx context.Context, name string) (bool, error) {
	var stmt *goqu.SelectDataset

	switch e.dialect {
	case DialectSQLite:
		stmt = e.builder.From("sqlite_master").
			Select(goqu.COUNT(goqu.Star())).
			Where(goqu.C("type").Eq("table"), goqu.C("name").Eq(name))
	case DialectMySQL:
		stmt = e.builder.From(goqu.S("information_schema").Table("tables")).
			Select(goqu.COUNT(goqu.Star())).
			Where(goqu.C("table_schema").Eq(goqu.L("DATABASE()")), goqu.C("table_name").Eq(name))
	default:
		stmt = e.builder.From(goqu.S("information_schema").Table("tables")).
			Select(goqu.COUNT(goqu.Star())).
			Where(goqu.C("table_schema").Eq(goqu.L("current_schema()")), goqu.C("table_name").Eq(name))
	}

	var count int64

	_, err := e.QueryOne(ctx, stmt, func(row Row) error {
		return row.Scan(&count)
	})
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// Ping acquires a connection and reports server version, current database and pool settings.
func (e *Engine) Ping(ctx context.Context) (ServerInfo, error) {
	var query string

	switch e.dialect {
	case DialectSQLite:
		query = "SELECT sqlite_version(), 'main'"
	case DialectMySQL:
		query = "SELECT VERSION(), DATABASE()"
	default:
		query = "SELECT version(), current_database()"
	}

	info := ServerInfo{Dialect: e.dialect}

	found, err := e.QueryOne(ctx, Raw(query), func(row Row) error {
		return row.Scan(&info.Version, &info.Database)
	})
	if err != nil {
		return ServerInfo{}, err
	}

	if !found {
		return ServerInfo{}, errors.Join(librarystore.ErrQueryingFailed, errors.New("server info query returned no row"))
	}

	info.Pool = e.Stats()

	return info, nil
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name     string
	Type     string
	Nullable bool
}

// TableInfo lists the columns of a table in declaration order. A missing table has no columns.
func (e *Engine) TableInfo(ctx context.Context, name string) ([]ColumnInfo, error) {
	var columns []ColumnInfo

	if e.dialect == DialectSQLite {
		stmt := Raw(`SELECT name, type, "notnull" FROM pragma_table_info(?) ORDER BY cid`, name)

		_, err := e.QueryAll(ctx, stmt, func(row Row) error {
			var column ColumnInfo
			var notNull int64

			if err := row.Scan(&column.Name, &column.Type, &notNull); err != nil {
				return err
			}

			column.Nullable = notNull == 0
			columns = append(columns, column)

			return nil
		})
		if err != nil {
			return nil, err
		}

		return columns, nil
	}

	schema := goqu.L("current_schema()")
	if e.dialect == DialectMySQL {
		schema = goqu.L("DATABASE()")
	}

	stmt := e.builder.From(goqu.S("information_schema").Table("columns")).
		Select("column_name", "data_type", "is_nullable").
		Where(goqu.C("table_schema").Eq(schema), goqu.C("table_name").Eq(name)).
		Order(goqu.C("ordinal_position").Asc())

	_, err := e.QueryAll(ctx, stmt, func(row Row) error {
		var column ColumnInfo
		var nullable string

		if err := row.Scan(&column.Name, &column.Type, &nullable); err != nil {
			return err
		}

		column.Nullable = nullable == "YES"
		columns = append(columns, column)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return columns, nil
}
