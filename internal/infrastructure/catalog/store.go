// Package catalog implements the read-only catalog store on database/sql,
// backed by PostgreSQL (lib/pq) in production or SQLite (modernc) locally.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/stockbind/backend/internal/domain"
)

// DefaultLimit bounds queries when callers pass limit <= 0
const DefaultLimit = 2000

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Tables names the catalog tables. Names are explicit configuration so one
// store can be pointed at staging or per-brand tables.
type Tables struct {
	Products  string
	Overrides string
	URLCache  string
	Lexicon   string
}

// DefaultTables returns the standard table names
func DefaultTables() Tables {
	return Tables{
		Products:  "catalog_products",
		Overrides: "manual_overrides",
		URLCache:  "url_code_cache",
		Lexicon:   "lexicon_keywords",
	}
}

func (t Tables) withDefaults() Tables {
	d := DefaultTables()
	if t.Products == "" {
		t.Products = d.Products
	}
	if t.Overrides == "" {
		t.Overrides = d.Overrides
	}
	if t.URLCache == "" {
		t.URLCache = d.URLCache
	}
	if t.Lexicon == "" {
		t.Lexicon = d.Lexicon
	}
	return t
}

func (t Tables) validate() error {
	for _, name := range []string{t.Products, t.Overrides, t.URLCache, t.Lexicon} {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("invalid table name %q", name)
		}
	}
	return nil
}

// Options configures Open
type Options struct {
	Driver       string
	DSN          string
	Tables       Tables
	DefaultLimit int
	EnsureSchema bool
}

// Store is the SQL catalog store. It only ever issues SELECTs, apart from
// EnsureSchema which local setups call once at boot.
type Store struct {
	db           *sql.DB
	dialect      dialect
	tables       Tables
	defaultLimit int
}

// Open connects to the catalog database described by opts
func Open(ctx context.Context, opts Options) (*Store, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver(), opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", d.driver(), err)
	}
	if d.driver() == DriverSQLite {
		// An in-memory SQLite database lives on a single connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", domain.ErrStoreUnavailable, err)
	}

	store, err := New(db, d.driver(), opts.Tables, opts.DefaultLimit)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if opts.EnsureSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

// New wraps an existing connection pool
func New(db *sql.DB, driver string, tables Tables, defaultLimit int) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	tables = tables.withDefaults()
	if err := tables.validate(); err != nil {
		return nil, err
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Store{db: db, dialect: d, tables: tables, defaultLimit: defaultLimit}, nil
}

// EnsureSchema creates the catalog tables when they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, renderSchema(s.dialect.schema(), s.tables)); err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks store connectivity
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// ManualOverride returns the human-curated code for (site, url), or ErrNotFound
func (s *Store) ManualOverride(ctx context.Context, site, url string) (string, error) {
	q := s.newQuery()
	stmt := fmt.Sprintf("SELECT product_code FROM %s WHERE site = %s AND url = %s LIMIT 1",
		s.tables.Overrides, q.arg(site), q.arg(url))
	code, err := s.queryCode(ctx, stmt, q.args)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	return code, err
}

// CachedResolution returns a previously resolved code for url, or ErrCacheMiss
func (s *Store) CachedResolution(ctx context.Context, url string) (string, error) {
	q := s.newQuery()
	stmt := fmt.Sprintf("SELECT product_code FROM %s WHERE url = %s LIMIT 1", s.tables.URLCache, q.arg(url))
	code, err := s.queryCode(ctx, stmt, q.args)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrCacheMiss
	}
	return code, err
}

// Lookup lets the store act as the read-only bottom layer of the URL cache
func (s *Store) Lookup(ctx context.Context, url string) (string, error) {
	return s.CachedResolution(ctx, url)
}

// EntriesMatchingColor returns entries whose color contains, or is contained
// by, the given color (case-insensitive).
func (s *Store) EntriesMatchingColor(ctx context.Context, color string, limit int) ([]domain.CatalogEntry, error) {
	color = strings.ToLower(strings.TrimSpace(color))
	if color == "" {
		return nil, nil
	}
	q := s.newQuery()
	where := fmt.Sprintf(
		`color <> '' AND (lower(color) LIKE %s ESCAPE '\' OR CAST(%s AS TEXT) LIKE '%%' || lower(color) || '%%')`,
		q.arg(containsPattern(color)), q.arg(color))
	return s.selectEntries(ctx, q, where, limit)
}

// EntriesMatchingAnyColor returns entries whose color contains any of words
func (s *Store) EntriesMatchingAnyColor(ctx context.Context, words []string, limit int) ([]domain.CatalogEntry, error) {
	q := s.newQuery()
	var clauses []string
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(`lower(color) LIKE %s ESCAPE '\'`, q.arg(containsPattern(w))))
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	return s.selectEntries(ctx, q, "("+strings.Join(clauses, " OR ")+")", limit)
}

// CodesWithPrefix returns the distinct product codes starting with prefix
func (s *Store) CodesWithPrefix(ctx context.Context, prefix string, limit int) ([]domain.CodeColor, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	q := s.newQuery()
	stmt := fmt.Sprintf(
		`SELECT product_code, MIN(color) FROM %s WHERE upper(product_code) LIKE %s ESCAPE '\'
		 GROUP BY product_code ORDER BY product_code LIMIT %d`,
		s.tables.Products, q.arg(prefixPattern(strings.ToUpper(prefix))), s.limit(limit))

	rows, err := s.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: codes with prefix: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var codes []domain.CodeColor
	for rows.Next() {
		var cc domain.CodeColor
		if err := rows.Scan(&cc.ProductCode, &cc.Color); err != nil {
			return nil, fmt.Errorf("%w: scan code: %v", domain.ErrStoreUnavailable, err)
		}
		codes = append(codes, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate codes: %v", domain.ErrStoreUnavailable, err)
	}
	return codes, nil
}

// EntriesOverlappingKeywords returns entries whose keyword array at level
// shares at least one token with tokens.
func (s *Store) EntriesOverlappingKeywords(ctx context.Context, level domain.LexiconLevel, tokens []string, limit int) ([]domain.CatalogEntry, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	column := "match_keywords_l1"
	if level == domain.LevelPrecise {
		column = "match_keywords_l2"
	}
	q := s.newQuery()
	return s.selectEntries(ctx, q, s.dialect.keywordOverlap(column, q, tokens), limit)
}

// EntriesContainingTerms returns entries whose style name or title contains every term
func (s *Store) EntriesContainingTerms(ctx context.Context, terms []string, limit int) ([]domain.CatalogEntry, error) {
	q := s.newQuery()
	var clauses []string
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		clauses = append(clauses, fmt.Sprintf(`lower(style_name || ' ' || title) LIKE %s ESCAPE '\'`,
			q.arg(containsPattern(term))))
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	return s.selectEntries(ctx, q, strings.Join(clauses, " AND "), limit)
}

// ScanEntries returns up to limit entries with no filter
func (s *Store) ScanEntries(ctx context.Context, limit int) ([]domain.CatalogEntry, error) {
	return s.selectEntries(ctx, s.newQuery(), "", limit)
}

// LexiconKeywords returns the active keywords for (brand, level)
func (s *Store) LexiconKeywords(ctx context.Context, brand string, level domain.LexiconLevel) ([]string, error) {
	q := s.newQuery()
	stmt := fmt.Sprintf("SELECT keyword FROM %s WHERE lower(brand) = %s AND level = %s AND is_active",
		s.tables.Lexicon, q.arg(strings.ToLower(strings.TrimSpace(brand))), q.arg(int(level)))

	rows, err := s.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: lexicon keywords: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("%w: scan keyword: %v", domain.ErrStoreUnavailable, err)
		}
		keywords = append(keywords, kw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate keywords: %v", domain.ErrStoreUnavailable, err)
	}
	return keywords, nil
}

const entryColumns = `product_code, size, style_name, color, title, gender, category, source_rank,
	match_keywords_l1, match_keywords_l2`

func (s *Store) selectEntries(ctx context.Context, q *query, where string, limit int) ([]domain.CatalogEntry, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s", entryColumns, s.tables.Products)
	if where != "" {
		stmt += " WHERE " + where
	}
	stmt += fmt.Sprintf(" ORDER BY source_rank, product_code, size LIMIT %d", s.limit(limit))

	rows, err := s.db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, fmt.Errorf("%w: select entries: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var entries []domain.CatalogEntry
	for rows.Next() {
		var e domain.CatalogEntry
		l1, l2 := s.dialect.keywordColumn(), s.dialect.keywordColumn()
		if err := rows.Scan(&e.ProductCode, &e.Size, &e.StyleName, &e.Color, &e.Title,
			&e.Gender, &e.Category, &e.SourceRank, l1, l2); err != nil {
			return nil, fmt.Errorf("%w: scan entry: %v", domain.ErrStoreUnavailable, err)
		}
		e.KeywordsL1 = l1.Keywords()
		e.KeywordsL2 = l2.Keywords()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %v", domain.ErrStoreUnavailable, err)
	}
	return entries, nil
}

func (s *Store) queryCode(ctx context.Context, stmt string, args []interface{}) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return strings.TrimSpace(code), nil
}

func (s *Store) newQuery() *query {
	return &query{d: s.dialect}
}

func (s *Store) limit(n int) int {
	if n <= 0 {
		return s.defaultLimit
	}
	return n
}
