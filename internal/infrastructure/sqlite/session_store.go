package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roomscout/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	image_path TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS session_items (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	item_type       TEXT NOT NULL,
	description     TEXT NOT NULL,
	search_keywords TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS session_products (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id     INTEGER NOT NULL REFERENCES session_items(id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	product_url TEXT NOT NULL,
	store       TEXT NOT NULL,
	price       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_session_items_session ON session_items(session_id);
CREATE INDEX IF NOT EXISTS idx_session_products_item ON session_products(item_id);
`

// SessionStore implements domain.SessionStore on SQLite
type SessionStore struct {
	db *sqlx.DB
}

// sessionRow maps the sessions table
type sessionRow struct {
	ID        string    `db:"id"`
	ImagePath string    `db:"image_path"`
	CreatedAt time.Time `db:"created_at"`
}

// itemRow maps the session_items table
type itemRow struct {
	ID             int64  `db:"id"`
	ItemType       string `db:"item_type"`
	Description    string `db:"description"`
	SearchKeywords string `db:"search_keywords"`
}

// productRow is a session_products row tagged with its item
type productRow struct {
	ItemID int64 `db:"item_id"`
	domain.ProductRecord
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(ctx context.Context, path string) (*SessionStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SessionStore{db: db}, nil
}

// Close closes the database
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Create inserts session with its items and products in one transaction
func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, image_path, created_at) VALUES (?, ?, ?)`,
		session.ID, session.ImagePath, session.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for i, item := range session.Items {
		keywords, err := json.Marshal(item.Item.SearchKeywords)
		if err != nil {
			return fmt.Errorf("encode keywords: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO session_items (session_id, position, item_type, description, search_keywords) VALUES (?, ?, ?, ?, ?)`,
			session.ID, i, item.Item.Type, item.Item.Description, string(keywords),
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("item id: %w", err)
		}

		for j, p := range item.Products {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO session_products (item_id, position, title, product_url, store, price) VALUES (?, ?, ?, ?, ?, ?)`,
				itemID, j, p.Title, p.ProductURL, p.Store, p.Price,
			); err != nil {
				return fmt.Errorf("insert product: %w", err)
			}
		}
	}

	return tx.Commit()
}

// List returns session summaries, newest first
func (s *SessionStore) List(ctx context.Context) ([]domain.SessionSummary, error) {
	query := `
		SELECT s.id, s.image_path, s.created_at,
		       (SELECT COUNT(*) FROM session_items i WHERE i.session_id = s.id) AS item_count
		FROM sessions s
		ORDER BY s.created_at DESC, s.id`

	summaries := []domain.SessionSummary{}
	if err := s.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return summaries, nil
}

// Get returns the session with id, its items in saved order and their products
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT id, image_path, created_at FROM sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var items []itemRow
	if err := s.db.SelectContext(ctx, &items,
		`SELECT id, item_type, description, search_keywords FROM session_items WHERE session_id = ? ORDER BY position`, id,
	); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	var products []productRow
	if err := s.db.SelectContext(ctx, &products, `
		SELECT p.item_id, p.title, p.product_url, p.store, p.price
		FROM session_products p
		JOIN session_items i ON i.id = p.item_id
		WHERE i.session_id = ?
		ORDER BY p.item_id, p.position`, id,
	); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	byItem := make(map[int64][]domain.ProductRecord)
	for _, p := range products {
		byItem[p.ItemID] = append(byItem[p.ItemID], p.ProductRecord)
	}

	session := &domain.Session{
		ID:        row.ID,
		ImagePath: row.ImagePath,
		CreatedAt: row.CreatedAt,
		Items:     make([]domain.SessionItem, 0, len(items)),
	}
	for _, it := range items {
		var keywords []string
		if err := json.Unmarshal([]byte(it.SearchKeywords), &keywords); err != nil {
			return nil, fmt.Errorf("decode keywords: %w", err)
		}
		records := byItem[it.ID]
		if records == nil {
			records = []domain.ProductRecord{}
		}
		session.Items = append(session.Items, domain.SessionItem{
			Item:     domain.Item{Type: it.ItemType, Description: it.Description, SearchKeywords: keywords},
			Products: records,
		})
	}

	return session, nil
}
