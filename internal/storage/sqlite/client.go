package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/luminai/backend/internal/storage/models"
	"github.com/luminai/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		file_name TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		uploaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_client ON documents(client_id);
	CREATE INDEX IF NOT EXISTS idx_documents_uploaded ON documents(uploaded_at);

	CREATE TABLE IF NOT EXISTS images (
		saved_name TEXT PRIMARY KEY,
		original_name TEXT NOT NULL,
		content_type TEXT,
		size INTEGER,
		client_id TEXT NOT NULL,
		uploaded_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_images_client ON images(client_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// PutDocument records or overwrites a document's metadata. Concurrent
// uploads with the same file name race on overwrite; last writer wins.
func (c *Client) PutDocument(doc *models.DocumentMetadata) error {
	query := `
		INSERT INTO documents (file_name, client_id, uploaded_at)
		VALUES (?, ?, ?)
		ON CONFLICT(file_name) DO UPDATE SET
			client_id = excluded.client_id,
			uploaded_at = excluded.uploaded_at
	`

	_, err := c.db.Exec(query, doc.FileName, doc.ClientID, doc.UploadedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert document metadata: %w", err)
	}

	logger.Debug("Document metadata stored",
		zap.String("file_name", doc.FileName),
		zap.String("client_id", doc.ClientID),
	)
	return nil
}

// GetDocument returns nil without error when no record exists, so
// callers can treat an already-cleaned-up document as a soft condition.
func (c *Client) GetDocument(fileName string) (*models.DocumentMetadata, error) {
	query := `SELECT file_name, client_id, uploaded_at FROM documents WHERE file_name = ?`

	var doc models.DocumentMetadata
	var uploadedAt int64

	err := c.db.QueryRow(query, fileName).Scan(&doc.FileName, &doc.ClientID, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document metadata: %w", err)
	}

	doc.UploadedAt = time.Unix(uploadedAt, 0)
	return &doc, nil
}

// DeleteDocument reports whether a record was actually removed.
func (c *Client) DeleteDocument(fileName string) (bool, error) {
	res, err := c.db.Exec(`DELETE FROM documents WHERE file_name = ?`, fileName)
	if err != nil {
		return false, fmt.Errorf("failed to delete document metadata: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// LatestDocumentForClient returns the most recently uploaded document
// owned by clientID, or nil when the client has none.
func (c *Client) LatestDocumentForClient(clientID string) (*models.DocumentMetadata, error) {
	query := `
		SELECT file_name, client_id, uploaded_at
		FROM documents
		WHERE client_id = ?
		ORDER BY uploaded_at DESC, file_name DESC
		LIMIT 1
	`

	var doc models.DocumentMetadata
	var uploadedAt int64

	err := c.db.QueryRow(query, clientID).Scan(&doc.FileName, &doc.ClientID, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest document: %w", err)
	}

	doc.UploadedAt = time.Unix(uploadedAt, 0)
	return &doc, nil
}

func (c *Client) PutImage(img *models.ImageMetadata) error {
	query := `
		INSERT INTO images (saved_name, original_name, content_type, size, client_id, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		img.SavedName,
		img.OriginalName,
		img.ContentType,
		img.Size,
		img.ClientID,
		img.UploadedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert image metadata: %w", err)
	}

	return nil
}

func (c *Client) GetImage(savedName string) (*models.ImageMetadata, error) {
	query := `SELECT saved_name, original_name, content_type, size, client_id, uploaded_at FROM images WHERE saved_name = ?`

	var img models.ImageMetadata
	var uploadedAt int64

	err := c.db.QueryRow(query, savedName).Scan(
		&img.SavedName,
		&img.OriginalName,
		&img.ContentType,
		&img.Size,
		&img.ClientID,
		&uploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image metadata: %w", err)
	}

	img.UploadedAt = time.Unix(uploadedAt, 0)
	return &img, nil
}
