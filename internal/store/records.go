package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezonia/finvoice-apix/internal/model"
)

// CreateRecord stores a file record. ID and CreatedAt are filled in when empty.
func (s *SQLite) CreateRecord(ctx context.Context, r *model.Record) error {
	if err := s.insertRecord(ctx, s.db, r); err != nil {
		s.logger.Error("Failed to create record", zap.String("name", r.Name), zap.Error(err))
		return err
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLite) insertRecord(ctx context.Context, db execer, r *model.Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO records (id, name, model, res_id, mime_type, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.Model, r.ResID, r.MimeType, r.Content, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

const recordColumns = "id, name, model, res_id, mime_type, content, created_at"

func scanRecord(row interface{ Scan(...any) error }) (*model.Record, error) {
	var r model.Record
	if err := row.Scan(&r.ID, &r.Name, &r.Model, &r.ResID, &r.MimeType, &r.Content, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// FindRecord returns the oldest record with the given name and target model
func (s *SQLite) FindRecord(ctx context.Context, name, recordModel string) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+
		" FROM records WHERE name = ? AND model = ? ORDER BY rowid LIMIT 1", name, recordModel)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return r, nil
}

// RecordExists reports whether a record with the given name and model exists
func (s *SQLite) RecordExists(ctx context.Context, name, recordModel string) (bool, error) {
	_, err := s.FindRecord(ctx, name, recordModel)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// LinkRecord attaches an existing record to a target
func (s *SQLite) LinkRecord(ctx context.Context, id, recordModel, resID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE records SET model = ?, res_id = ? WHERE id = ?", recordModel, resID, id)
	if err != nil {
		return fmt.Errorf("failed to link record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordsFor lists the records attached to a target, oldest first
func (s *SQLite) RecordsFor(ctx context.Context, recordModel, resID string) ([]*model.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+
		" FROM records WHERE model = ? AND res_id = ? ORDER BY rowid", recordModel, resID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []*model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StoredImport is an import result kept for later review
type StoredImport struct {
	ID        string
	CompanyID string
	CreatedAt time.Time
	Result    *model.ImportResult
}

// SaveImport persists an import result and returns its id. Attachments are
// not part of the payload; they are stored as records linked to the id in the
// same transaction, so either everything is saved or nothing is.
func (s *SQLite) SaveImport(ctx context.Context, result *model.ImportResult) (string, error) {
	payload := *result
	payload.Attachments = nil
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode import: %w", err)
	}

	partnerID := ""
	if result.Partner != nil {
		partnerID = result.Partner.ID
	}

	id := uuid.NewString()
	err = s.withTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO imports (id, company_id, partner_id, ref, move_type, payload, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, result.Company.ID, partnerID, result.Ref, string(result.MoveType), string(data), s.now().UTC())
		if err != nil {
			return fmt.Errorf("failed to save import: %w", err)
		}

		for _, a := range result.Attachments {
			err := s.insertRecord(ctx, tx, &model.Record{
				Name:     a.Name,
				Model:    model.RecordModelInvoice,
				ResID:    id,
				MimeType: a.MimeType,
				Content:  a.Content,
			})
			if err != nil {
				return fmt.Errorf("failed to save attachment %s: %w", a.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save import", zap.String("ref", result.Ref), zap.Error(err))
		return "", err
	}
	return id, nil
}

// Import returns a stored import result
func (s *SQLite) Import(ctx context.Context, id string) (*StoredImport, error) {
	var si StoredImport
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT id, company_id, payload, created_at FROM imports WHERE id = ?", id).
		Scan(&si.ID, &si.CompanyID, &payload, &si.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import: %w", err)
	}

	si.Result = &model.ImportResult{}
	if err := json.Unmarshal([]byte(payload), si.Result); err != nil {
		return nil, fmt.Errorf("failed to decode import %s: %w", id, err)
	}
	return &si, nil
}
