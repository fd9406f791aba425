package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/wilsonalvesmartins/grapaz/models"
)

// ErrNotFound is returned when a bid or file row does not exist.
var ErrNotFound = errors.New("not found")

// UnknownFieldError rejects a partial update that names a field outside the
// bid attribute set. Client keys are never interpolated into SQL.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// bidRow is the bids table shape. Deadlines lives as a JSON text blob in the
// row and is decoded before a models.Bid leaves this package.
type bidRow struct {
	ID              string         `db:"id"`
	Orgao           string         `db:"orgao"`
	Cidade          string         `db:"cidade"`
	Plataforma      string         `db:"plataforma"`
	NumeroPregao    string         `db:"numeroPregao"`
	Processo        string         `db:"processo"`
	Data            string         `db:"data"`
	Horario         string         `db:"horario"`
	Modalidade      string         `db:"modalidade"`
	Status          string         `db:"status"`
	Value           float64        `db:"value"`
	Items           string         `db:"items"`
	Deadlines       sql.NullString `db:"deadlines"`
	PaymentDeadline string         `db:"paymentDeadline"`
	IsPaid          int            `db:"isPaid"`
}

func (r bidRow) toModel() models.Bid {
	b := models.Bid{
		ID:              r.ID,
		Orgao:           r.Orgao,
		Cidade:          r.Cidade,
		Plataforma:      r.Plataforma,
		NumeroPregao:    r.NumeroPregao,
		Processo:        r.Processo,
		Data:            r.Data,
		Horario:         r.Horario,
		Modalidade:      r.Modalidade,
		Status:          models.Status(r.Status),
		Value:           r.Value,
		Items:           r.Items,
		PaymentDeadline: r.PaymentDeadline,
		IsPaid:          r.IsPaid != 0,
	}
	b.Deadlines = decodeDeadlines(r.Deadlines.String)
	return b
}

// decodeDeadlines tolerates empty or malformed blobs from older rows; they
// decode to the zero struct instead of failing the read.
func decodeDeadlines(raw string) models.Deadlines {
	var d models.Deadlines
	if raw == "" {
		return d
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return models.Deadlines{}
	}
	return d
}

func encodeDeadlines(d models.Deadlines) string {
	raw, err := json.Marshal(d)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func (s *Storage) GetAllBids(ctx context.Context) ([]models.Bid, error) {
	rows := []bidRow{}
	query := `SELECT * FROM bids`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	bids := make([]models.Bid, 0, len(rows))
	for _, r := range rows {
		bids = append(bids, r.toModel())
	}
	return bids, nil
}

func (s *Storage) GetBid(ctx context.Context, id string) (*models.Bid, error) {
	var r bidRow
	query := `SELECT * FROM bids WHERE id = ?`
	if err := s.db.GetContext(ctx, &r, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b := r.toModel()
	return &b, nil
}

func (s *Storage) PutBid(ctx context.Context, b *models.Bid) error {
	query := `
        INSERT OR REPLACE INTO bids (
            id, orgao, cidade, plataforma, numeroPregao, processo, data, horario,
            modalidade, status, value, items, deadlines, paymentDeadline, isPaid
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	isPaid := 0
	if b.IsPaid {
		isPaid = 1
	}
	_, err := s.db.ExecContext(ctx, query,
		b.ID, b.Orgao, b.Cidade, b.Plataforma, b.NumeroPregao, b.Processo,
		b.Data, b.Horario, b.Modalidade, string(b.Status), b.Value, b.Items,
		encodeDeadlines(b.Deadlines), b.PaymentDeadline, isPaid)
	return err
}

// bidColumns is the allow-list for PatchBid. Only these attribute names may
// appear in a partial update; id is immutable and deliberately absent.
var bidColumns = map[string]bool{
	"orgao":           true,
	"cidade":          true,
	"plataforma":      true,
	"numeroPregao":    true,
	"processo":        true,
	"data":            true,
	"horario":         true,
	"modalidade":      true,
	"status":          true,
	"value":           true,
	"items":           true,
	"deadlines":       true,
	"paymentDeadline": true,
	"isPaid":          true,
}

// truthy interpreta os valores soltos que clientes antigos mandavam para
// isPaid (true, 1, "1"), seguindo a semântica do painel original.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	}
	return true
}

// PatchBid applies a partial update. An empty field set is a no-op that never
// touches the database; an unknown field name fails with UnknownFieldError
// before any SQL is built.
func (s *Storage) PatchBid(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for name, value := range fields {
		if !bidColumns[name] {
			return &UnknownFieldError{Field: name}
		}
		switch name {
		case "deadlines":
			raw, err := json.Marshal(value)
			if err != nil {
				return fmt.Errorf("encode deadlines: %w", err)
			}
			value = string(raw)
		case "isPaid":
			if truthy(value) {
				value = 1
			} else {
				value = 0
			}
		}
		sets = append(sets, name+" = ?")
		args = append(args, value)
	}
	args = append(args, id)

	query := "UPDATE bids SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteBid is idempotent: deleting a missing id is not an error.
func (s *Storage) DeleteBid(ctx context.Context, id string) error {
	query := `DELETE FROM bids WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

func (s *Storage) GetAllFiles(ctx context.Context, fileType models.FileType) ([]models.FileRecord, error) {
	files := []models.FileRecord{}
	if fileType != "" {
		query := `SELECT id, filename, originalName, type, createdAt FROM files WHERE type = ? ORDER BY createdAt DESC`
		err := s.db.SelectContext(ctx, &files, query, string(fileType))
		return files, err
	}
	query := `SELECT id, filename, originalName, type, createdAt FROM files ORDER BY createdAt DESC`
	err := s.db.SelectContext(ctx, &files, query)
	return files, err
}

func (s *Storage) GetFile(ctx context.Context, id int) (*models.FileRecord, error) {
	var f models.FileRecord
	query := `SELECT id, filename, originalName, type, createdAt FROM files WHERE id = ?`
	if err := s.db.GetContext(ctx, &f, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (s *Storage) AddFile(ctx context.Context, f *models.FileRecord) error {
	query := `INSERT INTO files (filename, originalName, type, createdAt) VALUES (?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query, f.Filename, f.OriginalName, string(f.Type), f.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = int(id)
	return nil
}

func (s *Storage) DeleteFile(ctx context.Context, id int) error {
	query := `DELETE FROM files WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}
