package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/mserjo/bossy-sub005/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Reference tables (statuses, user_types, group_types, ...) all share one
// column layout, so a single store parameterized by table name serves
// them all. The table name is validated once at construction; it is the
// only thing ever interpolated into SQL.

var dictTableRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

type DictStore struct {
	db    *DB
	table string
}

func NewDictStore(db *DB, table string) (*DictStore, error) {
	if !dictTableRe.MatchString(table) {
		return nil, fmt.Errorf("invalid dictionary table name %q", table)
	}
	return &DictStore{db: db, table: table}, nil
}

func (s *DictStore) Table() string { return s.table }

func (s *DictStore) GetByCode(ctx context.Context, code string) (domain.DictEntry, error) {
	q := fmt.Sprintf(`
		SELECT id, code, name, description, icon, color, is_system, created_at, updated_at, deleted_at
		FROM %s
		WHERE code = $1 AND deleted_at IS NULL
	`, s.table)

	e, err := scanDictEntry(s.db.Pool.QueryRow(ctx, q, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DictEntry{}, domain.ErrNotFound
		}
		return domain.DictEntry{}, fmt.Errorf("get %s by code: %w", s.table, err)
	}
	return e, nil
}

func (s *DictStore) GetByID(ctx context.Context, id string) (domain.DictEntry, error) {
	q := fmt.Sprintf(`
		SELECT id, code, name, description, icon, color, is_system, created_at, updated_at, deleted_at
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, s.table)

	e, err := scanDictEntry(s.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DictEntry{}, domain.ErrNotFound
		}
		return domain.DictEntry{}, fmt.Errorf("get %s by id: %w", s.table, err)
	}
	return e, nil
}

func (s *DictStore) List(ctx context.Context) ([]domain.DictEntry, error) {
	q := fmt.Sprintf(`
		SELECT id, code, name, description, icon, color, is_system, created_at, updated_at, deleted_at
		FROM %s
		WHERE deleted_at IS NULL
		ORDER BY code ASC
	`, s.table)

	rows, err := s.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []domain.DictEntry
	for rows.Next() {
		e, err := scanDictEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	return out, nil
}

// Seed inserts a system entry if it does not exist yet. Reseeding on
// every startup is safe.
func (s *DictStore) Seed(ctx context.Context, code, name, description string) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (code, name, description, is_system)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (code) DO NOTHING
	`, s.table)

	if _, err := s.db.Pool.Exec(ctx, q, code, name, nullIfEmpty(description)); err != nil {
		return fmt.Errorf("seed %s %q: %w", s.table, code, err)
	}
	return nil
}

func scanDictEntry(row pgx.Row) (domain.DictEntry, error) {
	var (
		e         domain.DictEntry
		idUUID    pgtype.UUID
		descText  pgtype.Text
		iconText  pgtype.Text
		colorText pgtype.Text
		deletedTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&e.Code,
		&e.Name,
		&descText,
		&iconText,
		&colorText,
		&e.IsSystem,
		&e.CreatedAt,
		&e.UpdatedAt,
		&deletedTS,
	)
	if err != nil {
		return domain.DictEntry{}, err
	}

	e.ID = uuidOrEmpty(idUUID)
	e.Description = textOrEmpty(descText)
	e.Icon = textOrEmpty(iconText)
	e.Color = textOrEmpty(colorText)
	e.DeletedAt = timestamptzPtr(deletedTS)
	return e, nil
}
