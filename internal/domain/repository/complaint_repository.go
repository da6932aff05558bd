package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"
)

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *model.Complaint) error
	FindByID(ctx context.Context, id string) (*model.Complaint, error)
	List(ctx context.Context, filter model.ComplaintFilter) ([]model.Complaint, int, error)
	// UpdateDetails writes title, description, category, priority and
	// updated_at, only while the stored status still equals expected.
	UpdateDetails(ctx context.Context, complaint *model.Complaint, expected model.ComplaintStatus) error
	// UpdateStatus writes status, admin_response, resolved_at and updated_at,
	// only while the stored status still equals expected.
	UpdateStatus(ctx context.Context, complaint *model.Complaint, expected model.ComplaintStatus) error
	// Delete removes the complaint only while its stored status equals expected.
	Delete(ctx context.Context, id string, expected model.ComplaintStatus) error
	CountByStatus(ctx context.Context) (map[model.ComplaintStatus]int, error)
}

type pgComplaintRepository struct {
	db *sql.DB
}

func NewPgComplaintRepository(db *sql.DB) ComplaintRepository {
	return &pgComplaintRepository{db: db}
}

const complaintColumns = `id, owner_id, title, description, category, priority, status, admin_response, created_at, updated_at, resolved_at`

func (r *pgComplaintRepository) Create(ctx context.Context, c *model.Complaint) error {
	query := `INSERT INTO complaints (` + complaintColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.OwnerID, c.Title, c.Description, c.Category, c.Priority, c.Status,
		nullString(c.AdminResponse), c.CreatedAt, c.UpdatedAt, nullTime(c))
	if err != nil {
		return storeError("pgComplaintRepository.Create", err)
	}
	return nil
}

func (r *pgComplaintRepository) FindByID(ctx context.Context, id string) (*model.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	c := &model.Complaint{}
	if err := scanComplaint(r.db.QueryRowContext(ctx, query, id), c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, storeError("pgComplaintRepository.FindByID", err)
	}
	return c, nil
}

func scanComplaint(row rowScanner, c *model.Complaint) error {
	var adminResponse sql.NullString
	var resolvedAt sql.NullTime
	err := row.Scan(&c.ID, &c.OwnerID, &c.Title, &c.Description, &c.Category, &c.Priority, &c.Status,
		&adminResponse, &c.CreatedAt, &c.UpdatedAt, &resolvedAt)
	if err != nil {
		return err
	}
	if adminResponse.Valid {
		c.AdminResponse = &adminResponse.String
	}
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.Time
	}
	return nil
}

func (r *pgComplaintRepository) List(ctx context.Context, filter model.ComplaintFilter) ([]model.Complaint, int, error) {
	var baseQuery strings.Builder
	baseQuery.WriteString(`SELECT ` + complaintColumns + ` FROM complaints`)

	var countQuery strings.Builder
	countQuery.WriteString(`SELECT COUNT(*) FROM complaints`)

	var conditions []string
	var args []interface{}
	argID := 1

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argID))
		args = append(args, filter.OwnerID)
		argID++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, filter.Status)
		argID++
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argID))
		args = append(args, filter.Category)
		argID++
	}

	if len(conditions) > 0 {
		whereClause := " WHERE " + strings.Join(conditions, " AND ")
		baseQuery.WriteString(whereClause)
		countQuery.WriteString(whereClause)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery.String(), args...).Scan(&total); err != nil {
		return nil, 0, storeError("pgComplaintRepository.List count", err)
	}

	baseQuery.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, 0, storeError("pgComplaintRepository.List query", err)
	}
	defer rows.Close()

	complaints := []model.Complaint{}
	for rows.Next() {
		var c model.Complaint
		if err := scanComplaint(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("pgComplaintRepository.List scan: %w", err)
		}
		complaints = append(complaints, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, storeError("pgComplaintRepository.List rows.Err", err)
	}
	return complaints, total, nil
}

func (r *pgComplaintRepository) UpdateDetails(ctx context.Context, c *model.Complaint, expected model.ComplaintStatus) error {
	query := `UPDATE complaints
	          SET title = $1, description = $2, category = $3, priority = $4, updated_at = $5
	          WHERE id = $6 AND status = $7`
	return r.execConditional(ctx, "pgComplaintRepository.UpdateDetails", c.ID, query,
		c.Title, c.Description, c.Category, c.Priority, c.UpdatedAt, c.ID, expected)
}

func (r *pgComplaintRepository) UpdateStatus(ctx context.Context, c *model.Complaint, expected model.ComplaintStatus) error {
	query := `UPDATE complaints
	          SET status = $1, admin_response = $2, updated_at = $3, resolved_at = $4
	          WHERE id = $5 AND status = $6`
	return r.execConditional(ctx, "pgComplaintRepository.UpdateStatus", c.ID, query,
		c.Status, nullString(c.AdminResponse), c.UpdatedAt, nullTime(c), c.ID, expected)
}

func (r *pgComplaintRepository) Delete(ctx context.Context, id string, expected model.ComplaintStatus) error {
	return r.execConditional(ctx, "pgComplaintRepository.Delete", id,
		`DELETE FROM complaints WHERE id = $1 AND status = $2`, id, expected)
}

// execConditional runs a write guarded by the status read earlier. When no row
// matches, the complaint is either gone (ErrNotFound) or was changed by
// another request (ErrConflict).
func (r *pgComplaintRepository) execConditional(ctx context.Context, op, id, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return storeError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError(op+" rows affected", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return storeError(op+" exists", err)
	}
	if !exists {
		return common.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, common.ErrConflict)
}

func (r *pgComplaintRepository) CountByStatus(ctx context.Context) (map[model.ComplaintStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM complaints GROUP BY status`)
	if err != nil {
		return nil, storeError("pgComplaintRepository.CountByStatus", err)
	}
	defer rows.Close()

	counts := map[model.ComplaintStatus]int{}
	for rows.Next() {
		var status model.ComplaintStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("pgComplaintRepository.CountByStatus scan: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("pgComplaintRepository.CountByStatus rows.Err", err)
	}
	return counts, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(c *model.Complaint) sql.NullTime {
	if c.ResolvedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *c.ResolvedAt, Valid: true}
}
