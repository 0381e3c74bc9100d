// Package postgres persists change requests and their approver decisions.
// The aggregate spans two tables (change_requests, change_approvers) that
// are always written together; callers wrap mutations in a transaction via
// service.ChangeTx so the pair cannot drift apart.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"changeflow/internal/change/models"
	id "changeflow/pkg/domain"
	"changeflow/pkg/platform/sentinel"
	txcontext "changeflow/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const changeColumns = `
	id, number, title, description, implementation_plan, backout_plan,
	justification, type_id, priority_id, risk_id, impact_id, status,
	approval_required, strategy, submitter_id, submitted_at, requester_id,
	assignee_id, planned_start, planned_end, actual_start, actual_end,
	deleted_at, deleted_by, delete_reason, created_at, created_by,
	updated_at, updated_by, version
`

func (s *Store) Create(ctx context.Context, cr *models.ChangeRequest) error {
	cr.Version = 1
	query := `INSERT INTO change_requests (` + changeColumns + `) VALUES (` + placeholders(30) + `)`
	_, err := s.execer(ctx).ExecContext(ctx, query, changeArgs(cr)...)
	if err != nil {
		return fmt.Errorf("insert change request: %w", err)
	}
	return s.replaceApprovers(ctx, cr)
}

// FindByID loads the aggregate, soft-deleted or not. Inside a transaction
// the change row is locked so concurrent workflow operations on the same
// change serialize at the database.
func (s *Store) FindByID(ctx context.Context, changeID id.ChangeID) (*models.ChangeRequest, error) {
	exec := s.execer(ctx)

	query := `SELECT ` + changeColumns + ` FROM change_requests WHERE id = $1`
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}
	cr, err := scanChange(exec.QueryRowContext(ctx, query, uuid.UUID(changeID)))
	if err != nil {
		return nil, err
	}

	const approverQuery = `
		SELECT approver_id, assigned_at, state, comment, decided_at
		FROM change_approvers
		WHERE change_id = $1
		ORDER BY position ASC
	`
	rows, err := exec.QueryContext(ctx, approverQuery, uuid.UUID(changeID))
	if err != nil {
		return nil, fmt.Errorf("list approvers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			d        models.ParticipantDecision
			approver uuid.UUID
			state    string
		)
		if err := rows.Scan(&approver, &d.AssignedAt, &state, &d.Comment, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan approver: %w", err)
		}
		d.ApproverID = id.UserID(approver)
		d.State = models.DecisionState(state)
		cr.Approvers = append(cr.Approvers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cr, nil
}

// Update writes the aggregate guarded by the version column. Zero rows
// affected means a concurrent writer got there first.
func (s *Store) Update(ctx context.Context, cr *models.ChangeRequest) error {
	const query = `
		UPDATE change_requests SET
			title = $2, description = $3, implementation_plan = $4,
			backout_plan = $5, justification = $6, type_id = $7,
			priority_id = $8, risk_id = $9, impact_id = $10, status = $11,
			approval_required = $12, strategy = $13, submitter_id = $14,
			submitted_at = $15, requester_id = $16, assignee_id = $17,
			planned_start = $18, planned_end = $19, actual_start = $20,
			actual_end = $21, deleted_at = $22, deleted_by = $23,
			delete_reason = $24, updated_at = $25, updated_by = $26,
			version = version + 1
		WHERE id = $1 AND version = $27
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(cr.ID), cr.Title, cr.Description, cr.ImplementationPlan,
		cr.BackoutPlan, cr.Justification, cr.TypeID, cr.PriorityID,
		cr.RiskID, cr.ImpactID, string(cr.Status), cr.ApprovalRequired,
		string(cr.Strategy), nullUUID(uuid.UUID(cr.SubmitterID)), cr.SubmittedAt,
		nullUUID(uuid.UUID(cr.RequesterID)), nullUUID(uuid.UUID(cr.AssigneeID)),
		cr.PlannedStart, cr.PlannedEnd, cr.ActualStart, cr.ActualEnd,
		cr.DeletedAt, nullUUID(uuid.UUID(cr.DeletedBy)), cr.DeleteReason,
		cr.UpdatedAt, nullUUID(uuid.UUID(cr.UpdatedBy)), cr.Version,
	)
	if err != nil {
		return fmt.Errorf("update change request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update change request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	cr.Version++
	return s.replaceApprovers(ctx, cr)
}

func (s *Store) List(ctx context.Context, filter models.ListFilter) ([]*models.ChangeRequest, error) {
	query := `SELECT ` + changeColumns + ` FROM change_requests WHERE 1=1`
	var args []any
	if !filter.IncludeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		query += ` AND requester_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY number ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list change requests: %w", err)
	}
	defer rows.Close()

	var changes []*models.ChangeRequest
	for rows.Next() {
		cr, err := scanChangeRows(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, cr)
	}
	return changes, rows.Err()
}

// NextNumber allocates the next sequential change number from a database
// sequence, so numbers are monotonic and never reused across instances.
func (s *Store) NextNumber(ctx context.Context) (int64, error) {
	var number int64
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT nextval('change_number_seq')`).Scan(&number); err != nil {
		return 0, fmt.Errorf("allocate change number: %w", err)
	}
	return number, nil
}

// replaceApprovers rewrites the approver rows to mirror the aggregate.
func (s *Store) replaceApprovers(ctx context.Context, cr *models.ChangeRequest) error {
	exec := s.execer(ctx)
	if _, err := exec.ExecContext(ctx, `DELETE FROM change_approvers WHERE change_id = $1`, uuid.UUID(cr.ID)); err != nil {
		return fmt.Errorf("clear approvers: %w", err)
	}
	const insert = `
		INSERT INTO change_approvers (change_id, approver_id, position, assigned_at, state, comment, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, d := range cr.Approvers {
		if _, err := exec.ExecContext(ctx, insert,
			uuid.UUID(cr.ID), uuid.UUID(d.ApproverID), i,
			d.AssignedAt, string(d.State), d.Comment, d.DecidedAt,
		); err != nil {
			return fmt.Errorf("insert approver: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChange(row *sql.Row) (*models.ChangeRequest, error) {
	cr, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return cr, err
}

func scanChangeRows(rows *sql.Rows) (*models.ChangeRequest, error) {
	return scanInto(rows)
}

func scanInto(scanner rowScanner) (*models.ChangeRequest, error) {
	var (
		cr        models.ChangeRequest
		rawID     uuid.UUID
		status    string
		strategy  string
		submitter uuid.NullUUID
		requester uuid.NullUUID
		assignee  uuid.NullUUID
		deletedBy uuid.NullUUID
		createdBy uuid.NullUUID
		updatedBy uuid.NullUUID
	)
	err := scanner.Scan(
		&rawID, &cr.Number, &cr.Title, &cr.Description, &cr.ImplementationPlan,
		&cr.BackoutPlan, &cr.Justification, &cr.TypeID, &cr.PriorityID,
		&cr.RiskID, &cr.ImpactID, &status, &cr.ApprovalRequired, &strategy,
		&submitter, &cr.SubmittedAt, &requester, &assignee,
		&cr.PlannedStart, &cr.PlannedEnd, &cr.ActualStart, &cr.ActualEnd,
		&cr.DeletedAt, &deletedBy, &cr.DeleteReason,
		&cr.CreatedAt, &createdBy, &cr.UpdatedAt, &updatedBy, &cr.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan change request: %w", err)
	}
	cr.ID = id.ChangeID(rawID)
	cr.Status = models.ParseStatus(status)
	cr.Strategy = models.ParseStrategy(strategy)
	cr.SubmitterID = id.UserID(submitter.UUID)
	cr.RequesterID = id.UserID(requester.UUID)
	cr.AssigneeID = id.UserID(assignee.UUID)
	cr.DeletedBy = id.UserID(deletedBy.UUID)
	cr.CreatedBy = id.UserID(createdBy.UUID)
	cr.UpdatedBy = id.UserID(updatedBy.UUID)
	return &cr, nil
}

func changeArgs(cr *models.ChangeRequest) []any {
	return []any{
		uuid.UUID(cr.ID), cr.Number, cr.Title, cr.Description,
		cr.ImplementationPlan, cr.BackoutPlan, cr.Justification,
		cr.TypeID, cr.PriorityID, cr.RiskID, cr.ImpactID,
		string(cr.Status), cr.ApprovalRequired, string(cr.Strategy),
		nullUUID(uuid.UUID(cr.SubmitterID)), cr.SubmittedAt,
		nullUUID(uuid.UUID(cr.RequesterID)), nullUUID(uuid.UUID(cr.AssigneeID)),
		cr.PlannedStart, cr.PlannedEnd, cr.ActualStart, cr.ActualEnd,
		cr.DeletedAt, nullUUID(uuid.UUID(cr.DeletedBy)), cr.DeleteReason,
		cr.CreatedAt, nullUUID(uuid.UUID(cr.CreatedBy)),
		cr.UpdatedAt, nullUUID(uuid.UUID(cr.UpdatedBy)), cr.Version,
	}
}

func placeholders(n int) string {
	out := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += "$" + strconv.Itoa(i)
	}
	return out
}

func nullUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
