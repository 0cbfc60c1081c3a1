package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

const transactionColumns = `id, code, type, material_id, quantity, unit_price, total_value, reference, description, project, supplier, user_id, user_name, date, status, created_at`

// TransactionRepo implementación del ledger sobre PostgreSQL (usable con pool
// o tx). Append-only: no existe DELETE; la cancelación es UpdateStatus.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create persiste una entrada del ledger. Asigna ID y timestamps si faltan;
// rechaza delta cero y precio negativo.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	if t.Quantity.IsZero() {
		return domain.Validationf("quantity", "el delta no puede ser cero")
	}
	if t.UnitPrice.IsNegative() {
		return domain.Validationf("unit_price", "el precio no puede ser negativo")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	if t.Date.IsZero() {
		t.Date = now
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Code, t.Type, t.MaterialID, t.Quantity, t.UnitPrice, t.TotalValue,
		t.Reference, t.Description, t.Project, t.Supplier, t.UserID, t.UserName,
		t.Date, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	var t entity.Transaction
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Code, &t.Type, &t.MaterialID, &t.Quantity, &t.UnitPrice, &t.TotalValue,
		&t.Reference, &t.Description, &t.Project, &t.Supplier, &t.UserID, &t.UserName,
		&t.Date, &t.Status, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// List devuelve la página y el total de entradas que cumplen el filtro.
// Orden por fecha descendente salvo que el filtro indique lo contrario.
func (r *TransactionRepo) List(ctx context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, int, error) {
	where, args := buildTransactionWhere(filter)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	sortColumn := "date"
	switch filter.SortBy {
	case "date", "type", "total_value", "created_at":
		sortColumn = filter.SortBy
	}
	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		transactionColumns, where, sortColumn, direction, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	list, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListByDateRange devuelve todas las entradas del rango, ascendente por fecha
// (snapshot completo para el motor de reportes).
func (r *TransactionRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE date >= $1 AND date <= $2 ORDER BY date ASC`
	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list by date range: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// CountByMaterial cuenta las entradas que referencian al material.
func (r *TransactionRepo) CountByMaterial(ctx context.Context, materialID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM transactions WHERE material_id = $1`, materialID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by material: %w", err)
	}
	return count, nil
}

// NextSequence devuelve el siguiente consecutivo para el prefijo del día
// (ej. IN-20260831). Se invoca dentro de la tx de la operación, así el código
// queda consistente con el resto de la escritura.
func (r *TransactionRepo) NextSequence(ctx context.Context, prefix string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM transactions WHERE code LIKE $1`, prefix+"-%").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return count + 1, nil
}

// UpdateStatus cambia el estado de una entrada (única mutación permitida).
// El predicado sobre el estado previo hace la transición atómica: si otra
// transacción ya la cambió, 0 filas afectadas y ErrConflict, nunca una
// reversión duplicada.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE transactions SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("update transaction status: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func buildTransactionWhere(filter repository.TransactionFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.MaterialID != "" {
		add("material_id = $%d", filter.MaterialID)
	}
	if filter.Type != "" && filter.Type != "all" {
		add("type = $%d", filter.Type)
	}
	if filter.Status != "" && filter.Status != "all" {
		add("status = $%d", filter.Status)
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.Reference != "" {
		add("reference ILIKE $%d", "%"+filter.Reference+"%")
	}
	if filter.From != nil {
		add("date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("date <= $%d", *filter.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanTransactions(rows pgx.Rows) ([]*entity.Transaction, error) {
	var list []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		if err := rows.Scan(&t.ID, &t.Code, &t.Type, &t.MaterialID, &t.Quantity, &t.UnitPrice,
			&t.TotalValue, &t.Reference, &t.Description, &t.Project, &t.Supplier,
			&t.UserID, &t.UserName, &t.Date, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
