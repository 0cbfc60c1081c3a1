package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

var _ repository.MaterialRepository = (*MaterialRepo)(nil)

const materialColumns = `id, code, name, category, unit, quantity, min_stock, max_stock, unit_price, status, supplier, warehouse, notes, version, created_by, created_at, updated_at`

// MaterialRepo implementación del puerto MaterialRepository sobre PostgreSQL
// (usable con pool o tx).
type MaterialRepo struct {
	q Querier
}

// NewMaterialRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialRepository(q Querier) *MaterialRepo {
	return &MaterialRepo{q: q}
}

// Create persiste un material nuevo. El código único lo garantiza el índice.
func (r *MaterialRepo) Create(ctx context.Context, m *entity.Material) error {
	query := `
		INSERT INTO materials (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Code, m.Name, m.Category, m.Unit, m.Quantity, m.MinStock, m.MaxStock,
		m.UnitPrice, m.Status, m.Supplier, m.Warehouse, m.Notes, m.Version,
		m.CreatedBy, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// GetByID obtiene un material por ID.
func (r *MaterialRepo) GetByID(ctx context.Context, id string) (*entity.Material, error) {
	return r.getBy(ctx, "id", id, false)
}

// GetByCode obtiene un material por código (ya normalizado a mayúsculas).
func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*entity.Material, error) {
	return r.getBy(ctx, "code", code, false)
}

// GetForUpdate obtiene el material bloqueando la fila (SELECT FOR UPDATE).
// Dentro de una tx serializa las mutaciones sobre el mismo material.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	return r.getBy(ctx, "id", id, true)
}

func (r *MaterialRepo) getBy(ctx context.Context, column, value string, forUpdate bool) (*entity.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials WHERE ` + column + ` = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var m entity.Material
	err := r.q.QueryRow(ctx, query, value).Scan(
		&m.ID, &m.Code, &m.Name, &m.Category, &m.Unit, &m.Quantity, &m.MinStock,
		&m.MaxStock, &m.UnitPrice, &m.Status, &m.Supplier, &m.Warehouse, &m.Notes,
		&m.Version, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

// Update actualiza los atributos del material. No toca quantity ni version:
// el stock solo cambia vía UpdateStock.
func (r *MaterialRepo) Update(ctx context.Context, m *entity.Material) error {
	query := `
		UPDATE materials
		SET code = $2, name = $3, category = $4, unit = $5, min_stock = $6, max_stock = $7,
		    unit_price = $8, status = $9, supplier = $10, warehouse = $11, notes = $12, updated_at = $13
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		m.ID, m.Code, m.Name, m.Category, m.Unit, m.MinStock, m.MaxStock,
		m.UnitPrice, m.Status, m.Supplier, m.Warehouse, m.Notes, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("update material: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock escribe cantidad y precio con verificación de versión optimista;
// si la versión ya no coincide (otra operación ganó la carrera) devuelve
// domain.ErrConcurrency para que el motor reintente la operación completa.
func (r *MaterialRepo) UpdateStock(ctx context.Context, id string, quantity, unitPrice decimal.Decimal, expectedVersion int64) error {
	query := `
		UPDATE materials
		SET quantity = $2, unit_price = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4`
	cmd, err := r.q.Exec(ctx, query, id, quantity, unitPrice, expectedVersion)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConcurrency
	}
	return nil
}

// List lista materiales con filtro, orden y paginación; devuelve también el
// total de filas que cumplen el filtro. El filtro por nivel de stock derivado
// se expresa comparando quantity contra min_stock/max_stock.
func (r *MaterialRepo) List(ctx context.Context, filter repository.MaterialFilter) ([]*entity.Material, int, error) {
	where, args := buildMaterialWhere(filter)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM materials`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}

	sortColumn := "name"
	switch filter.SortBy {
	case "code", "name", "category", "quantity", "unit_price", "created_at", "updated_at":
		sortColumn = filter.SortBy
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM materials%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		materialColumns, where, sortColumn, direction, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	list, err := scanMaterials(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListAll devuelve todos los materiales (snapshot para analítica y resúmenes).
func (r *MaterialRepo) ListAll(ctx context.Context) ([]*entity.Material, error) {
	rows, err := r.q.Query(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list all materials: %w", err)
	}
	defer rows.Close()
	return scanMaterials(rows)
}

// Delete elimina físicamente un material. El caso de uso ya verificó que no
// tiene historial en el ledger.
func (r *MaterialRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func buildMaterialWhere(filter repository.MaterialFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" && filter.Status != "all" {
		add("status = $%d", filter.Status)
	}
	if filter.Category != "" && filter.Category != "all" {
		add("category = $%d", filter.Category)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d OR supplier ILIKE $%d)", n, n, n))
	}
	switch filter.StockLevel {
	case entity.StockLevelOut:
		conds = append(conds, "quantity <= 0")
	case entity.StockLevelLow:
		conds = append(conds, "quantity > 0 AND quantity <= min_stock")
	case entity.StockLevelOverstock:
		conds = append(conds, "quantity >= max_stock")
	case entity.StockLevelNormal:
		conds = append(conds, "quantity > min_stock AND quantity < max_stock")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanMaterials(rows pgx.Rows) ([]*entity.Material, error) {
	var list []*entity.Material
	for rows.Next() {
		var m entity.Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Category, &m.Unit, &m.Quantity,
			&m.MinStock, &m.MaxStock, &m.UnitPrice, &m.Status, &m.Supplier, &m.Warehouse,
			&m.Notes, &m.Version, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
