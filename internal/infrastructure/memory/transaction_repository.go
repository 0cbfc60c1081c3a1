package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct {
	s       *Store
	locking bool
}

func (r *transactionRepo) rlock() func() {
	if r.locking {
		r.s.mu.RLock()
		return r.s.mu.RUnlock
	}
	return func() {}
}

func (r *transactionRepo) wlock() func() {
	if r.locking {
		r.s.mu.Lock()
		return r.s.mu.Unlock
	}
	return func() {}
}

func (r *transactionRepo) Create(_ context.Context, tx *entity.Transaction) error {
	if tx.Quantity.IsZero() {
		return domain.Validationf("quantity", "la cantidad del movimiento no puede ser cero")
	}
	if tx.UnitPrice.IsNegative() {
		return domain.Validationf("unit_price", "el precio unitario no puede ser negativo")
	}
	defer r.wlock()()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if tx.Date.IsZero() {
		tx.Date = tx.CreatedAt
	}
	c := *tx
	r.s.txs[tx.ID] = &c
	r.s.txOrder = append(r.s.txOrder, tx.ID)
	return nil
}

func (r *transactionRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	defer r.rlock()()
	tx, ok := r.s.txs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *tx
	return &c, nil
}

func (r *transactionRepo) List(_ context.Context, filter repository.TransactionFilter) ([]*entity.Transaction, int, error) {
	defer r.rlock()()
	matched := r.filtered(filter)

	// orden por fecha, descendente por defecto
	sort.SliceStable(matched, func(i, j int) bool {
		if filter.SortAsc {
			return matched[i].Date.Before(matched[j].Date)
		}
		return matched[j].Date.Before(matched[i].Date)
	})

	total := len(matched)
	matched = page(matched, filter.Offset, filter.Limit)
	return matched, total, nil
}

func (r *transactionRepo) ListByDateRange(_ context.Context, from, to time.Time) ([]*entity.Transaction, error) {
	defer r.rlock()()
	var matched []*entity.Transaction
	for _, id := range r.s.txOrder {
		tx := r.s.txs[id]
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		c := *tx
		matched = append(matched, &c)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	return matched, nil
}

func (r *transactionRepo) CountByMaterial(_ context.Context, materialID string) (int, error) {
	defer r.rlock()()
	n := 0
	for _, tx := range r.s.txs {
		if tx.MaterialID == materialID {
			n++
		}
	}
	return n, nil
}

func (r *transactionRepo) NextSequence(_ context.Context, prefix string) (int, error) {
	defer r.rlock()()
	n := 0
	for _, tx := range r.s.txs {
		if strings.HasPrefix(tx.Code, prefix+"-") {
			n++
		}
	}
	return n + 1, nil
}

// UpdateStatus transición condicionada al estado previo, igual que el
// adaptador PostgreSQL: ErrConflict si el estado ya no es `from`.
func (r *transactionRepo) UpdateStatus(_ context.Context, id, from, to string) error {
	defer r.wlock()()
	tx, ok := r.s.txs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if tx.Status != from {
		return domain.ErrConflict
	}
	tx.Status = to
	return nil
}

func (r *transactionRepo) filtered(filter repository.TransactionFilter) []*entity.Transaction {
	var matched []*entity.Transaction
	for _, id := range r.s.txOrder {
		tx := r.s.txs[id]
		if filter.MaterialID != "" && tx.MaterialID != filter.MaterialID {
			continue
		}
		if filter.Type != "" && filter.Type != "all" && tx.Type != filter.Type {
			continue
		}
		if filter.Status != "" && filter.Status != "all" && tx.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && tx.UserID != filter.UserID {
			continue
		}
		if filter.Reference != "" && !strings.Contains(strings.ToLower(tx.Reference), strings.ToLower(filter.Reference)) {
			continue
		}
		if filter.From != nil && tx.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && tx.Date.After(*filter.To) {
			continue
		}
		c := *tx
		matched = append(matched, &c)
	}
	return matched
}
