package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/material-stock/internal/domain"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

var _ repository.MaterialRepository = (*materialRepo)(nil)

// materialRepo vista de materiales sobre el Store. Con locking=false asume
// que el caller (Store.Run) ya tiene el lock exclusivo.
type materialRepo struct {
	s       *Store
	locking bool
}

func (r *materialRepo) rlock() func() {
	if r.locking {
		r.s.mu.RLock()
		return r.s.mu.RUnlock
	}
	return func() {}
}

func (r *materialRepo) wlock() func() {
	if r.locking {
		r.s.mu.Lock()
		return r.s.mu.Unlock
	}
	return func() {}
}

func (r *materialRepo) Create(_ context.Context, m *entity.Material) error {
	defer r.wlock()()
	for _, existing := range r.s.materials {
		if existing.Code == m.Code {
			return domain.ErrDuplicateCode
		}
	}
	c := *m
	r.s.materials[m.ID] = &c
	return nil
}

func (r *materialRepo) GetByID(_ context.Context, id string) (*entity.Material, error) {
	defer r.rlock()()
	m, ok := r.s.materials[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (r *materialRepo) GetByCode(_ context.Context, code string) (*entity.Material, error) {
	defer r.rlock()()
	for _, m := range r.s.materials {
		if m.Code == code {
			c := *m
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetForUpdate en memoria equivale a GetByID: la exclusión la da el lock del
// Store durante Run.
func (r *materialRepo) GetForUpdate(ctx context.Context, id string) (*entity.Material, error) {
	return r.GetByID(ctx, id)
}

func (r *materialRepo) Update(_ context.Context, m *entity.Material) error {
	defer r.wlock()()
	current, ok := r.s.materials[m.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.s.materials {
		if existing.ID != m.ID && existing.Code == m.Code {
			return domain.ErrDuplicateCode
		}
	}
	c := *m
	// quantity y version solo cambian vía UpdateStock
	c.Quantity = current.Quantity
	c.Version = current.Version
	r.s.materials[m.ID] = &c
	return nil
}

func (r *materialRepo) UpdateStock(_ context.Context, id string, quantity, unitPrice decimal.Decimal, expectedVersion int64) error {
	defer r.wlock()()
	m, ok := r.s.materials[id]
	if !ok {
		return domain.ErrNotFound
	}
	if m.Version != expectedVersion {
		return domain.ErrConcurrency
	}
	m.Quantity = quantity
	m.UnitPrice = unitPrice
	m.Version++
	m.UpdatedAt = time.Now()
	return nil
}

func (r *materialRepo) List(_ context.Context, filter repository.MaterialFilter) ([]*entity.Material, int, error) {
	defer r.rlock()()
	var matched []*entity.Material
	search := strings.ToLower(filter.Search)
	for _, m := range r.s.materials {
		if filter.Status != "" && filter.Status != "all" && m.Status != filter.Status {
			continue
		}
		if filter.Category != "" && filter.Category != "all" && m.Category != filter.Category {
			continue
		}
		if filter.StockLevel != "" && filter.StockLevel != "all" && m.StockLevel() != filter.StockLevel {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Code), search) &&
			!strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.Supplier), search) {
			continue
		}
		c := *m
		matched = append(matched, &c)
	}

	less := func(a, b *entity.Material) bool { return a.Name < b.Name }
	switch filter.SortBy {
	case "code":
		less = func(a, b *entity.Material) bool { return a.Code < b.Code }
	case "quantity":
		less = func(a, b *entity.Material) bool { return a.Quantity.LessThan(b.Quantity) }
	case "created_at":
		less = func(a, b *entity.Material) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if filter.SortDesc {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	total := len(matched)
	matched = page(matched, filter.Offset, filter.Limit)
	return matched, total, nil
}

func (r *materialRepo) ListAll(_ context.Context) ([]*entity.Material, error) {
	defer r.rlock()()
	list := make([]*entity.Material, 0, len(r.s.materials))
	for _, m := range r.s.materials {
		c := *m
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

func (r *materialRepo) Delete(_ context.Context, id string) error {
	defer r.wlock()()
	if _, ok := r.s.materials[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.materials, id)
	return nil
}

// page aplica offset/limit sobre una lista ya ordenada.
func page[T any](list []T, offset, limit int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
