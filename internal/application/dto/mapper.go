package dto

import "github.com/tu-usuario/material-stock/internal/domain/entity"

// FromMaterial construye el DTO de un material calculando los campos derivados.
func FromMaterial(m *entity.Material) MaterialDTO {
	return MaterialDTO{
		ID:         m.ID,
		Code:       m.Code,
		Name:       m.Name,
		Category:   m.Category,
		Unit:       m.Unit,
		Quantity:   m.Quantity,
		MinStock:   m.MinStock,
		MaxStock:   m.MaxStock,
		UnitPrice:  m.UnitPrice,
		TotalValue: m.TotalValue(),
		StockLevel: m.StockLevel(),
		Status:     m.Status,
		Supplier:   m.Supplier,
		Warehouse:  m.Warehouse,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromTransaction construye el DTO de una entrada del ledger.
func FromTransaction(t *entity.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          t.ID,
		Code:        t.Code,
		Type:        t.Type,
		MaterialID:  t.MaterialID,
		Quantity:    t.Quantity,
		UnitPrice:   t.UnitPrice,
		TotalValue:  t.TotalValue,
		Reference:   t.Reference,
		Description: t.Description,
		Project:     t.Project,
		Supplier:    t.Supplier,
		UserID:      t.UserID,
		UserName:    t.UserName,
		Date:        t.Date,
		Status:      t.Status,
	}
}

// FromTransactions mapea un lote de entradas.
func FromTransactions(list []*entity.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(list))
	for _, t := range list {
		out = append(out, FromTransaction(t))
	}
	return out
}
