// Package memory implementa los puertos de persistencia sobre mapas en
// memoria, con la misma semántica que el adaptador PostgreSQL (errores de
// dominio, verificación de versión optimista, atomicidad con rollback).
// Lo usa la batería de tests; también sirve para demos sin base de datos.
package memory

import (
	"context"
	"sync"

	"github.com/tu-usuario/material-stock/internal/application/stock"
	"github.com/tu-usuario/material-stock/internal/domain/entity"
	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

var _ stock.TxRunner = (*Store)(nil)

// Store contenedor compartido: materiales + ledger bajo un mismo mutex.
type Store struct {
	mu        sync.RWMutex
	materials map[string]*entity.Material
	txs       map[string]*entity.Transaction
	txOrder   []string // orden de inserción del ledger
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		materials: map[string]*entity.Material{},
		txs:       map[string]*entity.Transaction{},
	}
}

// MaterialRepo devuelve la vista de materiales con bloqueo por llamada.
func (s *Store) MaterialRepo() repository.MaterialRepository {
	return &materialRepo{s: s, locking: true}
}

// TransactionRepo devuelve la vista del ledger con bloqueo por llamada.
func (s *Store) TransactionRepo() repository.TransactionRepository {
	return &transactionRepo{s: s, locking: true}
}

// Run ejecuta fn bajo el lock exclusivo del almacén con semántica
// commit-or-abort: si fn falla, el estado vuelve al snapshot previo, de modo
// que nunca queda visible un material actualizado sin su entrada del ledger
// (ni al revés).
func (s *Store) Run(ctx context.Context, fn func(
	materialRepo repository.MaterialRepository,
	txRepo repository.TransactionRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapMaterials, snapTxs, snapOrder := s.clone()
	err := fn(&materialRepo{s: s}, &transactionRepo{s: s})
	if err != nil {
		s.materials, s.txs, s.txOrder = snapMaterials, snapTxs, snapOrder
		return err
	}
	return nil
}

func (s *Store) clone() (map[string]*entity.Material, map[string]*entity.Transaction, []string) {
	materials := make(map[string]*entity.Material, len(s.materials))
	for k, v := range s.materials {
		c := *v
		materials[k] = &c
	}
	txs := make(map[string]*entity.Transaction, len(s.txs))
	for k, v := range s.txs {
		c := *v
		txs[k] = &c
	}
	order := make([]string, len(s.txOrder))
	copy(order, s.txOrder)
	return materials, txs, order
}
