package stock

import (
	"context"

	"github.com/tu-usuario/material-stock/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que la actualización del material y
// el append al ledger se confirmen juntos o se reviertan juntos: hacia afuera
// nunca existe un estado aplicado a medias.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		materialRepo repository.MaterialRepository,
		txRepo repository.TransactionRepository,
	) error) error
}
