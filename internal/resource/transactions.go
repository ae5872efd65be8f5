package resource

import (
	"context"

	"finance-client/internal/models"

	"github.com/sirupsen/logrus"
)

// TransactionAPI is the gateway surface the transactions hook uses.
type TransactionAPI interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, p models.TransactionPayload) (models.Transaction, error)
}

var transactionMessages = Messages{
	Unauthenticated: unauthenticated,
	AccessDenied:    "Access denied. Token may be expired.",
	FetchFailed:     "Failed to connect to Finance Server. Check backend",
	AddFailed: func(error) string {
		return "Failed to log transaction. Server denied entry"
	},
}

// Transactions is the ledger hook.
type Transactions struct {
	*Hook[models.Transaction, models.TransactionInput]
}

// NewTransactions creates the transactions hook. Amounts are signed from the
// input kind before they are sent.
func NewTransactions(gw TransactionAPI, session Session, logger *logrus.Logger) *Transactions {
	create := func(ctx context.Context, in models.TransactionInput) (models.Transaction, error) {
		return gw.CreateTransaction(ctx, in.Payload())
	}
	validate := func(in models.TransactionInput) error { return in.Validate() }

	return &Transactions{
		Hook: newHook("transactions", session, transactionMessages, gw.ListTransactions, create, validate, logger),
	}
}
