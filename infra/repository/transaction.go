package repository

import (
	"context"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/transaction"
	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a ledger record repository on db.
// Records are only ever inserted.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	if tx.TransactedAt.IsZero() {
		tx.TransactedAt = time.Now().UTC()
	}
	m := mapTransactionDomainToModel(tx)
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	}); err != nil {
		return err
	}
	tx.ID = m.ID
	return nil
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&m).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapTransactionModelToDomain(&m), nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID int64) ([]*transaction.Transaction, error) {
	var rows []Transaction
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*transaction.Transaction, 0, len(rows))
	for i := range rows {
		result = append(result, mapTransactionModelToDomain(&rows[i]))
	}
	return result, nil
}

func (r *transactionRepository) ExistsCancelFor(ctx context.Context, originalTransactionID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("original_transaction_id = ? AND type = ? AND result = ?",
			originalTransactionID, string(transaction.Cancel), string(transaction.Success)).
		Count(&n).Error
	return n > 0, MapGormErrorToDomain(err)
}

func mapTransactionDomainToModel(tx *transaction.Transaction) Transaction {
	return Transaction{
		ID:                    tx.ID,
		TransactionID:         tx.TransactionID,
		Type:                  string(tx.Type),
		Result:                string(tx.Result),
		AccountID:             tx.AccountID,
		Amount:                tx.Amount,
		BalanceSnapshot:       tx.BalanceSnapshot,
		OriginalTransactionID: tx.OriginalTransactionID,
		TransactedAt:          tx.TransactedAt,
	}
}

func mapTransactionModelToDomain(m *Transaction) *transaction.Transaction {
	return &transaction.Transaction{
		ID:                    m.ID,
		TransactionID:         m.TransactionID,
		Type:                  transaction.Type(m.Type),
		Result:                transaction.Result(m.Result),
		AccountID:             m.AccountID,
		Amount:                m.Amount,
		BalanceSnapshot:       m.BalanceSnapshot,
		OriginalTransactionID: m.OriginalTransactionID,
		TransactedAt:          m.TransactedAt,
	}
}
