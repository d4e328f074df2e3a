package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ErrTransactionConflict reports a transaction that was cancelled because a
// condition did not hold or a concurrent transaction touched the same item.
// Nothing was written.
var ErrTransactionConflict = errors.New("transaction conflict")

type TransactionRepository interface {
	Execute(ctx context.Context, transactionBuilder *TransactionBuilder) error
}

type transactionRepo struct {
	db *DynamoDBClient
}

func NewTransactionRepository(db *DynamoDBClient) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Execute(ctx context.Context, transactionBuilder *TransactionBuilder) error {
	return classify(transactionBuilder.Execute(ctx, r.db.Client))
}

func classify(err error) error {
	if err == nil {
		return nil
	}

	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return err
	}

	for _, reason := range canceled.CancellationReasons {
		if reason.Code == nil {
			continue
		}
		switch *reason.Code {
		case "ConditionalCheckFailed", "TransactionConflict":
			return fmt.Errorf("%w: %v", ErrTransactionConflict, err)
		}
	}

	return err
}
