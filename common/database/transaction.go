package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MaxTransactionItems is the DynamoDB limit for TransactWriteItems.
const MaxTransactionItems = 100

type TransactionBuilder struct {
	items []types.TransactWriteItem
	limit int
}

func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{
		items: make([]types.TransactWriteItem, 0),
		limit: MaxTransactionItems,
	}
}

func (tb *TransactionBuilder) AddPut(item types.Put) error {
	if len(tb.items) >= tb.limit {
		return fmt.Errorf("transaction limit exceeded: %d items", tb.limit)
	}
	tb.items = append(tb.items, types.TransactWriteItem{
		Put: &item,
	})
	return nil
}

func (tb *TransactionBuilder) AddUpdate(item types.Update) error {
	if len(tb.items) >= tb.limit {
		return fmt.Errorf("transaction limit exceeded: %d items", tb.limit)
	}
	tb.items = append(tb.items, types.TransactWriteItem{
		Update: &item,
	})
	return nil
}

func (tb *TransactionBuilder) AddConditionCheck(item types.ConditionCheck) error {
	if len(tb.items) >= tb.limit {
		return fmt.Errorf("transaction limit exceeded: %d items", tb.limit)
	}
	tb.items = append(tb.items, types.TransactWriteItem{
		ConditionCheck: &item,
	})
	return nil
}

func (tb *TransactionBuilder) Items() []types.TransactWriteItem {
	return tb.items
}

func (tb *TransactionBuilder) Execute(ctx context.Context, client *dynamodb.Client) error {
	if len(tb.items) == 0 {
		return fmt.Errorf("no items in transaction")
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: tb.items,
	}

	_, err := client.TransactWriteItems(ctx, input)
	return err
}

func (tb *TransactionBuilder) Count() int {
	return len(tb.items)
}
