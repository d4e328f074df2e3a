package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/burakmert236/goodswipe-escrow/common/database"
)

const (
	kvSK      = "KV"
	seqPrefix = "SEQ#"

	dataAttr    = "data"
	membersAttr = "members"
)

// DynamoStore keeps one item per key (PK=key, SK=KV) with the value in a
// binary attribute. Sequences are list attributes on a SEQ# item.
type DynamoStore struct {
	db     *database.DynamoDBClient
	txRepo database.TransactionRepository
}

var _ Store = (*DynamoStore)(nil)

func NewDynamoStore(db *database.DynamoDBClient) *DynamoStore {
	return &DynamoStore{
		db:     db,
		txRepo: database.NewTransactionRepository(db),
	}
}

func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := s.db.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.db.Table()),
		Key:            itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get item %s: %w", key, err)
	}

	if result.Item == nil {
		return nil, false, nil
	}

	data, ok := result.Item[dataAttr].(*types.AttributeValueMemberB)
	if !ok {
		return nil, false, fmt.Errorf("item %s has no binary %s attribute", key, dataAttr)
	}

	return data.Value, true, nil
}

func (s *DynamoStore) Range(ctx context.Context, seq string, from, limit int) ([]string, error) {
	result, err := s.db.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.db.Table()),
		Key:                  itemKey(seqPrefix + seq),
		ProjectionExpression: aws.String(membersAttr),
		ConsistentRead:       aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get sequence %s: %w", seq, err)
	}

	list, _ := result.Item[membersAttr].(*types.AttributeValueMemberL)
	if list == nil {
		return []string{}, nil
	}

	start, end, ok := window(len(list.Value), from, limit)
	if !ok {
		return []string{}, nil
	}

	members := make([]string, 0, end-start)
	for _, av := range list.Value[start:end] {
		member, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("sequence %s holds a non-string member", seq)
		}
		members = append(members, member.Value)
	}

	return members, nil
}

// Commit writes all ops in one TransactWriteItems call. Appends to the
// same sequence are merged because a transaction may touch an item once.
func (s *DynamoStore) Commit(ctx context.Context, ops []Op) error {
	builder, err := s.buildTransaction(ops)
	if err != nil {
		return err
	}
	if builder.Count() == 0 {
		return nil
	}

	if err := s.txRepo.Execute(ctx, builder); err != nil {
		if errors.Is(err, database.ErrTransactionConflict) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *DynamoStore) buildTransaction(ops []Op) (*database.TransactionBuilder, error) {
	builder := database.NewTransactionBuilder()

	appends := make(map[string][]types.AttributeValue)
	var seqOrder []string

	for _, op := range ops {
		switch op.Kind {
		case OpPut, OpInsert:
			put := types.Put{
				TableName: aws.String(s.db.Table()),
				Item: map[string]types.AttributeValue{
					"PK":     &types.AttributeValueMemberS{Value: op.Key},
					"SK":     &types.AttributeValueMemberS{Value: kvSK},
					dataAttr: &types.AttributeValueMemberB{Value: op.Value},
				},
			}
			expect := op.Expect
			if op.Kind == OpInsert {
				expect = &Expect{Absent: true}
			}
			if expect != nil {
				cond := condition(expect)
				put.ConditionExpression = cond.expression
				put.ExpressionAttributeNames = cond.names
				put.ExpressionAttributeValues = cond.values
			}
			if err := builder.AddPut(put); err != nil {
				return nil, err
			}
		case OpCheck:
			if op.Expect == nil {
				continue
			}
			cond := condition(op.Expect)
			check := types.ConditionCheck{
				TableName:                 aws.String(s.db.Table()),
				Key:                       itemKey(op.Key),
				ConditionExpression:       cond.expression,
				ExpressionAttributeNames:  cond.names,
				ExpressionAttributeValues: cond.values,
			}
			if err := builder.AddConditionCheck(check); err != nil {
				return nil, err
			}
		case OpAppend:
			if _, ok := appends[op.Key]; !ok {
				seqOrder = append(seqOrder, op.Key)
			}
			appends[op.Key] = append(appends[op.Key], &types.AttributeValueMemberS{Value: string(op.Value)})
		}
	}

	for _, seq := range seqOrder {
		update := types.Update{
			TableName:        aws.String(s.db.Table()),
			Key:              itemKey(seqPrefix + seq),
			UpdateExpression: aws.String("SET #members = list_append(if_not_exists(#members, :empty), :members)"),
			ExpressionAttributeNames: map[string]string{
				"#members": membersAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":empty":   &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
				":members": &types.AttributeValueMemberL{Value: appends[seq]},
			},
		}
		if err := builder.AddUpdate(update); err != nil {
			return nil, err
		}
	}

	return builder, nil
}

type itemCondition struct {
	expression *string
	names      map[string]string
	values     map[string]types.AttributeValue
}

// condition renders an expectation as a condition on the KV item.
func condition(expect *Expect) itemCondition {
	if expect.Absent {
		return itemCondition{expression: aws.String("attribute_not_exists(PK)")}
	}
	return itemCondition{
		expression: aws.String("#data = :expected"),
		names:      map[string]string{"#data": dataAttr},
		values: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberB{Value: expect.Value},
		},
	}
}

func itemKey(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: kvSK},
	}
}
