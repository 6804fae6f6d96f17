package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
	"github.com/mohammadpnp/account-admin/internal/infrastructure/repository"
)

type fakeDynamo struct {
	items       map[string]map[string]types.AttributeValue
	batchCalls  int
	unprocessed int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	return item["account_key"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[itemKey(params.Item)] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key := itemKey(params.Key)
	if _, ok := f.items[key]; !ok {
		return nil, fmt.Errorf("operation error DynamoDB: DeleteItem: %w", &types.ConditionalCheckFailedException{})
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.batchCalls++
	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, requests := range params.RequestItems {
		for i, req := range requests {
			if i < f.unprocessed {
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], req)
				continue
			}
			delete(f.items, itemKey(req.DeleteRequest.Key))
		}
	}
	f.unprocessed = 0
	return out, nil
}

func TestDynamoAccountStoreAppendAndList(t *testing.T) {
	t.Parallel()

	client := newFakeDynamo()
	store := repository.NewDynamoAccountStore(client, "Accounts")

	var keys []string
	for i := 0; i < 3; i++ {
		key, err := store.Append(context.Background(), domain.Payload{
			AccountID: fmt.Sprintf("A%d", i),
			UID:       "U",
			Password:  "P",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		keys = append(keys, key)
	}

	accounts, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("expected 3 accounts, got %d", len(accounts))
	}
	for i, a := range accounts {
		if a.Key != keys[i] || a.AccountID != fmt.Sprintf("A%d", i) {
			t.Fatalf("unexpected order at %d: %+v", i, a)
		}
	}
}

func TestDynamoAccountStoreDelete(t *testing.T) {
	t.Parallel()

	store := repository.NewDynamoAccountStore(newFakeDynamo(), "Accounts")

	key, err := store.Append(context.Background(), domain.Payload{AccountID: "A1", UID: "U1", Password: "P1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.Delete(context.Background(), key); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := store.Delete(context.Background(), key); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDynamoAccountStoreDeleteAllRetriesUnprocessed(t *testing.T) {
	t.Parallel()

	client := newFakeDynamo()
	store := repository.NewDynamoAccountStore(client, "Accounts")
	for i := 0; i < 30; i++ {
		if _, err := store.Append(context.Background(), domain.Payload{AccountID: "A", UID: "U", Password: "P"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	client.unprocessed = 2

	deleted, err := store.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if deleted != 30 || len(client.items) != 0 {
		t.Fatalf("expected all 30 deleted, got %d (remaining %d)", deleted, len(client.items))
	}
	if client.batchCalls != 3 {
		t.Fatalf("expected 3 batch calls (2 chunks + 1 retry), got %d", client.batchCalls)
	}
}
