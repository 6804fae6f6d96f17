package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	domain "github.com/mohammadpnp/account-admin/internal/domain/account"
)

const (
	dynamoKeyAttribute   = "account_key"
	dynamoBatchWriteSize = 25
	dynamoMaxRetries     = 5
)

type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoAccountStore stores accounts in a table with string hash key `account_key`.
type DynamoAccountStore struct {
	client DynamoAPI
	table  string
}

func NewDynamoAccountStore(client DynamoAPI, table string) *DynamoAccountStore {
	return &DynamoAccountStore{client: client, table: table}
}

type ddbAccount struct {
	Key        string   `dynamodbav:"account_key"`
	AccountID  string   `dynamodbav:"account_id"`
	UID        string   `dynamodbav:"uid"`
	Password   string   `dynamodbav:"password"`
	RareTypes  []string `dynamodbav:"rare_types"`
	CreatedAt  string   `dynamodbav:"created_at"`
	UploadedAt string   `dynamodbav:"uploaded_at"`
}

func (d *DynamoAccountStore) Append(ctx context.Context, payload domain.Payload) (string, error) {
	key, err := newAccountKey()
	if err != nil {
		return "", err
	}

	rareTypes := payload.RareTypes
	if rareTypes == nil {
		rareTypes = []string{}
	}
	item, err := attributevalue.MarshalMap(ddbAccount{
		Key:        key,
		AccountID:  payload.AccountID,
		UID:        payload.UID,
		Password:   payload.Password,
		RareTypes:  rareTypes,
		CreatedAt:  payload.CreatedAt.UTC().Format(time.RFC3339Nano),
		UploadedAt: payload.UploadedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("marshal account: %w", err)
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(" + dynamoKeyAttribute + ")"),
	})
	if err != nil {
		return "", fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return key, nil
}

func (d *DynamoAccountStore) List(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account

	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			var da ddbAccount
			if err := attributevalue.UnmarshalMap(it, &da); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			a := domain.Account{
				Key:       da.Key,
				AccountID: da.AccountID,
				UID:       da.UID,
				Password:  da.Password,
				RareTypes: da.RareTypes,
			}
			if t, err := time.Parse(time.RFC3339Nano, da.CreatedAt); err == nil {
				a.CreatedAt = t
			}
			if t, err := time.Parse(time.RFC3339Nano, da.UploadedAt); err == nil {
				a.UploadedAt = t
			}
			accounts = append(accounts, a)
		}
	}

	// Scan order is arbitrary; keys are time ordered.
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Key < accounts[j].Key })
	return accounts, nil
}

func (d *DynamoAccountStore) Delete(ctx context.Context, key string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &d.table,
		Key:                 map[string]types.AttributeValue{dynamoKeyAttribute: &types.AttributeValueMemberS{Value: key}},
		ConditionExpression: aws.String("attribute_exists(" + dynamoKeyAttribute + ")"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return domain.ErrAccountNotFound
		}
		return fmt.Errorf("dynamodb DeleteItem failed: %w", err)
	}
	return nil
}

func (d *DynamoAccountStore) DeleteAll(ctx context.Context) (int64, error) {
	var keys []string
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{
		TableName:            &d.table,
		ProjectionExpression: aws.String(dynamoKeyAttribute),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			if v, ok := it[dynamoKeyAttribute].(*types.AttributeValueMemberS); ok {
				keys = append(keys, v.Value)
			}
		}
	}

	var deleted int64
	for start := 0; start < len(keys); start += dynamoBatchWriteSize {
		end := start + dynamoBatchWriteSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := d.batchDelete(ctx, keys[start:end]); err != nil {
			return deleted, err
		}
		deleted += int64(end - start)
	}
	return deleted, nil
}

func (d *DynamoAccountStore) batchDelete(ctx context.Context, keys []string) error {
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{dynamoKeyAttribute: &types.AttributeValueMemberS{Value: key}},
			},
		})
	}

	pending := map[string][]types.WriteRequest{d.table: requests}
	for attempt := 0; len(pending[d.table]) > 0; attempt++ {
		if attempt == dynamoMaxRetries {
			return fmt.Errorf("dynamodb BatchWriteItem left %d unprocessed deletes", len(pending[d.table]))
		}
		if attempt > 0 {
			if err := sleepWithContext(ctx, time.Duration(attempt)*100*time.Millisecond); err != nil {
				return err
			}
		}

		out, err := d.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("dynamodb BatchWriteItem failed: %w", err)
		}
		pending = out.UnprocessedItems
		if pending == nil {
			pending = map[string][]types.WriteRequest{}
		}
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
