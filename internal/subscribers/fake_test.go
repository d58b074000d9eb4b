package subscribers

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const TableName = "TABLE"

// fakeTable is an in-memory table keyed on "id" that paginates Scan results
// the way DynamoDB does: a LastEvaluatedKey is returned whenever a page is full.
type fakeTable struct {
	mu          sync.Mutex
	ids         []string
	items       map[string]Record
	defaultPage int
	scans       int
	failOnScan  int // 1-based Scan call to fail, 0 for none
	scanErr     error
	lastInput   *dynamodb.ScanInput
}

func newFakeTable(pageSize int) *fakeTable {
	return &fakeTable{items: map[string]Record{}, defaultPage: pageSize}
}

func (f *fakeTable) put(item Record) {
	id := item["id"].(*ddbtypes.AttributeValueMemberS).Value
	if _, ok := f.items[id]; !ok {
		f.ids = append(f.ids, id)
	}
	f.items[id] = item
}

func (f *fakeTable) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := params.Item["id"].(*ddbtypes.AttributeValueMemberS); !ok {
		return nil, errors.New("ValidationException: missing key id")
	}
	f.put(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	f.lastInput = params
	if f.failOnScan != 0 && f.scans == f.failOnScan {
		return nil, f.scanErr
	}

	start := 0
	if k, ok := params.ExclusiveStartKey["id"].(*ddbtypes.AttributeValueMemberS); ok {
		for i, id := range f.ids {
			if id == k.Value {
				start = i + 1
				break
			}
		}
	}

	limit := f.defaultPage
	if params.Limit != nil {
		limit = int(*params.Limit)
	}
	if limit <= 0 {
		limit = len(f.ids) + 1
	}
	stop := start + limit
	if stop > len(f.ids) {
		stop = len(f.ids)
	}

	out := &dynamodb.ScanOutput{Items: []map[string]ddbtypes.AttributeValue{}}
	for _, id := range f.ids[start:stop] {
		out.Items = append(out.Items, f.items[id])
	}
	out.Count = int32(len(out.Items))
	if stop-start == limit {
		out.LastEvaluatedKey = map[string]ddbtypes.AttributeValue{
			"id": &ddbtypes.AttributeValueMemberS{Value: f.ids[stop-1]},
		}
	}
	return out, nil
}
