// Package subscribers reads and writes items of the newsletter subscribers table.
package subscribers

import (
	"context"
	"fmt"

	"newsletter/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Record is a raw subscribers table item. The table enforces no schema beyond
// the key, so attributes are inspected individually.
type Record = map[string]ddbtypes.AttributeValue

// DynamoDBScanPaginatorAPI is a convenience wrapper over DynamoDB scan operations and is unit-testable.
type DynamoDBScanPaginatorAPI interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBNewScanPaginatorAPI is a type that allows creating instances of DynamoDBScanPaginatorAPI.
type DynamoDBNewScanPaginatorAPI func(
	client dynamodb.ScanAPIClient, params *dynamodb.ScanInput, optFns ...func(*dynamodb.ScanPaginatorOptions),
) DynamoDBScanPaginatorAPI

// NewScanPaginator wraps dynamodb.NewScanPaginator to satisfy DynamoDBNewScanPaginatorAPI.
func NewScanPaginator(
	client dynamodb.ScanAPIClient, params *dynamodb.ScanInput, optFns ...func(*dynamodb.ScanPaginatorOptions),
) DynamoDBScanPaginatorAPI {
	return dynamodb.NewScanPaginator(client, params, optFns...)
}

// ScannerConfig provides configuration options for a Scanner.
type ScannerConfig struct {
	ScanClient       dynamodb.ScanAPIClient
	NewScanPaginator DynamoDBNewScanPaginatorAPI
	TableName        string
	// MaxPages bounds the number of Scan requests per FetchAll. Zero means no bound.
	MaxPages int
	// PageSize sets the Scan Limit. Zero leaves it to DynamoDB.
	PageSize int32
	Logger   *zap.Logger
}

// Scanner drains the subscribers table.
type Scanner struct {
	scanClient       dynamodb.ScanAPIClient
	newScanPaginator DynamoDBNewScanPaginatorAPI
	tableName        string
	maxPages         int
	pageSize         int32
	log              *zap.Logger
}

// NewScanner creates a new Scanner instance.
func NewScanner(cfg ScannerConfig) *Scanner {
	nsp := cfg.NewScanPaginator
	if nsp == nil {
		nsp = NewScanPaginator
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{
		scanClient:       cfg.ScanClient,
		newScanPaginator: nsp,
		tableName:        cfg.TableName,
		maxPages:         cfg.MaxPages,
		pageSize:         cfg.PageSize,
		log:              log,
	}
}

func (s *Scanner) scanInput() (*dynamodb.ScanInput, error) {
	proj := expression.NamesList(
		expression.Name(types.AttrID),
		expression.Name(types.AttrEmail),
		expression.Name(types.AttrSubscribed),
	)
	e, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, err
	}
	return &dynamodb.ScanInput{
		TableName:                &s.tableName,
		ProjectionExpression:     e.Projection(),
		ExpressionAttributeNames: e.Names(),
	}, nil
}

// FetchAll returns every item in the table, in the order DynamoDB returned them.
// The first failing page aborts the scan; no partial result is returned.
func (s *Scanner) FetchAll(ctx context.Context) ([]Record, error) {
	input, err := s.scanInput()
	if err != nil {
		return nil, fmt.Errorf("error building scan projection: %w", err)
	}

	// A Paginator has to be made per-ScanInput so it's not a reusable resource.
	p := s.newScanPaginator(s.scanClient, input, func(o *dynamodb.ScanPaginatorOptions) {
		if s.pageSize > 0 {
			o.Limit = s.pageSize
		}
	})

	records := []Record{}
	pages := 0
	for p.HasMorePages() {
		if s.maxPages > 0 && pages == s.maxPages {
			return nil, &BackendError{Op: opScan, Table: s.tableName, Page: pages + 1, Err: ErrPageLimit}
		}
		if err := ctx.Err(); err != nil {
			return nil, &BackendError{Op: opScan, Table: s.tableName, Page: pages + 1, Err: err}
		}

		out, err := p.NextPage(ctx)
		pages++
		if err != nil {
			return nil, &BackendError{Op: opScan, Table: s.tableName, Page: pages, Err: err}
		}
		records = append(records, out.Items...)
	}

	s.log.Debug("scanned subscribers table",
		zap.String("table", s.tableName), zap.Int("pages", pages), zap.Int("items", len(records)))
	return records, nil
}
