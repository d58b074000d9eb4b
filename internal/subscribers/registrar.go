package subscribers

import (
	"context"
	"fmt"

	"newsletter/internal/ident"
	"newsletter/types"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// DynamoDBPutItemAPI provides a unit-testable interface to access the DynamoDB PutItem API.
type DynamoDBPutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Registrar adds subscribers to the table.
type Registrar struct {
	ddb       DynamoDBPutItemAPI
	tableName string
	newID     ident.Generator
	log       *zap.Logger
}

// NewRegistrar creates an instance of Registrar. A nil newID uses UUIDs.
func NewRegistrar(ddb DynamoDBPutItemAPI, tableName string, newID ident.Generator, log *zap.Logger) *Registrar {
	if newID == nil {
		newID = ident.NewUUID
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registrar{ddb, tableName, newID, log}
}

// Add stores a new subscribed item for address under a freshly generated id.
// The write is unconditional; ids are unique by construction.
func (r *Registrar) Add(ctx context.Context, address string) (types.Subscriber, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return types.Subscriber{}, fmt.Errorf("%q: %w", address, err)
	}

	sub := types.Subscriber{
		ID:         r.newID(),
		Email:      addr,
		Subscribed: true,
	}
	item, err := attributevalue.MarshalMap(sub)
	if err != nil {
		return sub, fmt.Errorf("could not marshal subscriber: %w", err)
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return sub, &BackendError{Op: opPut, Table: r.tableName, Err: err}
	}

	r.log.Info("subscriber added", zap.String("id", sub.ID))
	return sub, nil
}
