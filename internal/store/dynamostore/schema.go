// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/store"
)

// TableInput returns the CreateTable request for the catalog schema:
// PK/RK base key, one global secondary index per store.Indexes entry
// projecting all attributes, on-demand billing.
func TableInput(name string) *dynamodb.CreateTableInput {
	attr := func(n string) ddbtypes.AttributeDefinition {
		return ddbtypes.AttributeDefinition{AttributeName: aws.String(n), AttributeType: ddbtypes.ScalarAttributeTypeS}
	}
	key := func(n string, kt ddbtypes.KeyType) ddbtypes.KeySchemaElement {
		return ddbtypes.KeySchemaElement{AttributeName: aws.String(n), KeyType: kt}
	}

	attrs := []ddbtypes.AttributeDefinition{attr(AttrPK), attr(AttrRK), attr(AttrSK)}
	gsis := make([]ddbtypes.GlobalSecondaryIndex, 0, len(store.Indexes))
	for _, idx := range store.Indexes {
		// indexKeys knows every entry of store.Indexes.
		hash, rng, _ := indexKeys(idx)
		keys := []ddbtypes.KeySchemaElement{key(hash, ddbtypes.KeyTypeHash)}
		if rng != "" {
			keys = append(keys, key(rng, ddbtypes.KeyTypeRange))
		}
		attrs = append(attrs, attr(hash))
		gsis = append(gsis, ddbtypes.GlobalSecondaryIndex{
			IndexName:  aws.String(string(idx)),
			KeySchema:  keys,
			Projection: &ddbtypes.Projection{ProjectionType: ddbtypes.ProjectionTypeAll},
		})
	}

	return &dynamodb.CreateTableInput{
		TableName:            aws.String(name),
		AttributeDefinitions: attrs,
		KeySchema: []ddbtypes.KeySchemaElement{
			key(AttrPK, ddbtypes.KeyTypeHash),
			key(AttrRK, ddbtypes.KeyTypeRange),
		},
		GlobalSecondaryIndexes: gsis,
		BillingMode:            ddbtypes.BillingModePayPerRequest,
	}
}

// CreateTable provisions the table. An existing table is not an error:
// created is false and the call still waits for the table to become
// active. A non-positive wait skips waiting.
func (t *Table) CreateTable(ctx context.Context, wait time.Duration) (created bool, err error) {
	_, err = t.api.CreateTable(ctx, TableInput(t.name))
	var inUse *ddbtypes.ResourceInUseException
	switch {
	case err == nil:
		created = true
		t.logger.Info("table created", zap.String("table", t.name))
	case errors.As(err, &inUse):
		t.logger.Info("table already exists", zap.String("table", t.name))
	default:
		return false, classify(fmt.Errorf("creating table %s: %w", t.name, err))
	}

	if wait <= 0 {
		return created, nil
	}
	waiter := dynamodb.NewTableExistsWaiter(t.api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.name)}, wait); err != nil {
		return created, fmt.Errorf("waiting for table %s: %w", t.name, err)
	}
	return created, nil
}
