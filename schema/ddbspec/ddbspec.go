// Package ddbspec maps schema tables onto AWS SDK table descriptions.
// It performs pure data mapping for downstream provisioning tooling and
// never constructs a client or makes a network call.
package ddbspec

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tuanknguyen/tablegen/schema"
)

// CreateTableInput builds the CreateTable request describing t, including
// its GSIs. Billing mode is on-demand: provisioning arithmetic belongs to
// the cost estimator, not here.
func CreateTableInput(t *schema.Table) (*dynamodb.CreateTableInput, error) {
	attrs := map[string]types.ScalarAttributeType{}
	addAttr := func(k schema.KeyDef) error {
		kind, err := scalarKind(k.Kind)
		if err != nil {
			return fmt.Errorf("table %s attribute %s: %w", t.Name, k.Name, err)
		}
		attrs[k.Name] = kind
		return nil
	}

	if err := addAttr(t.PartitionKey); err != nil {
		return nil, err
	}
	keySchema := []types.KeySchemaElement{{
		AttributeName: aws.String(t.PartitionKey.Name),
		KeyType:       types.KeyTypeHash,
	}}
	if t.SortKey != nil {
		if err := addAttr(*t.SortKey); err != nil {
			return nil, err
		}
		keySchema = append(keySchema, types.KeySchemaElement{
			AttributeName: aws.String(t.SortKey.Name),
			KeyType:       types.KeyTypeRange,
		})
	}

	var gsis []types.GlobalSecondaryIndex
	for _, gsi := range t.GSIs {
		if err := addAttr(gsi.PartitionKey); err != nil {
			return nil, err
		}
		schemaElems := []types.KeySchemaElement{{
			AttributeName: aws.String(gsi.PartitionKey.Name),
			KeyType:       types.KeyTypeHash,
		}}
		if gsi.SortKey != nil {
			if err := addAttr(*gsi.SortKey); err != nil {
				return nil, err
			}
			schemaElems = append(schemaElems, types.KeySchemaElement{
				AttributeName: aws.String(gsi.SortKey.Name),
				KeyType:       types.KeyTypeRange,
			})
		}
		gsis = append(gsis, types.GlobalSecondaryIndex{
			IndexName:  aws.String(gsi.Name),
			KeySchema:  schemaElems,
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}

	// Attribute definitions sorted by name for stable output.
	defs := make([]types.AttributeDefinition, 0, len(attrs))
	for _, name := range sortedKeys(attrs) {
		defs = append(defs, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: attrs[name],
		})
	}

	return &dynamodb.CreateTableInput{
		TableName:              aws.String(t.Name),
		BillingMode:            types.BillingModePayPerRequest,
		AttributeDefinitions:   defs,
		KeySchema:              keySchema,
		GlobalSecondaryIndexes: gsis,
	}, nil
}

func scalarKind(kind string) (types.ScalarAttributeType, error) {
	switch kind {
	case "S":
		return types.ScalarAttributeTypeS, nil
	case "N":
		return types.ScalarAttributeTypeN, nil
	case "B":
		return types.ScalarAttributeTypeB, nil
	}
	return "", fmt.Errorf("unknown key kind %q (want S, N, or B)", kind)
}

func sortedKeys(m map[string]types.ScalarAttributeType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
