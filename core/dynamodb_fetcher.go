package core

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient defines the interface needed for scanning.
type DynamoDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBShipmentFetcher implements ShipmentFetcher against a DynamoDB
// table of shipment lines.
type DynamoDBShipmentFetcher struct {
	Client DynamoDBClient
	Table  string
}

// NewDynamoDBShipmentFetcher creates a new fetcher with the given AWS config.
func NewDynamoDBShipmentFetcher(cfg aws.Config, table string) *DynamoDBShipmentFetcher {
	if table == "" {
		table = "shipment_lines"
	}
	return &DynamoDBShipmentFetcher{
		Client: dynamodb.NewFromConfig(cfg),
		Table:  table,
	}
}

// Fetch scans the table for one shipment's lines and reshapes them into
// the typed bundle.
func (f *DynamoDBShipmentFetcher) Fetch(name string) (*ShipmentData, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(f.Table),
		FilterExpression: aws.String("#k0 = :v0"),
		// #k / :v naming avoids reserved word conflicts.
		ExpressionAttributeNames: map[string]string{"#k0": "shipment"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v0": &types.AttributeValueMemberS{Value: name},
		},
	}

	paginator := dynamodb.NewScanPaginator(f.Client, input)
	var lines []map[string]interface{}

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.TODO())
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", f.Table, err)
		}

		var pageItems []map[string]interface{}
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		lines = append(lines, pageItems...)
	}

	if len(lines) == 0 {
		return nil, fmt.Errorf("no lines found for shipment %q", name)
	}
	return shipmentFromLines(lines), nil
}
