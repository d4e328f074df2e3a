package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/burakmert236/goodswipe-escrow/common/config"
)

type DynamoDBClient struct {
	Client    *dynamodb.Client
	TableName string
}

func NewDynamoDBClient(ctx context.Context, cfg *config.Config) (*DynamoDBClient, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.UseLocalEndpoint {
		accessKey, secretKey := cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey
		if accessKey == "" {
			accessKey, secretKey = "dummy", "dummy"
		}

		awsCfg, err = aws_config.LoadDefaultConfig(ctx,
			aws_config.WithRegion(cfg.AWS.Region),
			aws_config.WithBaseEndpoint(cfg.AWS.Endpoint),
			aws_config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
			),
		)
	} else {
		awsCfg, err = aws_config.LoadDefaultConfig(ctx,
			aws_config.WithRegion(cfg.AWS.Region),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		o.RetryMaxAttempts = cfg.DynamoDB.MaxRetries
	})

	return &DynamoDBClient{
		Client:    client,
		TableName: cfg.DynamoDB.TableName,
	}, nil
}

func (c *DynamoDBClient) Table() string {
	return c.TableName
}

const tableReadyTimeout = 2 * time.Minute

// EnsureTable creates the PK/SK table on demand. Only meant for local
// endpoints; production tables are provisioned outside the service.
func (c *DynamoDBClient) EnsureTable(ctx context.Context) error {
	_, err := c.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.TableName),
	})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table %s: %w", c.TableName, err)
	}

	_, err = c.Client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(c.TableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", c.TableName, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(c.Client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(c.TableName)}, tableReadyTimeout)
}
