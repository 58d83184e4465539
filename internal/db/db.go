package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// DynamoAPI is the subset of the DynamoDB client the store calls.
type DynamoAPI interface {
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type Client struct {
	DebugMode   bool
	Client      aws.Config
	Table       string
	Region      string
	DDBEndpoint string
	DDB         DynamoAPI
	Logger      *zerolog.Logger
}

// MappingItem represents a key -> URL mapping in DynamoDB
type MappingItem struct {
	ID          string `dynamodbav:"id"`           // Caller supplied key (partition key)
	RedirectURL string `dynamodbav:"redirect_url"` // The full URL to redirect to
}

// TableActiveTimeout bounds how long EnsureTable waits for a new table.
var TableActiveTimeout = 2 * time.Minute

const (
	attrID          = "id"
	attrRedirectURL = "redirect_url"
)

// SetupDB builds the DynamoDB client and creates the table when it is missing.
func SetupDB(ctx context.Context, c *Client) error {
	cfg, err := config.LoadDefaultConfig(ctx, func(o *config.LoadOptions) error {
		o.Region = c.Region

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load aws config: %w", err)
	}

	c.Client = cfg
	if c.DDBEndpoint != "" {
		// Local endpoints (dynamodb-local, localstack) accept any credentials
		c.Client.Credentials = credentials.NewStaticCredentialsProvider("dummy1", "dummy2", "dummy3")
		c.DDB = dynamodb.NewFromConfig(c.Client, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(c.DDBEndpoint)
		})
		c.Logger.Info().Str("endpoint", c.DDBEndpoint).Msg("Using custom DynamoDB endpoint")
	} else {
		c.DDB = dynamodb.NewFromConfig(c.Client)
	}

	return EnsureTable(ctx, c)
}

// EnsureTable creates the mappings table when DescribeTable reports it missing
// and waits until it is ACTIVE. Other DescribeTable errors are returned.
func EnsureTable(ctx context.Context, c *Client) error {
	_, err := c.DDB.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.Table),
	})
	if err == nil {
		if c.DebugMode {
			c.Logger.Debug().Str("table", c.Table).Msg("Connected to DynamoDB table")
		}
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table: %w", err)
	}

	if c.DebugMode {
		c.Logger.Debug().Str("table", c.Table).Msg("Table doesn't exist, creating...")
	}

	// Only key attributes need to be defined in AttributeDefinitions
	_, err = c.DDB.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(c.Table),
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String(attrID),
				KeyType:       types.KeyTypeHash,
			},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String(attrID),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	waiter := dynamodb.NewTableExistsWaiter(c.DDB)
	err = waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.Table),
	}, TableActiveTimeout)
	if err != nil {
		return fmt.Errorf("failed waiting for table to become active: %w", err)
	}

	if c.DebugMode {
		c.Logger.Debug().Str("table", c.Table).Msg("Table created successfully")
	}

	return nil
}
