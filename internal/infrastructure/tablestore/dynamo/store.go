package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/riskibarqy/clash-tables/internal/domain/table"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
)

const defaultTableWait = 2 * time.Minute

// API is the subset of the DynamoDB client used by the store.
type API interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Dialer builds DynamoDB services from either credential form. For the
// shared-key form the account name is the access key id and the access key
// is the secret.
type Dialer struct {
	region   string
	endpoint string
	logger   *logging.Logger
}

func NewDialer(region, endpoint string, logger *logging.Logger) *Dialer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dialer{
		region:   strings.TrimSpace(region),
		endpoint: strings.TrimSpace(endpoint),
		logger:   logger.Named("dynamo"),
	}
}

func (d *Dialer) DialConnectionString(ctx context.Context, connectionString string) (table.Service, error) {
	cs, err := ParseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}
	if cs.Region == "" {
		cs.Region = d.region
	}
	if cs.Endpoint == "" {
		cs.Endpoint = d.endpoint
	}
	return d.dial(ctx, cs)
}

func (d *Dialer) DialSharedKey(ctx context.Context, accountName, accessKey string) (table.Service, error) {
	return d.dial(ctx, ConnectionString{
		Endpoint:        d.endpoint,
		Region:          d.region,
		AccessKeyID:     strings.TrimSpace(accountName),
		SecretAccessKey: strings.TrimSpace(accessKey),
	})
}

func (d *Dialer) dial(ctx context.Context, cs ConnectionString) (table.Service, error) {
	if cs.Region == "" {
		return nil, fmt.Errorf("dynamodb region is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cs.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cs.AccessKeyID, cs.SecretAccessKey, cs.SessionToken)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cs.Endpoint != "" {
			o.BaseEndpoint = aws.String(cs.Endpoint)
		}
	})
	d.logger.DebugContext(ctx, "dynamodb client created", "region", cs.Region, "endpoint", cs.Endpoint)
	return NewService(client, d.logger), nil
}

type Service struct {
	api       API
	tableWait time.Duration
	logger    *logging.Logger
}

func NewService(api API, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{api: api, tableWait: defaultTableWait, logger: logger}
}

func (s *Service) CreateTableIfNotExists(ctx context.Context, name string) (table.Client, error) {
	_, err := s.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(table.ColumnPartitionKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(table.ColumnRowKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(table.ColumnPartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(table.ColumnRowKey), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return nil, fmt.Errorf("create table %s: %w", name, classify(err))
		}
	} else {
		s.logger.InfoContext(ctx, "dynamodb table created", "table", name)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)}, s.tableWait); err != nil {
		return nil, fmt.Errorf("wait for table %s: %w", name, classify(err))
	}
	return &Client{api: s.api, tableName: name}, nil
}

func (s *Service) Close() error {
	return nil
}

type Client struct {
	api       API
	tableName string
}

func (c *Client) CreateEntity(ctx context.Context, row table.Row) error {
	item, err := attributevalue.MarshalMap(row.Properties())
	if err != nil {
		return fmt.Errorf("marshal row %s: %w", row.Key(), err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name(table.ColumnPartitionKey).AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("build create condition: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(c.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return classify(err)
}

func (c *Client) UpsertEntity(ctx context.Context, row table.Row) error {
	item, err := attributevalue.MarshalMap(row.Properties())
	if err != nil {
		return fmt.Errorf("marshal row %s: %w", row.Key(), err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	return classify(err)
}

func (c *Client) GetEntity(ctx context.Context, partitionKey, rowKey string, projection []string) (table.Row, error) {
	input := &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            keyAttributes(table.Key{PartitionKey: partitionKey, RowKey: rowKey}),
		ConsistentRead: aws.Bool(true),
	}
	if proj, ok := projectionBuilder(projection); ok {
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return table.Row{}, fmt.Errorf("build projection: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	out, err := c.api.GetItem(ctx, input)
	if err != nil {
		return table.Row{}, classify(err)
	}
	if len(out.Item) == 0 {
		return table.Row{}, table.ErrNotFound
	}
	return unmarshalRow(out.Item)
}

// QueryEntities issues a Query when the filter pins the partition key and a
// Scan otherwise.
func (c *Client) QueryEntities(ctx context.Context, filter table.Filter, projection []string, pageToken string) (table.Page, error) {
	startKey := startKeyFromToken(pageToken)
	if pk, ok := filter.PartitionKey(); ok {
		return c.query(ctx, pk, filter, projection, startKey)
	}
	return c.scan(ctx, filter, projection, startKey)
}

func (c *Client) query(ctx context.Context, pk string, filter table.Filter, projection []string, startKey map[string]types.AttributeValue) (table.Page, error) {
	keyCond := expression.Key(table.ColumnPartitionKey).Equal(expression.Value(pk))
	rest := make(table.Filter, 0, len(filter))
	for _, cond := range filter {
		switch cond.Column {
		case table.ColumnPartitionKey:
		case table.ColumnRowKey:
			keyCond = keyCond.And(expression.Key(table.ColumnRowKey).Equal(expression.Value(cond.Value)))
		default:
			rest = append(rest, cond)
		}
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if cond, ok := conditionBuilder(rest); ok {
		builder = builder.WithFilter(cond)
	}
	if proj, ok := projectionBuilder(projection); ok {
		builder = builder.WithProjection(proj)
	}
	expr, err := builder.Build()
	if err != nil {
		return table.Page{}, fmt.Errorf("build query expression: %w", err)
	}

	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(c.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
	})
	if err != nil {
		return table.Page{}, classify(err)
	}
	return buildPage(out.Items, out.LastEvaluatedKey)
}

func (c *Client) scan(ctx context.Context, filter table.Filter, projection []string, startKey map[string]types.AttributeValue) (table.Page, error) {
	input := &dynamodb.ScanInput{
		TableName:         aws.String(c.tableName),
		ExclusiveStartKey: startKey,
	}

	cond, hasCond := conditionBuilder(filter)
	proj, hasProj := projectionBuilder(projection)
	if hasCond || hasProj {
		builder := expression.NewBuilder()
		if hasCond {
			builder = builder.WithFilter(cond)
		}
		if hasProj {
			builder = builder.WithProjection(proj)
		}
		expr, err := builder.Build()
		if err != nil {
			return table.Page{}, fmt.Errorf("build scan expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	out, err := c.api.Scan(ctx, input)
	if err != nil {
		return table.Page{}, classify(err)
	}
	return buildPage(out.Items, out.LastEvaluatedKey)
}

func conditionBuilder(filter table.Filter) (expression.ConditionBuilder, bool) {
	if len(filter) == 0 {
		return expression.ConditionBuilder{}, false
	}
	conds := make([]expression.ConditionBuilder, 0, len(filter))
	for _, c := range filter {
		conds = append(conds, expression.Name(c.Column).Equal(expression.Value(c.Value)))
	}
	if len(conds) == 1 {
		return conds[0], true
	}
	return expression.And(conds[0], conds[1], conds[2:]...), true
}

func projectionBuilder(columns []string) (expression.ProjectionBuilder, bool) {
	if len(columns) == 0 {
		return expression.ProjectionBuilder{}, false
	}
	names := make([]expression.NameBuilder, 0, len(columns)+2)
	names = append(names, expression.Name(table.ColumnPartitionKey), expression.Name(table.ColumnRowKey))
	for _, col := range columns {
		if col == table.ColumnPartitionKey || col == table.ColumnRowKey {
			continue
		}
		names = append(names, expression.Name(col))
	}
	return expression.NamesList(names[0], names[1:]...), true
}

func keyAttributes(k table.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		table.ColumnPartitionKey: &types.AttributeValueMemberS{Value: k.PartitionKey},
		table.ColumnRowKey:       &types.AttributeValueMemberS{Value: k.RowKey},
	}
}

func startKeyFromToken(token string) map[string]types.AttributeValue {
	key, ok := table.DecodeCursor(token)
	if !ok {
		return nil
	}
	return keyAttributes(key)
}

func buildPage(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) (table.Page, error) {
	page := table.Page{Rows: make([]table.Row, 0, len(items))}
	for _, item := range items {
		row, err := unmarshalRow(item)
		if err != nil {
			return table.Page{}, err
		}
		page.Rows = append(page.Rows, row)
	}

	if len(lastKey) > 0 {
		var key struct {
			PartitionKey string `dynamodbav:"PartitionKey"`
			RowKey       string `dynamodbav:"RowKey"`
		}
		if err := attributevalue.UnmarshalMap(lastKey, &key); err != nil {
			return table.Page{}, fmt.Errorf("unmarshal last evaluated key: %w", err)
		}
		page.NextToken = table.EncodeCursor(table.Key{PartitionKey: key.PartitionKey, RowKey: key.RowKey})
	}
	return page, nil
}

func unmarshalRow(item map[string]types.AttributeValue) (table.Row, error) {
	props := make(map[string]any, len(item))
	if err := attributevalue.UnmarshalMap(item, &props); err != nil {
		return table.Row{}, fmt.Errorf("unmarshal item: %w", err)
	}
	return table.RowFromProperties(props), nil
}
