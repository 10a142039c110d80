// Package dynamo provides the DynamoDB-backed implementation of
// [store.Store], the production datastore for the simulation dataset.
//
// Table layout: one item per incident, partition key "scenario", sort key
// "timestamp" (RFC 3339). Time-range filters become key conditions so the
// query stays index-served; domain and severity become filter expressions
// evaluated server-side.
package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jmallard/simwatch/internal/store"
)

// queryAPI is the subset of the DynamoDB client used by Store. Declared as
// an interface so tests can substitute a stub client.
type queryAPI interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Compile-time assertion that Store satisfies the store.Store interface.
var _ store.Store = (*Store)(nil)

// Store queries the incident table for a single scenario.
type Store struct {
	client   queryAPI
	table    string
	scenario string
}

// config holds optional configuration for the store.
type config struct {
	region   string
	endpoint string
	client   queryAPI
}

// Option is a functional option for Store.
type Option func(*config)

// WithRegion overrides the AWS region resolved from the environment.
func WithRegion(region string) Option {
	return func(c *config) {
		c.region = region
	}
}

// WithEndpoint points the client at a non-default endpoint, e.g. a local
// DynamoDB container.
func WithEndpoint(url string) Option {
	return func(c *config) {
		c.endpoint = url
	}
}

// WithClient injects a pre-built DynamoDB client. Intended for tests; when
// set, New skips AWS configuration loading entirely.
func WithClient(client queryAPI) Option {
	return func(c *config) {
		c.client = client
	}
}

// New constructs a Store over the given table and scenario partition.
func New(ctx context.Context, table, scenario string, opts ...Option) (*Store, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamo: table must not be empty")
	}
	if scenario == "" {
		return nil, fmt.Errorf("dynamo: scenario must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.client != nil {
		return &Store{client: cfg.client, table: table, scenario: scenario}, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamo: load aws config: %w", err)
	}

	var clientOpts []func(*dynamodb.Options)
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.endpoint)
		})
	}

	return &Store{
		client:   dynamodb.NewFromConfig(awsCfg, clientOpts...),
		table:    table,
		scenario: scenario,
	}, nil
}

// Query implements [store.Store.Query]. It pages through the scenario
// partition until the effective limit is reached, because DynamoDB applies
// filter expressions after the per-page read limit.
func (s *Store) Query(ctx context.Context, filter store.Filter) ([]store.Incident, error) {
	input := s.buildQuery(filter)
	limit := filter.EffectiveLimit()

	var incidents []store.Incident
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamo: query %q: %w", s.table, err)
		}

		var page []store.Incident
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("dynamo: unmarshal items: %w", err)
		}
		incidents = append(incidents, page...)

		if len(incidents) >= limit || out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	if len(incidents) > limit {
		incidents = incidents[:limit]
	}
	return incidents, nil
}

// buildQuery assembles the QueryInput for filter. Exposed within the package
// for tests.
func (s *Store) buildQuery(filter store.Filter) *dynamodb.QueryInput {
	names := map[string]string{
		"#sc": "scenario",
	}
	values := map[string]ddbtypes.AttributeValue{
		":sc": &ddbtypes.AttributeValueMemberS{Value: s.scenario},
	}
	keyCond := "#sc = :sc"

	start, end := filter.Start, filter.End
	switch {
	case !start.IsZero() && !end.IsZero():
		names["#ts"] = "timestamp"
		values[":start"] = &ddbtypes.AttributeValueMemberS{Value: formatTime(start)}
		values[":end"] = &ddbtypes.AttributeValueMemberS{Value: formatTime(end)}
		keyCond += " AND #ts BETWEEN :start AND :end"
	case !start.IsZero():
		names["#ts"] = "timestamp"
		values[":start"] = &ddbtypes.AttributeValueMemberS{Value: formatTime(start)}
		keyCond += " AND #ts >= :start"
	case !end.IsZero():
		names["#ts"] = "timestamp"
		values[":end"] = &ddbtypes.AttributeValueMemberS{Value: formatTime(end)}
		keyCond += " AND #ts <= :end"
	}

	var filterConds []string
	if filter.Domain != "" {
		names["#dom"] = "domain"
		values[":dom"] = &ddbtypes.AttributeValueMemberS{Value: string(filter.Domain)}
		filterConds = append(filterConds, "#dom = :dom")
	}
	if filter.Severity != "" {
		names["#sev"] = "severity"
		values[":sev"] = &ddbtypes.AttributeValueMemberS{Value: string(filter.Severity)}
		filterConds = append(filterConds, "#sev = :sev")
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
	if len(filterConds) > 0 {
		input.FilterExpression = aws.String(strings.Join(filterConds, " AND "))
	}
	return input
}

// formatTime renders t the way the population scripts write sort keys:
// RFC 3339 in UTC, so lexical order equals chronological order.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Ping implements [store.Store.Ping] via DescribeTable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return fmt.Errorf("dynamo: describe table %q: %w", s.table, err)
	}
	return nil
}
