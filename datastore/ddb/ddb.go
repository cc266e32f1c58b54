/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suparena/dyndata/codec"
	"github.com/suparena/dyndata/datastore"
	"github.com/suparena/dyndata/errors"
	"github.com/suparena/dyndata/model"
)

// Partition and sort key attribute names of the single-table layout.
const (
	pkAttr = "PK"
	skAttr = "SK"
)

// Config holds the DynamoDB connection parameters.
type Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Table     string
}

// Store implements datastore.Store over one DynamoDB table. Collections map
// to partitions (PK = collection name) and documents to items whose sort key
// is derived from the key filter they were written under.
type Store struct {
	client *sdk.Client
	table  string
}

// New initializes a DynamoDB client using static credentials.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return &Store{client: sdk.NewFromConfig(awsCfg), table: cfg.Table}, nil
}

// Find queries the collection's partition, applying the remaining filter
// conditions as a filter expression and proj as a projection expression.
func (s *Store) Find(ctx context.Context, collection string, filter datastore.Filter, proj *datastore.Projection) ([]model.Document, error) {
	names := map[string]string{"#pk": pkAttr}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: collection},
	}

	input := &sdk.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    aws.String("#pk = :pk"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}

	var clauses []string
	for i, c := range filter {
		name := fmt.Sprintf("#f%d", i)
		names[name] = c.Field
		if c.Value == nil {
			values[":null"] = &types.AttributeValueMemberNULL{Value: true}
			clauses = append(clauses, fmt.Sprintf("(attribute_not_exists(%s) OR %s = :null)", name, name))
			continue
		}
		av, err := encodeValue(c.Value)
		if err != nil {
			return nil, err
		}
		values[fmt.Sprintf(":v%d", i)] = av
		clauses = append(clauses, fmt.Sprintf("%s = :v%d", name, i))
	}
	if len(clauses) > 0 {
		input.FilterExpression = aws.String(strings.Join(clauses, " AND "))
	}

	if proj != nil {
		var parts []string
		for i, f := range proj.Include {
			name := fmt.Sprintf("#p%d", i)
			names[name] = f
			parts = append(parts, name)
		}
		input.ProjectionExpression = aws.String(strings.Join(parts, ", "))
	}

	var result []model.Document
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			result = append(result, itemToDocument(item, proj))
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return result, nil
}

// UpsertOne writes the document under the sort key derived from filter,
// replacing any existing item.
func (s *Store) UpsertOne(ctx context.Context, collection string, filter datastore.Filter, doc model.Document) error {
	item, err := s.buildItem(collection, filter, doc)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return err
}

// InsertIfAbsent writes the document only when no item exists under the
// derived sort key; the conditional put makes check and insert one operation.
func (s *Store) InsertIfAbsent(ctx context.Context, collection string, filter datastore.Filter, doc model.Document) error {
	item, err := s.buildItem(collection, filter, doc)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &sdk.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if stderrors.As(err, &conditionFailed) {
		return errors.NewAlreadyExistsError(collection, sortKey(filter))
	}
	return err
}

// DeleteOne removes the item under the derived sort key.
func (s *Store) DeleteOne(ctx context.Context, collection string, filter datastore.Filter) error {
	_, err := s.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       itemKey(collection, filter),
	})
	return err
}

// IncrementOne atomically adds one to field on the item under the derived
// sort key, materializing the filter's conditions as attributes on first use.
func (s *Store) IncrementOne(ctx context.Context, collection string, filter datastore.Filter, field string) (int64, error) {
	names := map[string]string{"#ctr": field}
	values := map[string]types.AttributeValue{
		":one": &types.AttributeValueMemberN{Value: "1"},
	}
	expr := "ADD #ctr :one"

	var sets []string
	for i, c := range filter {
		name := fmt.Sprintf("#u%d", i)
		names[name] = c.Field
		av, err := encodeValue(c.Value)
		if err != nil {
			return 0, err
		}
		values[fmt.Sprintf(":u%d", i)] = av
		sets = append(sets, fmt.Sprintf("%s = if_not_exists(%s, :u%d)", name, name, i))
	}
	if len(sets) > 0 {
		expr += " SET " + strings.Join(sets, ", ")
	}

	out, err := s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       itemKey(collection, filter),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return 0, err
	}
	counter, ok := out.Attributes[field].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("counter field %q has non-numeric value", field)
	}
	var value int64
	if _, err := fmt.Sscan(counter.Value, &value); err != nil {
		return 0, fmt.Errorf("counter field %q: %w", field, err)
	}
	return value, nil
}

// EnsureUniqueIndex is a no-op: uniqueness per (PK, SK) is inherent to the
// layout, and the sort key is derived from exactly the fields the core
// indexes.
func (s *Store) EnsureUniqueIndex(ctx context.Context, collection string, fields []string) error {
	return nil
}

func (s *Store) buildItem(collection string, filter datastore.Filter, doc model.Document) (map[string]types.AttributeValue, error) {
	item := itemKey(collection, filter)
	for k, v := range doc {
		av, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		item[k] = av
	}
	return item, nil
}

func itemKey(collection string, filter datastore.Filter) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkAttr: &types.AttributeValueMemberS{Value: collection},
		skAttr: &types.AttributeValueMemberS{Value: sortKey(filter)},
	}
}

// sortKey renders the filter as a canonical string. Reads must use the same
// equality set the document was written under.
func sortKey(filter datastore.Filter) string {
	parts := make([]string, len(filter))
	for i, c := range filter {
		parts[i] = fmt.Sprintf("%s=%v", c.Field, renderScalar(c.Value))
	}
	return strings.Join(parts, "|")
}

func renderScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "<null>"
	case time.Time:
		return t.Format(codec.TimestampLayout)
	case primitive.Decimal128:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// encodeValue maps the codec's typed value set onto DynamoDB attribute
// values; anything outside the set goes through attributevalue marshaling.
func encodeValue(v any) (types.AttributeValue, error) {
	switch t := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: t}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: t}, nil
	case int32:
		return &types.AttributeValueMemberN{Value: fmt.Sprint(t)}, nil
	case int64:
		return &types.AttributeValueMemberN{Value: fmt.Sprint(t)}, nil
	case primitive.Decimal128:
		return &types.AttributeValueMemberN{Value: t.String()}, nil
	case time.Time:
		return &types.AttributeValueMemberS{Value: t.Format(codec.TimestampLayout)}, nil
	case model.Document:
		encoded := make(map[string]types.AttributeValue, len(t))
		for k, item := range t {
			av, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			encoded[k] = av
		}
		return &types.AttributeValueMemberM{Value: encoded}, nil
	case []any:
		encoded := make([]types.AttributeValue, len(t))
		for i, item := range t {
			av, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			encoded[i] = av
		}
		return &types.AttributeValueMemberL{Value: encoded}, nil
	default:
		return attributevalue.Marshal(v)
	}
}

func itemToDocument(item map[string]types.AttributeValue, proj *datastore.Projection) model.Document {
	doc := model.Document{}
	for k, av := range item {
		if k == pkAttr || k == skAttr {
			if proj == nil || !proj.Includes(k) {
				continue
			}
		}
		doc[k] = decodeValue(av)
	}
	return doc
}

func decodeValue(av types.AttributeValue) any {
	switch t := av.(type) {
	case *types.AttributeValueMemberS:
		return t.Value
	case *types.AttributeValueMemberN:
		return json.Number(t.Value)
	case *types.AttributeValueMemberBOOL:
		return t.Value
	case *types.AttributeValueMemberNULL:
		return nil
	case *types.AttributeValueMemberM:
		doc := make(model.Document, len(t.Value))
		for k, item := range t.Value {
			doc[k] = decodeValue(item)
		}
		return doc
	case *types.AttributeValueMemberL:
		out := make([]any, len(t.Value))
		for i, item := range t.Value {
			out[i] = decodeValue(item)
		}
		return out
	default:
		return nil
	}
}
