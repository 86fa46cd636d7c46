package dynamodb

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsv2xray "github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
)

// Client wraps the DynamoDB connection for the single-table store.
//
// Key layout:
//
//	USER#<id>        META        user record
//	USERNAME#<name>  META        username guard, holds UserID
//	USER#<id>        ROLE#<rid>  role assignment (RoleCode denormalized)
//	ROLE#<id>        META        role record
//	ROLE#<id>        PERM#<pid>  permission link (PermissionCode denormalized)
//	PERM#<id>        META        permission record
type Client struct {
	db        *awsv2dynamodb.Client
	tableName string
}

func NewClient(ctx context.Context, region, tableName string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	awsv2xray.AWSV2Instrumentor(&cfg.APIOptions)
	return &Client{db: awsv2dynamodb.NewFromConfig(cfg), tableName: tableName}, nil
}

const (
	entityUser           = "USER"
	entityUsername       = "USERNAME"
	entityRole           = "ROLE"
	entityPermission     = "PERMISSION"
	entityUserRole       = "USER_ROLE"
	entityRolePermission = "ROLE_PERMISSION"
)

func userPK(userID string) string       { return "USER#" + userID }
func usernamePK(username string) string { return "USERNAME#" + username }
func rolePK(roleID string) string       { return "ROLE#" + roleID }
func permPK(permissionID string) string { return "PERM#" + permissionID }
func roleSK(roleID string) string       { return "ROLE#" + roleID }
func permSK(permissionID string) string { return "PERM#" + permissionID }
func metaSK() string                    { return "META" }

func isConditionalCheckFailure(err error) bool {
	var condErr *awsv2types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// scanEntity pages through the table collecting every item of one entity
// type. The table holds admin-scale data, so full scans stay cheap.
func (c *Client) scanEntity(ctx context.Context, segment, entityType string) ([]map[string]awsv2types.AttributeValue, error) {
	var items []map[string]awsv2types.AttributeValue
	var startKey map[string]awsv2types.AttributeValue
	for {
		var out *awsv2dynamodb.ScanOutput
		err := xray.Capture(ctx, segment, func(ctx context.Context) error {
			var e error
			out, e = c.db.Scan(ctx, &awsv2dynamodb.ScanInput{
				TableName:        aws.String(c.tableName),
				FilterExpression: aws.String("EntityType = :t"),
				ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
					":t": &awsv2types.AttributeValueMemberS{Value: entityType},
				},
				ExclusiveStartKey: startKey,
			})
			return e
		})
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

// queryPrefix collects every item under pk whose sort key starts with prefix.
func (c *Client) queryPrefix(ctx context.Context, segment, pk, prefix string) ([]map[string]awsv2types.AttributeValue, error) {
	var items []map[string]awsv2types.AttributeValue
	var startKey map[string]awsv2types.AttributeValue
	for {
		var out *awsv2dynamodb.QueryOutput
		err := xray.Capture(ctx, segment, func(ctx context.Context) error {
			var e error
			out, e = c.db.Query(ctx, &awsv2dynamodb.QueryInput{
				TableName:              aws.String(c.tableName),
				KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
				ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
					":pk": &awsv2types.AttributeValueMemberS{Value: pk},
					":sk": &awsv2types.AttributeValueMemberS{Value: prefix},
				},
				ExclusiveStartKey: startKey,
			})
			return e
		})
		if err != nil {
			return nil, err
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return items, nil
}

func (c *Client) deleteItem(ctx context.Context, segment, pk, sk string) error {
	return xray.Capture(ctx, segment, func(ctx context.Context) error {
		_, err := c.db.DeleteItem(ctx, &awsv2dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: pk},
				"SK": &awsv2types.AttributeValueMemberS{Value: sk},
			},
		})
		return err
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
