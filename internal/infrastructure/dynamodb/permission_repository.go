package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/zhengyingxiong/starweb/internal/domain"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

type permissionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	PermissionID string `dynamodbav:"PermissionID"`
	Name         string `dynamodbav:"Name"`
	Code         string `dynamodbav:"Code"`
	Description  string `dynamodbav:"Description"`
	PermType     string `dynamodbav:"PermType"`
	Path         string `dynamodbav:"Path"`
	ParentID     string `dynamodbav:"ParentID"`
	SortOrder    int    `dynamodbav:"SortOrder"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	UpdatedAt    string `dynamodbav:"UpdatedAt"`
}

type PermissionRepository struct {
	client *Client
}

func NewPermissionRepository(client *Client) *PermissionRepository {
	return &PermissionRepository{client: client}
}

var _ ports.PermissionRepository = (*PermissionRepository)(nil)

func toPermissionItem(p domain.Permission) permissionItem {
	return permissionItem{
		PK:           permPK(p.ID),
		SK:           metaSK(),
		EntityType:   entityPermission,
		PermissionID: p.ID,
		Name:         p.Name,
		Code:         p.Code,
		Description:  p.Description,
		PermType:     string(p.Type),
		Path:         p.Path,
		ParentID:     p.ParentID,
		SortOrder:    p.SortOrder,
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
}

func fromPermissionItem(item permissionItem) domain.Permission {
	return domain.Permission{
		ID:          item.PermissionID,
		Name:        item.Name,
		Code:        item.Code,
		Description: item.Description,
		Type:        domain.PermissionType(item.PermType),
		Path:        item.Path,
		ParentID:    item.ParentID,
		SortOrder:   item.SortOrder,
		CreatedAt:   parseTime(item.CreatedAt),
		UpdatedAt:   parseTime(item.UpdatedAt),
	}
}

func (r *PermissionRepository) Create(ctx context.Context, permission domain.Permission) error {
	item, err := attributevalue.MarshalMap(toPermissionItem(permission))
	if err != nil {
		return fmt.Errorf("marshal permission: %w", err)
	}
	return xray.Capture(ctx, "DynamoDB.PutPermission", func(ctx context.Context) error {
		_, err := r.client.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(r.client.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			return fmt.Errorf("%w: permission %s already exists", domain.ErrInvalidInput, permission.ID)
		}
		return err
	})
}

func (r *PermissionRepository) Update(ctx context.Context, permission domain.Permission) error {
	return xray.Capture(ctx, "DynamoDB.UpdatePermission", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: permPK(permission.ID)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
			UpdateExpression: aws.String(
				"SET #n = :name, Code = :code, Description = :desc, PermType = :type, #p = :path, ParentID = :parent, SortOrder = :sort, UpdatedAt = :updated"),
			ConditionExpression: aws.String("attribute_exists(PK)"),
			ExpressionAttributeNames: map[string]string{
				"#n": "Name",
				"#p": "Path",
			},
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":name":    &awsv2types.AttributeValueMemberS{Value: permission.Name},
				":code":    &awsv2types.AttributeValueMemberS{Value: permission.Code},
				":desc":    &awsv2types.AttributeValueMemberS{Value: permission.Description},
				":type":    &awsv2types.AttributeValueMemberS{Value: string(permission.Type)},
				":path":    &awsv2types.AttributeValueMemberS{Value: permission.Path},
				":parent":  &awsv2types.AttributeValueMemberS{Value: permission.ParentID},
				":sort":    &awsv2types.AttributeValueMemberN{Value: fmt.Sprintf("%d", permission.SortOrder)},
				":updated": &awsv2types.AttributeValueMemberS{Value: formatTime(permission.UpdatedAt)},
			},
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrNotFound
		}
		return err
	})
}

func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	err := xray.Capture(ctx, "DynamoDB.DeletePermission", func(ctx context.Context) error {
		_, err := r.client.db.DeleteItem(ctx, &awsv2dynamodb.DeleteItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: permPK(id)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrNotFound
		}
		return err
	})
	if err != nil {
		return err
	}
	// drop stale role links pointing at the deleted permission
	links, err := r.client.scanEntity(ctx, "DynamoDB.ScanRolePermissions", entityRolePermission)
	if err != nil {
		return err
	}
	for _, raw := range links {
		var link rolePermissionItem
		if err := attributevalue.UnmarshalMap(raw, &link); err != nil {
			return fmt.Errorf("unmarshal role permission: %w", err)
		}
		if link.PermissionID != id {
			continue
		}
		if err := r.client.deleteItem(ctx, "DynamoDB.DeleteRolePermission", link.PK, link.SK); err != nil {
			return err
		}
	}
	return nil
}

func (r *PermissionRepository) GetByID(ctx context.Context, id string) (domain.Permission, error) {
	var permission domain.Permission
	err := xray.Capture(ctx, "DynamoDB.GetPermission", func(ctx context.Context) error {
		out, err := r.client.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: permPK(id)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
		})
		if err != nil {
			return err
		}
		if out.Item == nil {
			return domain.ErrNotFound
		}
		var item permissionItem
		if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
			return fmt.Errorf("unmarshal permission: %w", err)
		}
		permission = fromPermissionItem(item)
		return nil
	})
	return permission, err
}

func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	items, err := r.client.scanEntity(ctx, "DynamoDB.ScanPermissions", entityPermission)
	if err != nil {
		return nil, err
	}
	permissions := make([]domain.Permission, 0, len(items))
	for _, raw := range items {
		var item permissionItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal permission: %w", err)
		}
		permissions = append(permissions, fromPermissionItem(item))
	}
	return permissions, nil
}

func (r *PermissionRepository) HasChildren(ctx context.Context, id string) (bool, error) {
	items, err := r.client.scanEntity(ctx, "DynamoDB.ScanPermissions", entityPermission)
	if err != nil {
		return false, err
	}
	for _, raw := range items {
		var item permissionItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return false, fmt.Errorf("unmarshal permission: %w", err)
		}
		if item.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}
