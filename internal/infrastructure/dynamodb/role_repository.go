package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/zhengyingxiong/starweb/internal/domain"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

type roleItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	RoleID      string `dynamodbav:"RoleID"`
	Name        string `dynamodbav:"Name"`
	Code        string `dynamodbav:"Code"`
	Description string `dynamodbav:"Description"`
	IsSystem    bool   `dynamodbav:"IsSystem"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

// rolePermissionItem links a role to a permission. The code is denormalized
// so resolving effective permissions never has to fetch the permission meta.
type rolePermissionItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	EntityType     string `dynamodbav:"EntityType"`
	RoleID         string `dynamodbav:"RoleID"`
	PermissionID   string `dynamodbav:"PermissionID"`
	PermissionCode string `dynamodbav:"PermissionCode"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
}

type RoleRepository struct {
	client *Client
}

func NewRoleRepository(client *Client) *RoleRepository {
	return &RoleRepository{client: client}
}

var _ ports.RoleRepository = (*RoleRepository)(nil)

func toRoleItem(role domain.Role) roleItem {
	return roleItem{
		PK:          rolePK(role.ID),
		SK:          metaSK(),
		EntityType:  entityRole,
		RoleID:      role.ID,
		Name:        role.Name,
		Code:        role.Code,
		Description: role.Description,
		IsSystem:    role.IsSystem,
		CreatedAt:   formatTime(role.CreatedAt),
		UpdatedAt:   formatTime(role.UpdatedAt),
	}
}

func fromRoleItem(item roleItem) domain.Role {
	return domain.Role{
		ID:          item.RoleID,
		Name:        item.Name,
		Code:        item.Code,
		Description: item.Description,
		IsSystem:    item.IsSystem,
		CreatedAt:   parseTime(item.CreatedAt),
		UpdatedAt:   parseTime(item.UpdatedAt),
	}
}

func (r *RoleRepository) Create(ctx context.Context, role domain.Role) error {
	item, err := attributevalue.MarshalMap(toRoleItem(role))
	if err != nil {
		return fmt.Errorf("marshal role: %w", err)
	}
	return xray.Capture(ctx, "DynamoDB.PutRole", func(ctx context.Context) error {
		_, err := r.client.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(r.client.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			return fmt.Errorf("%w: role %s already exists", domain.ErrInvalidInput, role.ID)
		}
		return err
	})
}

func (r *RoleRepository) Update(ctx context.Context, role domain.Role) error {
	return xray.Capture(ctx, "DynamoDB.UpdateRole", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: rolePK(role.ID)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
			UpdateExpression:    aws.String("SET #n = :name, Code = :code, Description = :desc, UpdatedAt = :updated"),
			ConditionExpression: aws.String("attribute_exists(PK)"),
			ExpressionAttributeNames: map[string]string{
				"#n": "Name",
			},
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":name":    &awsv2types.AttributeValueMemberS{Value: role.Name},
				":code":    &awsv2types.AttributeValueMemberS{Value: role.Code},
				":desc":    &awsv2types.AttributeValueMemberS{Value: role.Description},
				":updated": &awsv2types.AttributeValueMemberS{Value: formatTime(role.UpdatedAt)},
			},
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrNotFound
		}
		return err
	})
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	links, err := r.client.queryPrefix(ctx, "DynamoDB.QueryRolePermissions", rolePK(id), "PERM#")
	if err != nil {
		return err
	}
	for _, raw := range links {
		var link rolePermissionItem
		if err := attributevalue.UnmarshalMap(raw, &link); err != nil {
			return fmt.Errorf("unmarshal role permission: %w", err)
		}
		if err := r.client.deleteItem(ctx, "DynamoDB.DeleteRolePermission", link.PK, link.SK); err != nil {
			return err
		}
	}
	return xray.Capture(ctx, "DynamoDB.DeleteRole", func(ctx context.Context) error {
		_, err := r.client.db.DeleteItem(ctx, &awsv2dynamodb.DeleteItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: rolePK(id)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrNotFound
		}
		return err
	})
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (domain.Role, error) {
	var role domain.Role
	err := xray.Capture(ctx, "DynamoDB.GetRole", func(ctx context.Context) error {
		out, err := r.client.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: rolePK(id)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
		})
		if err != nil {
			return err
		}
		if out.Item == nil {
			return domain.ErrNotFound
		}
		var item roleItem
		if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
			return fmt.Errorf("unmarshal role: %w", err)
		}
		role = fromRoleItem(item)
		return nil
	})
	return role, err
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	items, err := r.client.scanEntity(ctx, "DynamoDB.ScanRoles", entityRole)
	if err != nil {
		return nil, err
	}
	roles := make([]domain.Role, 0, len(items))
	for _, raw := range items {
		var item roleItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal role: %w", err)
		}
		roles = append(roles, fromRoleItem(item))
	}
	return roles, nil
}

// SetPermissions replaces the role's permission links with the given set.
func (r *RoleRepository) SetPermissions(ctx context.Context, roleID string, permissions []domain.Permission) error {
	existing, err := r.client.queryPrefix(ctx, "DynamoDB.QueryRolePermissions", rolePK(roleID), "PERM#")
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		keep[p.ID] = true
	}
	current := make(map[string]bool, len(existing))
	for _, raw := range existing {
		var link rolePermissionItem
		if err := attributevalue.UnmarshalMap(raw, &link); err != nil {
			return fmt.Errorf("unmarshal role permission: %w", err)
		}
		current[link.PermissionID] = true
		if !keep[link.PermissionID] {
			if err := r.client.deleteItem(ctx, "DynamoDB.DeleteRolePermission", link.PK, link.SK); err != nil {
				return err
			}
		}
	}
	now := formatTime(time.Now())
	for _, p := range permissions {
		if current[p.ID] {
			continue
		}
		item, err := attributevalue.MarshalMap(rolePermissionItem{
			PK:             rolePK(roleID),
			SK:             permSK(p.ID),
			EntityType:     entityRolePermission,
			RoleID:         roleID,
			PermissionID:   p.ID,
			PermissionCode: p.Code,
			CreatedAt:      now,
		})
		if err != nil {
			return fmt.Errorf("marshal role permission: %w", err)
		}
		err = xray.Capture(ctx, "DynamoDB.PutRolePermission", func(ctx context.Context) error {
			_, err := r.client.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
				TableName: aws.String(r.client.tableName),
				Item:      item,
			})
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *RoleRepository) ListPermissions(ctx context.Context, roleID string) ([]string, error) {
	links, err := r.client.queryPrefix(ctx, "DynamoDB.QueryRolePermissions", rolePK(roleID), "PERM#")
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(links))
	for _, raw := range links {
		var link rolePermissionItem
		if err := attributevalue.UnmarshalMap(raw, &link); err != nil {
			return nil, fmt.Errorf("unmarshal role permission: %w", err)
		}
		codes = append(codes, link.PermissionCode)
	}
	return codes, nil
}
