package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/zhengyingxiong/starweb/internal/domain"
	"github.com/zhengyingxiong/starweb/internal/ports"
)

type userRoleItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
	RoleID     string `dynamodbav:"RoleID"`
	RoleCode   string `dynamodbav:"RoleCode"`
	DataScope  string `dynamodbav:"DataScope"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

type UserRoleRepository struct {
	client *Client
	roles  *RoleRepository
}

func NewUserRoleRepository(client *Client, roles *RoleRepository) *UserRoleRepository {
	return &UserRoleRepository{client: client, roles: roles}
}

var _ ports.UserRoleRepository = (*UserRoleRepository)(nil)

// AssignRoles replaces the user's role assignments with the given set.
func (r *UserRoleRepository) AssignRoles(ctx context.Context, userID string, assignments []domain.RoleAssignment) error {
	existing, err := r.client.queryPrefix(ctx, "DynamoDB.QueryUserRoles", userPK(userID), "ROLE#")
	if err != nil {
		return err
	}
	for _, raw := range existing {
		var item userRoleItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return fmt.Errorf("unmarshal role assignment: %w", err)
		}
		if err := r.client.deleteItem(ctx, "DynamoDB.DeleteUserRole", item.PK, item.SK); err != nil {
			return err
		}
	}
	for _, a := range assignments {
		item, err := attributevalue.MarshalMap(userRoleItem{
			PK:         userPK(userID),
			SK:         roleSK(a.RoleID),
			EntityType: entityUserRole,
			UserID:     userID,
			RoleID:     a.RoleID,
			RoleCode:   a.RoleCode,
			DataScope:  string(a.DataScope),
			CreatedAt:  formatTime(a.CreatedAt),
		})
		if err != nil {
			return fmt.Errorf("marshal role assignment: %w", err)
		}
		err = xray.Capture(ctx, "DynamoDB.PutUserRole", func(ctx context.Context) error {
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

func (r *UserRoleRepository) ListByUser(ctx context.Context, userID string) ([]domain.RoleAssignment, error) {
	items, err := r.client.queryPrefix(ctx, "DynamoDB.QueryUserRoles", userPK(userID), "ROLE#")
	if err != nil {
		return nil, err
	}
	assignments := make([]domain.RoleAssignment, 0, len(items))
	for _, raw := range items {
		var item userRoleItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal role assignment: %w", err)
		}
		assignments = append(assignments, domain.RoleAssignment{
			UserID:    item.UserID,
			RoleID:    item.RoleID,
			RoleCode:  item.RoleCode,
			DataScope: domain.DataScope(item.DataScope),
			CreatedAt: parseTime(item.CreatedAt),
		})
	}
	return assignments, nil
}

func (r *UserRoleRepository) EffectiveRoleCodes(ctx context.Context, userID string) ([]string, error) {
	assignments, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(assignments))
	codes := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if a.RoleCode == "" || seen[a.RoleCode] {
			continue
		}
		seen[a.RoleCode] = true
		codes = append(codes, a.RoleCode)
	}
	sort.Strings(codes)
	return codes, nil
}

func (r *UserRoleRepository) EffectivePermissionCodes(ctx context.Context, userID string) ([]string, error) {
	assignments, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var codes []string
	for _, a := range assignments {
		permCodes, err := r.roles.ListPermissions(ctx, a.RoleID)
		if err != nil {
			return nil, err
		}
		for _, code := range permCodes {
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}
