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

type userItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	UserID       string `dynamodbav:"UserID"`
	Username     string `dynamodbav:"Username"`
	Email        string `dynamodbav:"Email"`
	PasswordHash string `dynamodbav:"PasswordHash"`
	IsActive     bool   `dynamodbav:"IsActive"`
	IsSuperadmin bool   `dynamodbav:"IsSuperadmin"`
	LastLogin    string `dynamodbav:"LastLogin,omitempty"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
	UpdatedAt    string `dynamodbav:"UpdatedAt"`
}

// usernameItem is a guard record keyed by login name. Its conditional put
// makes username uniqueness race-free without a GSI.
type usernameItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
}

type UserRepository struct {
	client *Client
}

func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

var _ ports.UserRepository = (*UserRepository)(nil)

func toUserItem(u domain.User) userItem {
	item := userItem{
		PK:           userPK(u.ID),
		SK:           metaSK(),
		EntityType:   entityUser,
		UserID:       u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsSuperadmin: u.IsSuperadmin,
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	}
	if u.LastLogin != nil {
		item.LastLogin = formatTime(*u.LastLogin)
	}
	return item
}

func fromUserItem(item userItem) domain.User {
	u := domain.User{
		ID:           item.UserID,
		Username:     item.Username,
		Email:        item.Email,
		PasswordHash: item.PasswordHash,
		IsActive:     item.IsActive,
		IsSuperadmin: item.IsSuperadmin,
		CreatedAt:    parseTime(item.CreatedAt),
		UpdatedAt:    parseTime(item.UpdatedAt),
	}
	if item.LastLogin != "" {
		t := parseTime(item.LastLogin)
		u.LastLogin = &t
	}
	return u
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	guard, err := attributevalue.MarshalMap(usernameItem{
		PK:         usernamePK(user.Username),
		SK:         metaSK(),
		EntityType: entityUsername,
		UserID:     user.ID,
	})
	if err != nil {
		return fmt.Errorf("marshal username guard: %w", err)
	}
	err = xray.Capture(ctx, "DynamoDB.PutUsernameGuard", func(ctx context.Context) error {
		_, err := r.client.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(r.client.tableName),
			Item:                guard,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		return err
	})
	if err != nil {
		if isConditionalCheckFailure(err) {
			return &domain.ValidationError{Field: "username", Message: "username already exists"}
		}
		return err
	}

	item, err := attributevalue.MarshalMap(toUserItem(user))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	err = xray.Capture(ctx, "DynamoDB.PutUser", func(ctx context.Context) error {
		_, err := r.client.db.PutItem(ctx, &awsv2dynamodb.PutItemInput{
			TableName:           aws.String(r.client.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		})
		return err
	})
	if err != nil {
		// roll the guard back so the name can be claimed again
		_ = r.client.deleteItem(ctx, "DynamoDB.DeleteUsernameGuard", usernamePK(user.Username), metaSK())
		if isConditionalCheckFailure(err) {
			return fmt.Errorf("%w: user %s already exists", domain.ErrInvalidInput, user.ID)
		}
		return err
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	return xray.Capture(ctx, "DynamoDB.UpdateUser", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: userPK(user.ID)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
			UpdateExpression:    aws.String("SET Email = :email, IsActive = :active, UpdatedAt = :updated"),
			ConditionExpression: aws.String("attribute_exists(PK)"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":email":   &awsv2types.AttributeValueMemberS{Value: user.Email},
				":active":  &awsv2types.AttributeValueMemberBOOL{Value: user.IsActive},
				":updated": &awsv2types.AttributeValueMemberS{Value: formatTime(user.UpdatedAt)},
			},
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrNotFound
		}
		return err
	})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.client.deleteItem(ctx, "DynamoDB.DeleteUser", userPK(id), metaSK()); err != nil {
		return err
	}
	_ = r.client.deleteItem(ctx, "DynamoDB.DeleteUsernameGuard", usernamePK(user.Username), metaSK())

	links, err := r.client.queryPrefix(ctx, "DynamoDB.QueryUserRoles", userPK(id), "ROLE#")
	if err != nil {
		return err
	}
	for _, link := range links {
		var assignment userRoleItem
		if err := attributevalue.UnmarshalMap(link, &assignment); err != nil {
			return fmt.Errorf("unmarshal role assignment: %w", err)
		}
		if err := r.client.deleteItem(ctx, "DynamoDB.DeleteUserRole", assignment.PK, assignment.SK); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := xray.Capture(ctx, "DynamoDB.GetUser", func(ctx context.Context) error {
		out, err := r.client.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: userPK(id)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
		})
		if err != nil {
			return err
		}
		if out.Item == nil {
			return domain.ErrNotFound
		}
		var item userItem
		if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}
		user = fromUserItem(item)
		return nil
	})
	return user, err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var userID string
	err := xray.Capture(ctx, "DynamoDB.GetUsernameGuard", func(ctx context.Context) error {
		out, err := r.client.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: usernamePK(username)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
		})
		if err != nil {
			return err
		}
		if out.Item == nil {
			return domain.ErrNotFound
		}
		var guard usernameItem
		if err := attributevalue.UnmarshalMap(out.Item, &guard); err != nil {
			return fmt.Errorf("unmarshal username guard: %w", err)
		}
		userID = guard.UserID
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return r.GetByID(ctx, userID)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	items, err := r.client.scanEntity(ctx, "DynamoDB.ScanUsers", entityUser)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(items))
	for _, raw := range items {
		var item userItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("unmarshal user: %w", err)
		}
		users = append(users, fromUserItem(item))
	}
	return users, nil
}

func (r *UserRepository) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return xray.Capture(ctx, "DynamoDB.SetLastLogin", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: userPK(id)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
			UpdateExpression:    aws.String("SET LastLogin = :at"),
			ConditionExpression: aws.String("attribute_exists(PK)"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":at": &awsv2types.AttributeValueMemberS{Value: formatTime(at)},
			},
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrNotFound
		}
		return err
	})
}

func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	return xray.Capture(ctx, "DynamoDB.SetPassword", func(ctx context.Context) error {
		_, err := r.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName: aws.String(r.client.tableName),
			Key: map[string]awsv2types.AttributeValue{
				"PK": &awsv2types.AttributeValueMemberS{Value: userPK(id)},
				"SK": &awsv2types.AttributeValueMemberS{Value: metaSK()},
			},
			UpdateExpression:    aws.String("SET PasswordHash = :hash, UpdatedAt = :updated"),
			ConditionExpression: aws.String("attribute_exists(PK)"),
			ExpressionAttributeValues: map[string]awsv2types.AttributeValue{
				":hash":    &awsv2types.AttributeValueMemberS{Value: passwordHash},
				":updated": &awsv2types.AttributeValueMemberS{Value: formatTime(time.Now())},
			},
		})
		if isConditionalCheckFailure(err) {
			return domain.ErrNotFound
		}
		return err
	})
}
