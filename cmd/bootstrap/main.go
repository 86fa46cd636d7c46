package main

import (
	"context"
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"

	"github.com/zhengyingxiong/starweb/internal/adapters/logger"
	"github.com/zhengyingxiong/starweb/internal/application"
	"github.com/zhengyingxiong/starweb/internal/infrastructure"
	authinfra "github.com/zhengyingxiong/starweb/internal/infrastructure/auth"
	"github.com/zhengyingxiong/starweb/internal/infrastructure/dynamodb"
	httpapi "github.com/zhengyingxiong/starweb/internal/interfaces/http"
)

func main() {
	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	if err := xray.Configure(xray.Config{ServiceVersion: "1.0.0"}); err != nil {
		log.Fatalf("configure xray: %v", err)
	}

	ctx := context.Background()
	client, err := dynamodb.NewClient(ctx, cfg.Region, cfg.TableName)
	if err != nil {
		log.Fatalf("connect dynamodb: %v", err)
	}

	userRepo := dynamodb.NewUserRepository(client)
	roleRepo := dynamodb.NewRoleRepository(client)
	permRepo := dynamodb.NewPermissionRepository(client)
	userRoleRepo := dynamodb.NewUserRoleRepository(client, roleRepo)

	codec, err := authinfra.NewTokenCodec(authinfra.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		log.Fatalf("build token codec: %v", err)
	}
	hasher := authinfra.NewBcryptHasher()

	authService := application.NewAuthService(userRepo, codec, hasher, appLogger)
	userService := application.NewUserService(userRepo, roleRepo, userRoleRepo, hasher)
	roleService := application.NewRoleService(roleRepo, permRepo)
	permService := application.NewPermissionService(permRepo)
	engine := application.NewEngine(userRoleRepo)

	e := httpapi.NewRouter(httpapi.RouterDeps{
		Auth:        httpapi.NewAuthHandler(authService),
		Users:       httpapi.NewUserHandler(userService, authService),
		RBAC:        httpapi.NewRBACHandler(roleService, permService),
		Resolver:    authService,
		Engine:      engine,
		Logger:      appLogger,
		SegmentName: "starweb-api",
	})

	appLogger.Info(ctx, "starting http server", "port", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
