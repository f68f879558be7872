package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-core/auth"
	"github.com/jrsteele09/go-auth-core/authz"
	"github.com/jrsteele09/go-auth-core/internal/config"
	"github.com/jrsteele09/go-auth-core/rbac"
	"github.com/jrsteele09/go-auth-core/sessions"
	"github.com/jrsteele09/go-auth-core/token"
	"github.com/jrsteele09/go-auth-core/users"
	userfake "github.com/jrsteele09/go-auth-core/users/repofake"
)

// authdemo wires the full core together against an in-memory user store and
// walks one user through authenticate, authorize and session lifecycle.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("authdemo failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	displayAppname(cfg.AppName)

	ctx := context.Background()

	userStore := userfake.NewFakeUserStore()
	passwordHash, err := users.HashPassword("Sup3rSecret", cfg.BcryptCost)
	if err != nil {
		return err
	}
	demoUser := &users.User{
		ID:           uuid.New().String(),
		Username:     "bob",
		Email:        "bob@example.com",
		IsActive:     true,
		IsVerified:   true,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	if err := userStore.Upsert(ctx, demoUser); err != nil {
		return err
	}

	signer, err := tokenSigner(cfg)
	if err != nil {
		return err
	}
	tokenManager := token.New(
		signer,
		token.WithTokenExpiry(cfg.AccessTTL, cfg.RefreshTTL),
	)

	provider, err := auth.NewProvider(userStore, tokenManager)
	if err != nil {
		return err
	}

	rbacManager := rbac.NewManager()
	rbacManager.CreateRole(rbac.Role{Name: "editor", Description: "Can write posts"})
	rbacManager.CreatePermission(rbac.Permission{Resource: "posts", Action: "write", Name: "Write posts"})
	rbacManager.AssignPermissionToRole("editor", rbac.PermissionKey("posts", "write"))
	rbacManager.AssignRole(demoUser.ID, "editor")

	evaluator, err := authz.NewEvaluator(provider, rbacManager)
	if err != nil {
		return err
	}

	sessionManager := sessions.NewManager(sessionRepo(cfg),
		sessions.WithDefaultDuration(cfg.SessionTTL),
		sessions.WithManagerLogger(log.Logger),
	)

	// Authenticate
	result := provider.Authenticate(ctx, auth.Credentials{Username: "bob", Password: "Sup3rSecret"})
	if !result.Success {
		log.Error().Str("reason", result.ErrorMessage).Msg("authentication rejected")
		return nil
	}
	log.Info().Str("user_id", result.UserID).Time("expires_at", result.ExpiresAt).Msg("authenticated")

	// Authorize against a policy
	policy := authz.Policy{
		authz.RequireAuth(),
		authz.RequireAnyRole("editor", "admin"),
		authz.RequireAllPermissions("posts:write"),
	}
	caller, err := evaluator.Evaluate(ctx, result.AccessToken, policy)
	if err != nil {
		log.Error().Err(err).Msg("authorization denied")
		return nil
	}
	log.Info().Str("username", caller.Username).Msg("authorization granted")

	// Session lifecycle
	session, err := sessionManager.CreateSession(ctx, caller, sessions.WithIPAddress("127.0.0.1"))
	if err != nil {
		return err
	}
	log.Info().Str("session_id", session.ID).Time("expires_at", session.ExpiresAt).Msg("session created")
	log.Info().Bool("valid", sessionManager.ValidateSession(ctx, session.ID)).Msg("session validated")
	log.Info().Bool("refreshed", sessionManager.RefreshSession(ctx, session.ID, 0)).Msg("session refreshed")

	// Logout: revokes the access token, session revoked separately.
	log.Info().Bool("logged_out", provider.Logout(result.AccessToken)).Msg("logout")
	if _, err := provider.ValidateToken(result.AccessToken); err != nil {
		log.Info().Err(err).Msg("revoked token rejected as expected")
	}
	log.Info().Bool("session_revoked", sessionManager.RevokeSession(ctx, session.ID)).Msg("session revoked")

	return nil
}

// tokenSigner selects the signer from the configured algorithm. The
// asymmetric variants generate an ephemeral key pair, which is enough for a
// single-process demo; a deployment would load persisted keys via
// token.LoadKeyPairFromPEM.
func tokenSigner(cfg *config.Security) (token.Signer, error) {
	switch cfg.JWTAlgorithm {
	case "RS256":
		keyPair, err := token.GenerateRSAKeyPair("authdemo", 2048)
		if err != nil {
			return nil, err
		}
		log.Info().Str("alg", cfg.JWTAlgorithm).Msg("using ephemeral RSA signing key")
		return token.NewKeyPairSigner(keyPair), nil
	case "ES256":
		keyPair, err := token.GenerateECDSAKeyPair("authdemo")
		if err != nil {
			return nil, err
		}
		log.Info().Str("alg", cfg.JWTAlgorithm).Msg("using ephemeral ECDSA signing key")
		return token.NewKeyPairSigner(keyPair), nil
	default:
		return token.NewHMACSigner(cfg.JWTSecret), nil
	}
}

func sessionRepo(cfg *config.Security) sessions.Repo {
	if cfg.RedisAddr == "" {
		return sessions.NewInMemoryRepo()
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	log.Info().Str("addr", cfg.RedisAddr).Msg("using redis session store")
	return sessions.NewRedisRepo(client, sessions.WithLogger(log.Logger))
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
