package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/openwarehouse/WareFleetCore/internal/config"
	"github.com/openwarehouse/WareFleetCore/internal/types"
)

// OperatorStore is the credential backend.
type OperatorStore interface {
	OperatorByUsername(ctx context.Context, username string) (*types.Operator, error)
	SaveOperator(ctx context.Context, op *types.Operator) error
}

type Service struct {
	operators      OperatorStore
	jwtHandler     *JWTHandler
	passwordHasher *PasswordHasher
}

func NewService(operators OperatorStore, cfg config.AuthConfig) *Service {
	return &Service{
		operators:      operators,
		jwtHandler:     NewJWTHandler(cfg.GetJWTSecret(), cfg.AccessTokenTTL),
		passwordHasher: NewPasswordHasher(),
	}
}

// Login authenticates an operator and returns an access token. Credential
// failures are indistinguishable from unknown usernames on purpose.
func (s *Service) Login(ctx context.Context, username, password string) (string, *types.Operator, error) {
	op, err := s.operators.OperatorByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	valid, err := s.passwordHasher.VerifyPassword(password, op.PasswordHash)
	if err != nil || !valid {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.jwtHandler.GenerateAccessToken(op.ID, op.Username, op.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return token, op, nil
}

// ValidateToken checks a bearer token. Satisfies the realtime hub's
// TokenValidator.
func (s *Service) ValidateToken(token string) error {
	_, err := s.jwtHandler.ValidateAccessToken(token)
	return err
}

// ClaimsFromToken validates a token and returns its claims.
func (s *Service) ClaimsFromToken(token string) (*Claims, error) {
	return s.jwtHandler.ValidateAccessToken(token)
}

// CreateOperator hashes the password and persists a new operator account.
func (s *Service) CreateOperator(ctx context.Context, username, password, role string) (*types.Operator, error) {
	passwordHash, err := s.passwordHasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	op := &types.Operator{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.operators.SaveOperator(ctx, op); err != nil {
		return nil, fmt.Errorf("failed to persist operator: %w", err)
	}
	return op, nil
}
