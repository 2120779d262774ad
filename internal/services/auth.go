package services

import (
	"context"
	"crypto/subtle"

	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/service"
	"vitrina-crm/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.TokenPairDTO, error)
}

// AuthService пускает в админский API. Учётка одна и задаётся через
// окружение: пользователи CRM живут в боте, админка нужна интеграциям
// (таблица, выгрузки) и оператору.
type AuthService struct {
	jwtService        service.JWTService
	adminLogin        string
	adminPasswordHash string
	logger            *zap.Logger
}

func NewAuthService(jwtService service.JWTService, adminLogin, adminPasswordHash string, logger *zap.Logger) AuthServiceInterface {
	return &AuthService{
		jwtService:        jwtService,
		adminLogin:        adminLogin,
		adminPasswordHash: adminPasswordHash,
		logger:            logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	if subtle.ConstantTimeCompare([]byte(payload.Login), []byte(s.adminLogin)) != 1 {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(s.adminPasswordHash, payload.Password); err != nil {
		s.logger.Warn("неудачная попытка входа", zap.String("login", payload.Login))
		return nil, apperrors.ErrInvalidCredentials
	}

	access, refresh, err := s.jwtService.GenerateTokens(payload.Login)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}
	if claims.Login != s.adminLogin {
		return nil, apperrors.ErrInvalidCredentials
	}

	access, refresh, err := s.jwtService.GenerateTokens(claims.Login)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}
