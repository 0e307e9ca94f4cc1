package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	span.SetAttributes(attribute.String("email", email))

	rep, err := s.store.GetSalesRepByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get sales rep: %w", err)
	}
	if rep == nil || !rep.Active {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	cred, err := s.store.GetCredentials(ctx, rep.ID)
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	if cred == nil {
		s.logger.Warn("login: rep has no password set", zap.String("rep_id", rep.ID))
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	now := s.now()
	if cred.LockedUntil != nil && cred.LockedUntil.After(now) {
		remaining := cred.LockedUntil.Sub(now).Minutes()
		s.logger.Warn("login: account temporarily locked",
			zap.String("rep_id", rep.ID),
			zap.Float64("remaining_minutes", remaining),
		)
		return nil, &domain.ErrUnauthorized{
			Message: fmt.Sprintf("account locked, try again in %.0f minutes", remaining),
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		cred.FailedAttempts++
		if cred.FailedAttempts >= maxFailedAttempts {
			lockedUntil := now.Add(lockDuration).UTC()
			cred.LockedUntil = &lockedUntil
			s.logger.Warn("login: account locked after max attempts",
				zap.String("rep_id", rep.ID),
				zap.Int("attempts", cred.FailedAttempts),
				zap.Duration("lock_duration", lockDuration),
			)
		} else {
			s.logger.Warn("login: failed password attempt",
				zap.String("rep_id", rep.ID),
				zap.Int("attempts", cred.FailedAttempts),
				zap.Int("max", maxFailedAttempts),
			)
		}
		_ = s.store.SaveCredentials(ctx, cred)

		remaining := maxFailedAttempts - cred.FailedAttempts
		if remaining <= 0 {
			return nil, &domain.ErrUnauthorized{
				Message: fmt.Sprintf("account locked for %d minutes after %d attempts", int(lockDuration.Minutes()), maxFailedAttempts),
			}
		}
		return nil, &domain.ErrUnauthorized{
			Message: fmt.Sprintf("invalid credentials, %d attempt(s) left", remaining),
		}
	}

	loginAt := now.UTC()
	cred.FailedAttempts = 0
	cred.LockedUntil = nil
	cred.LastLoginAt = &loginAt
	_ = s.store.SaveCredentials(ctx, cred)

	resp, err := s.issueTokens(ctx, rep)
	if err != nil {
		return nil, err
	}

	s.logger.Info("sales rep logged in", zap.String("rep_id", rep.ID))
	return resp, nil
}

// issueTokens signs an access token and stores a fresh refresh token.
func (s *AuthService) issueTokens(ctx context.Context, rep *domain.SalesRep) (*domain.LoginResponse, error) {
	accessToken, err := s.signAccessToken(rep.ID, rep.Email)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshHash, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.store.StoreRefreshToken(ctx, rep.ID, refreshHash, s.now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		RepID:        rep.ID,
		RepName:      rep.Name,
	}, nil
}
