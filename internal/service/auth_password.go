package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ============================================================
// SetPassword: PUT /v1/sales-reps/{repId}/password
// ============================================================

// SetPassword replaces a rep's password, clears any lockout and signs the
// rep out everywhere.
func (s *AuthService) SetPassword(ctx context.Context, repID string, req *domain.SetPasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.SetPassword")
	defer span.End()

	if _, err := s.store.GetSalesRep(ctx, repID); err != nil {
		return err
	}
	if len(req.Password) < 8 {
		return &domain.ErrValidation{Field: "password", Message: "must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	cred := &domain.RepCredential{RepID: repID, PasswordHash: string(hash)}
	if err := s.store.SaveCredentials(ctx, cred); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	_ = s.store.RevokeAllRefreshTokens(ctx, repID)

	s.logger.Info("password set", zap.String("rep_id", repID))
	return nil
}
