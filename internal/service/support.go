package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/noah-isme/campus-meals-api/internal/models"
)

// defaultOperationTimeout bounds a service call when no timeout is configured.
const defaultOperationTimeout = 5 * time.Second

type transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// NewValidator returns a validator with the custom rules used by request DTOs.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultOperationTimeout
	}
	return context.WithTimeout(ctx, d)
}
