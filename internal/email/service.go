package email

import (
	"context"

	"github.com/medidesk/clinic-api/internal/model"
)

// Service is the confirmation dispatcher. Delivery is a courtesy layered on
// top of the verification link, not the source of truth for verification
// state; callers on the sign-up path swallow its errors.
type Service interface {
	SendConfirmation(ctx context.Context, to string, role model.Role) error
	SendVerification(ctx context.Context, to string, token string) error
}
