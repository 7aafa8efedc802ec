package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lexbid/lexbid-backend/pkg/db/models"
	"github.com/lexbid/lexbid-backend/pkg/enums"
	"github.com/lexbid/lexbid-backend/pkg/provider"
)

// Repository defines persistence operations for payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByProviderIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	// TransitionFrom updates status only while the row still holds the
	// expected current status, reporting whether the write landed.
	TransitionFrom(ctx context.Context, id uuid.UUID, from, to enums.PaymentStatus, failureReason *string) (bool, error)
}

type quoteReader interface {
	FindByIDWithCase(ctx context.Context, id uuid.UUID) (*models.Quote, error)
}

type chargeIntentCreator interface {
	CreateChargeIntent(ctx context.Context, params provider.ChargeIntentParams) (*provider.ChargeIntent, error)
	Currency() string
}
