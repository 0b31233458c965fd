package cli

import (
	"errors"
	"time"

	"github.com/google/uuid"

	internalApp "github.com/xl-c111/Flora-sub001/internal/app"
	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/commands"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/queries"
	"github.com/xl-c111/Flora-sub001/internal/subscriptions/application/services"
	"github.com/xl-c111/Flora-sub001/pkg/observability"
)

// ErrNotInitialized is returned by commands that need a database when the
// application could not be built.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// App holds the CLI application dependencies.
type App struct {
	// Subscription Command Handlers
	CreateSubscriptionHandler *commands.CreateSubscriptionHandler
	CreateFromProductHandler  *commands.CreateFromProductHandler
	PauseSubscriptionHandler  *commands.PauseSubscriptionHandler
	ResumeSubscriptionHandler *commands.ResumeSubscriptionHandler
	CancelSubscriptionHandler *commands.CancelSubscriptionHandler
	UpdateSubscriptionHandler *commands.UpdateSubscriptionHandler

	// Subscription Query Handlers
	GetSubscriptionHandler        *queries.GetSubscriptionHandler
	ListSubscriptionsHandler      *queries.ListSubscriptionsHandler
	ListSubscriptionOrdersHandler *queries.ListSubscriptionOrdersHandler

	// Delivery
	Engine  *services.OrderDerivationEngine
	Scanner *services.DueDeliveryScanner
	Pricing *deliveryDomain.PricingTable

	// Catalog
	Products catalogDomain.ProductRepository

	// Operations
	DB     database.Connection
	Health *observability.HealthRegistry
	Clock  sharedDomain.Clock

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp collects the handlers the CLI needs from a container.
func NewApp(c *internalApp.Container) (*App, error) {
	userID, err := c.UserID()
	if err != nil {
		return nil, err
	}
	return &App{
		CreateSubscriptionHandler:     c.CreateSubscriptionHandler,
		CreateFromProductHandler:      c.CreateFromProductHandler,
		PauseSubscriptionHandler:      c.PauseSubscriptionHandler,
		ResumeSubscriptionHandler:     c.ResumeSubscriptionHandler,
		CancelSubscriptionHandler:     c.CancelSubscriptionHandler,
		UpdateSubscriptionHandler:     c.UpdateSubscriptionHandler,
		GetSubscriptionHandler:        c.GetSubscriptionHandler,
		ListSubscriptionsHandler:      c.ListSubscriptionsHandler,
		ListSubscriptionOrdersHandler: c.ListSubscriptionOrdersHandler,
		Engine:                        c.Engine,
		Scanner:                       c.Scanner,
		Pricing:                       c.Pricing,
		Products:                      c.ProductRepo,
		DB:                            c.DB,
		Health:                        c.Health,
		Clock:                         c.Clock,
		CurrentUserID:                 userID,
	}, nil
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// Today returns the current time from the application clock.
func (a *App) Today() time.Time {
	return sharedDomain.ClockOrSystem(a.Clock).Now()
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}
