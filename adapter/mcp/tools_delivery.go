package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
	catalogDomain "github.com/xl-c111/Flora-sub001/internal/catalog/domain"
	deliveryDomain "github.com/xl-c111/Flora-sub001/internal/delivery/domain"
)

type deliveryQuoteInput struct {
	DeliveryType string `json:"delivery_type,omitempty"`
}

type deliveryQuoteOutput struct {
	deliveryDomain.Quote
	AllowedForSubscriptions bool `json:"allowed_for_subscriptions"`
}

var quotedTypes = []deliveryDomain.Type{
	deliveryDomain.TypeStandard,
	deliveryDomain.TypeExpress,
	deliveryDomain.TypeSameDay,
	deliveryDomain.TypePickup,
}

type deliveryTools struct {
	app *cli.App
}

func registerDeliveryTools(srv *mcp.Server, deps ToolDependencies) error {
	t := deliveryTools{app: deps.App}

	srv.Tool("delivery.quote").
		Description("Show the fee in cents and estimate for one delivery method, or all of them").
		Handler(t.quote)

	srv.Tool("product.list").
		Description("List catalog products with their IDs and prices in cents").
		Handler(t.products)

	return nil
}

func (t deliveryTools) quote(_ context.Context, input deliveryQuoteInput) ([]deliveryQuoteOutput, error) {
	if t.app.Pricing == nil {
		return nil, errNoDatabase
	}
	types := quotedTypes
	if input.DeliveryType != "" {
		dt, err := deliveryDomain.ParseType(input.DeliveryType)
		if err != nil {
			return nil, err
		}
		types = []deliveryDomain.Type{dt}
	}

	quotes := make([]deliveryQuoteOutput, 0, len(types))
	for _, dt := range types {
		q := t.app.Pricing.Quote(dt)
		quotes = append(quotes, deliveryQuoteOutput{Quote: q, AllowedForSubscriptions: q.Type.AllowedForSubscriptions()})
	}
	return quotes, nil
}

func (t deliveryTools) products(ctx context.Context, _ emptyInput) ([]*catalogDomain.Product, error) {
	if t.app.Products == nil {
		return nil, errNoDatabase
	}
	return t.app.Products.List(ctx)
}
