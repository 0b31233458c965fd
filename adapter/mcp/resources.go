package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// RegisterResources registers MCP resources that expose Flora data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if deps.App == nil {
		return fmt.Errorf("app is required")
	}
	subs := subscriptionTools{app: deps.App}
	delivery := deliveryTools{app: deps.App}

	srv.Resource("flora://subscriptions").
		Name("Subscriptions").
		Description("All subscriptions for the current user").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
			list, err := subs.list(ctx, subscriptionListInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, list)
		})

	srv.Resource("flora://subscriptions/active").
		Name("Active subscriptions").
		Description("Subscriptions that are currently being delivered").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
			list, err := subs.list(ctx, subscriptionListInput{Status: string(domain.StatusActive)})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, list)
		})

	srv.Resource("flora://delivery/rates").
		Name("Delivery rates").
		Description("Fees and estimates for every delivery method").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
			quotes, err := delivery.quote(ctx, deliveryQuoteInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, quotes)
		})

	srv.Resource("flora://products").
		Name("Products").
		Description("The catalog products subscriptions can be built from").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, _ map[string]string) (*mcp.ResourceContent, error) {
			products, err := delivery.products(ctx, emptyInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, products)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
