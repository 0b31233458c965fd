package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/xl-c111/Flora-sub001/internal/subscriptions/domain"
)

// RegisterPrompts registers MCP prompts for common support workflows.
func RegisterPrompts(srv *mcp.Server, _ ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("subscription_setup").
		Description("Walk a customer through choosing a cadence, products and a delivery method, then create the subscription.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Subscription Setup",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Help me set up a flower subscription.

1. Show me the catalog using the flora://products resource
2. Show delivery fees using the flora://delivery/rates resource

Then ask me:
- Which subscription type I want. RECURRING_* types deliver on a fixed
  cadence, SPONTANEOUS_* types on a surprise date inside the window.
  Available types: %s
- Which products and quantities to include
- Where to ship, and which delivery method to use (pickup is not available for subscriptions)

Summarize the choice with the per-delivery price before calling subscription.create.`, typeList()),
						},
					},
				},
			}, nil
		})

	srv.Prompt("delivery_review").
		Description("Review a customer's subscriptions and recent orders, and flag anything that needs attention.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Delivery Review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Review my flower subscriptions.

1. List them using the flora://subscriptions resource
2. For each active one, call subscription.orders to see recent deliveries

Point out subscriptions whose next delivery date has already passed, paused
subscriptions that could be resumed, and any orders that look unusual.`,
						},
					},
				},
			}, nil
		})

	return nil
}

func typeList() string {
	types := domain.SubscriptionTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
