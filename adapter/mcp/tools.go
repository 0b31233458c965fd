// Package mcp exposes Flora's subscription operations as MCP tools,
// resources and prompts.
package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/xl-c111/Flora-sub001/adapter/cli"
)

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
}

// RegisterTools registers MCP tools that mirror CLI functionality.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	if err := registerCoreTools(srv, deps); err != nil {
		return err
	}
	if err := registerSubscriptionTools(srv, deps); err != nil {
		return err
	}
	return registerDeliveryTools(srv, deps)
}
