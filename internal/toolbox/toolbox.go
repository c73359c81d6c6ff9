// Package toolbox connects to the tool-invocation collaborator — an MCP
// server spoken to over stdio — and exposes the one contract the core has
// with it: list the available tools. The core never calls a tool itself;
// the discovered list is only supplied to the model as context.
//
// All methods are nil-safe: an unconfigured agent runs with a nil *Toolbox
// and simply sees zero tools.
package toolbox

import (
	"context"
	"fmt"
	"log"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cwhuang/stride/internal/types"
)

// Toolbox is a stdio MCP client plus a cache of the discovered tool list.
type Toolbox struct {
	client *mcpclient.Client
	cached []types.ToolInfo
}

// Connect launches the MCP server process given by command/args, performs
// the initialize handshake, and returns a connected Toolbox.
func Connect(ctx context.Context, command string, args ...string) (*Toolbox, error) {
	c, err := mcpclient.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("toolbox: start MCP server: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "stride",
		Version: "0.1.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("toolbox: initialize: %w", err)
	}

	log.Printf("[toolbox] connected to MCP server: %s", command)
	return &Toolbox{client: c}, nil
}

// Tools returns the collaborator's tool list as {name, description} pairs.
// The first successful discovery is cached for the life of the connection.
// A nil Toolbox returns an empty list.
func (t *Toolbox) Tools(ctx context.Context) ([]types.ToolInfo, error) {
	if t == nil || t.client == nil {
		return nil, nil
	}
	if t.cached != nil {
		return t.cached, nil
	}

	res, err := t.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("toolbox: list tools: %w", err)
	}

	infos := make([]types.ToolInfo, 0, len(res.Tools))
	for _, tool := range res.Tools {
		infos = append(infos, types.ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
		})
	}
	t.cached = infos
	return infos, nil
}

// Close shuts down the server process. Safe on nil.
func (t *Toolbox) Close() error {
	if t == nil || t.client == nil {
		return nil
	}
	return t.client.Close()
}
