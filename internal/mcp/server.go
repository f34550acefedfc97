// Package mcp exposes a running browsershell to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/browsershell/internal/ipc"
)

const (
	ServerName    = "browsershell"
	ServerVersion = "0.1.0"
)

// Controller is the subset of the control socket client the tools use.
type Controller interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() (*ipc.WindowsData, error)
	Navigate(window uint32, rawURL string) (uint32, error)
	Back(window uint32) (uint32, error)
	Forward(window uint32) (uint32, error)
	Reload(window uint32) (uint32, error)
}

var _ Controller = (*ipc.Client)(nil)

// Server is the MCP server for browsershell window control.
type Server struct {
	mcpServer *mcpsdk.Server
	control   Controller
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls to control.
func NewServer(control Controller, logger *slog.Logger) (*Server, error) {
	if control == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		control: control,
		logger:  logger,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) run(ctx context.Context, t mcpsdk.Transport) error {
	return s.mcpServer.Run(ctx, t)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "status",
		Description: "Report the engine version, session topology, window count and uptime of the running browser shell.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List open browser windows in creation order with their id, title, current URL and origin domain.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "navigate",
		Description: "Load a URL in a browser window. Targets the first window unless window is given.",
	}, s.handleNavigate)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "go_back",
		Description: "Go back one entry in a window's session history.",
	}, s.handleBack)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "go_forward",
		Description: "Go forward one entry in a window's session history.",
	}, s.handleForward)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload",
		Description: "Reload the page shown in a window.",
	}, s.handleReload)
}
