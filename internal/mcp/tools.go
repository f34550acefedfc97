package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.control.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		EngineVersion: status.EngineVersion,
		Topology:      status.Topology,
		WindowCount:   status.WindowCount,
		UptimeSeconds: status.UptimeSeconds,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.control.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(data.Windows))}
	for _, w := range data.Windows {
		out.Windows = append(out.Windows, WindowInfo{
			Window: uint32(w.ID),
			Title:  w.Title,
			URL:    w.URL,
			Origin: w.Origin,
		})
	}
	return nil, out, nil
}

func (s *Server) handleNavigate(_ context.Context, _ *mcpsdk.CallToolRequest, args NavigateInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	if args.URL == "" {
		return nil, CommandOutput{}, fmt.Errorf("url is required")
	}
	win, err := s.control.Navigate(args.Window, args.URL)
	if err != nil {
		s.logger.Warn("navigate failed", "window", args.Window, "url", args.URL, "error", err)
		return nil, CommandOutput{}, err
	}
	s.logger.Info("navigate sent", "window", win, "url", args.URL)
	return nil, CommandOutput{Window: win, Sent: true}, nil
}

func (s *Server) handleBack(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.history("go_back", s.control.Back, args.Window)
}

func (s *Server) handleForward(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.history("go_forward", s.control.Forward, args.Window)
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, CommandOutput, error) {
	return s.history("reload", s.control.Reload, args.Window)
}

func (s *Server) history(tool string, fn func(uint32) (uint32, error), window uint32) (*mcpsdk.CallToolResult, CommandOutput, error) {
	win, err := fn(window)
	if err != nil {
		s.logger.Warn(tool+" failed", "window", window, "error", err)
		return nil, CommandOutput{}, err
	}
	return nil, CommandOutput{Window: win, Sent: true}, nil
}
