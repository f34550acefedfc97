package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/browsershell/internal/engine"
	"github.com/1broseidon/browsershell/internal/platform"
	"github.com/1broseidon/browsershell/internal/shell"
)

// WindowLister publishes the current window list. It is called from
// connection goroutines.
type WindowLister interface {
	Windows() []shell.WindowInfo
}

// ServerOptions configures a Server.
type ServerOptions struct {
	SocketPath string
	Windows    WindowLister
	// Poster injects navigation commands into the host loop.
	Poster   platform.Poster
	Monitors func() ([]MonitorInfo, error)

	EngineVersion string
	Topology      string
	Logger        *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	opts         ServerOptions
	logger       *slog.Logger
	listener     net.Listener
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.SocketPath == "" {
		return nil, fmt.Errorf("socket path is empty")
	}
	if opts.Windows == nil || opts.Poster == nil {
		return nil, fmt.Errorf("window lister and poster are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Remove a stale socket from an earlier run.
	os.Remove(opts.SocketPath)

	return &Server{
		opts:      opts,
		logger:    logger,
		startTime: time.Now(),
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.opts.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.opts.SocketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("control socket listening", "path", s.opts.SocketPath)

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("control socket accept failed", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection serves one newline-terminated request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("control socket read failed", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal control response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send control response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandNavigate:
		return s.handleNavigate(req.Payload)
	case CommandBack:
		return s.handleHistory(req.Payload, platform.NavBack)
	case CommandForward:
		return s.handleHistory(req.Payload, platform.NavForward)
	case CommandReload:
		return s.handleHistory(req.Payload, platform.NavReload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		EngineVersion: s.opts.EngineVersion,
		Topology:      s.opts.Topology,
		WindowCount:   len(s.opts.Windows.Windows()),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Running:       true,
	}
	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListWindows() *Response {
	windows := s.opts.Windows.Windows()
	if windows == nil {
		windows = []shell.WindowInfo{}
	}
	resp, _ := NewOKResponse(WindowsData{Windows: windows})
	return resp
}

func (s *Server) handleGetMonitors() *Response {
	if s.opts.Monitors == nil {
		return NewErrorResponse("monitor information is not available")
	}
	monitors, err := s.opts.Monitors()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
	}
	resp, _ := NewOKResponse(MonitorsData{Monitors: monitors})
	return resp
}

func (s *Server) handleNavigate(payload json.RawMessage) *Response {
	var req NavigatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid navigate payload: %v", err))
	}
	if _, err := engine.ParseURL(req.URL); err != nil {
		return NewErrorResponse(err.Error())
	}
	win, err := s.target(req.Window)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	s.logger.Info("control navigate", "window_id", win, "url", req.URL)
	s.opts.Poster.Post(platform.Navigate{Command: platform.NavLoad, URL: req.URL}, win)

	resp, _ := NewOKResponse(TargetData{Window: uint32(win)})
	return resp
}

func (s *Server) handleHistory(payload json.RawMessage, cmd platform.NavCommand) *Response {
	var req WindowPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid %s payload: %v", cmd, err))
		}
	}
	win, err := s.target(req.Window)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	s.logger.Info("control "+cmd.String(), "window_id", win)
	s.opts.Poster.Post(platform.Navigate{Command: cmd}, win)

	resp, _ := NewOKResponse(TargetData{Window: uint32(win)})
	return resp
}

// target resolves a requested window against the published list so that
// only ids the shell created are ever posted into the loop.
func (s *Server) target(id uint32) (platform.WindowID, error) {
	windows := s.opts.Windows.Windows()
	if len(windows) == 0 {
		return platform.NoWindow, fmt.Errorf("no windows are open")
	}
	if id == 0 {
		return windows[0].ID, nil
	}
	for _, w := range windows {
		if uint32(w.ID) == id {
			return w.ID, nil
		}
	}
	return platform.NoWindow, fmt.Errorf("unknown window 0x%x", id)
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.opts.SocketPath)
}
