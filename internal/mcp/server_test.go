package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/browsershell/internal/ipc"
	"github.com/1broseidon/browsershell/internal/shell"
)

type fakeController struct {
	windows []shell.WindowInfo
	calls   []string
	err     error
}

func (f *fakeController) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.StatusData{EngineVersion: "engine 0.1", Topology: "per-window", WindowCount: len(f.windows), Running: true}, nil
}

func (f *fakeController) ListWindows() (*ipc.WindowsData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ipc.WindowsData{Windows: f.windows}, nil
}

func (f *fakeController) Navigate(window uint32, rawURL string) (uint32, error) {
	f.calls = append(f.calls, "navigate "+rawURL)
	return f.target(window)
}

func (f *fakeController) Back(window uint32) (uint32, error) {
	f.calls = append(f.calls, "back")
	return f.target(window)
}

func (f *fakeController) Forward(window uint32) (uint32, error) {
	f.calls = append(f.calls, "forward")
	return f.target(window)
}

func (f *fakeController) Reload(window uint32) (uint32, error) {
	f.calls = append(f.calls, "reload")
	return f.target(window)
}

func (f *fakeController) target(window uint32) (uint32, error) {
	if f.err != nil {
		return 0, f.err
	}
	if window == 0 {
		return uint32(f.windows[0].ID), nil
	}
	return window, nil
}

func newFake() *fakeController {
	return &fakeController{windows: []shell.WindowInfo{
		{ID: 0x400001, Title: "Servo", URL: "https://servo.org/", Origin: "servo.org"},
		{ID: 0x400002, Title: "Example", URL: "http://example.com/", Origin: "example.com"},
	}}
}

func connect(t *testing.T, control Controller) *mcpsdk.ClientSession {
	t.Helper()

	s, err := NewServer(control, nil)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.run(ctx, serverTransport)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any, out any) *mcpsdk.CallToolResult {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s) error: %v", name, err)
	}
	if out != nil && !res.IsError {
		if len(res.Content) == 0 {
			t.Fatalf("CallTool(%s) returned no content", name)
		}
		text, ok := res.Content[0].(*mcpsdk.TextContent)
		if !ok {
			t.Fatalf("CallTool(%s) content = %T, want *TextContent", name, res.Content[0])
		}
		if err := json.Unmarshal([]byte(text.Text), out); err != nil {
			t.Fatalf("CallTool(%s) output %q: %v", name, text.Text, err)
		}
	}
	return res
}

func TestNewServer_RequiresController(t *testing.T) {
	if _, err := NewServer(nil, nil); err == nil {
		t.Fatal("NewServer(nil) succeeded")
	}
}

func TestListTools(t *testing.T) {
	session := connect(t, newFake())

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() error: %v", err)
	}
	got := make(map[string]bool)
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, name := range []string{"status", "list_windows", "navigate", "go_back", "go_forward", "reload"} {
		if !got[name] {
			t.Fatalf("tool %q not registered (have %v)", name, got)
		}
	}
}

func TestListWindowsTool(t *testing.T) {
	session := connect(t, newFake())

	var out ListWindowsOutput
	callTool(t, session, "list_windows", map[string]any{}, &out)
	if len(out.Windows) != 2 {
		t.Fatalf("list_windows returned %d windows, want 2", len(out.Windows))
	}
	if out.Windows[0].Window != 0x400001 || out.Windows[0].Origin != "servo.org" {
		t.Fatalf("Windows[0] = %+v", out.Windows[0])
	}
}

func TestStatusTool(t *testing.T) {
	session := connect(t, newFake())

	var out StatusOutput
	callTool(t, session, "status", map[string]any{}, &out)
	if out.EngineVersion != "engine 0.1" || out.WindowCount != 2 {
		t.Fatalf("status = %+v", out)
	}
}

func TestNavigateTool(t *testing.T) {
	fake := newFake()
	session := connect(t, fake)

	var out CommandOutput
	callTool(t, session, "navigate", map[string]any{"url": "https://servo.org/blog", "window": 0x400002}, &out)
	if out.Window != 0x400002 || !out.Sent {
		t.Fatalf("navigate = %+v, want window 0x400002 sent", out)
	}
	if len(fake.calls) != 1 || fake.calls[0] != "navigate https://servo.org/blog" {
		t.Fatalf("calls = %v", fake.calls)
	}
}

func TestHistoryTools(t *testing.T) {
	fake := newFake()
	session := connect(t, fake)

	for _, name := range []string{"go_back", "go_forward", "reload"} {
		var out CommandOutput
		callTool(t, session, name, map[string]any{}, &out)
		if out.Window != 0x400001 {
			t.Fatalf("%s window = 0x%x, want first window", name, out.Window)
		}
	}
	want := "back,forward,reload"
	if got := strings.Join(fake.calls, ","); got != want {
		t.Fatalf("calls = %q, want %q", got, want)
	}
}

func TestToolErrorsSurface(t *testing.T) {
	fake := newFake()
	fake.err = errors.New("failed to connect to shell")
	session := connect(t, fake)

	res := callTool(t, session, "reload", map[string]any{}, nil)
	if !res.IsError {
		t.Fatal("reload succeeded while the shell was unreachable")
	}
}
