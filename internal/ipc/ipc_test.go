package ipc

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/1broseidon/browsershell/internal/platform"
	"github.com/1broseidon/browsershell/internal/shell"
)

type staticWindows []shell.WindowInfo

func (w staticWindows) Windows() []shell.WindowInfo { return w }

type posted struct {
	ev  platform.WindowEvent
	win platform.WindowID
}

type recordingPoster struct {
	mu     sync.Mutex
	events []posted
}

func (p *recordingPoster) Post(ev platform.WindowEvent, win platform.WindowID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, posted{ev: ev, win: win})
}

func (p *recordingPoster) all() []posted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]posted(nil), p.events...)
}

func startServer(t *testing.T, opts ServerOptions) (*Client, *recordingPoster) {
	t.Helper()
	poster := &recordingPoster{}
	opts.SocketPath = filepath.Join(t.TempDir(), "s.sock")
	opts.Poster = poster
	if opts.Windows == nil {
		opts.Windows = staticWindows{
			{ID: 0x200001, Title: "Servo", URL: "https://servo.org/"},
			{ID: 0x200002, Title: "Example", URL: "http://example.com/"},
		}
	}
	srv, err := NewServer(opts)
	if err != nil {
		t.Fatalf("NewServer() error: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(srv.Stop)
	return NewClient(opts.SocketPath), poster
}

func TestGetStatus(t *testing.T) {
	client, _ := startServer(t, ServerOptions{EngineVersion: "engine 0.1", Topology: "shared"})

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() error: %v", err)
	}
	if status.EngineVersion != "engine 0.1" || status.Topology != "shared" {
		t.Fatalf("GetStatus() = %+v", status)
	}
	if status.WindowCount != 2 || !status.Running {
		t.Fatalf("GetStatus() = %+v, want 2 running windows", status)
	}
}

func TestListWindows(t *testing.T) {
	client, _ := startServer(t, ServerOptions{})

	data, err := client.ListWindows()
	if err != nil {
		t.Fatalf("ListWindows() error: %v", err)
	}
	if len(data.Windows) != 2 {
		t.Fatalf("ListWindows() returned %d windows, want 2", len(data.Windows))
	}
	if data.Windows[1].Title != "Example" {
		t.Fatalf("Windows[1].Title = %q, want %q", data.Windows[1].Title, "Example")
	}
}

func TestNavigate_PostsLoad(t *testing.T) {
	client, poster := startServer(t, ServerOptions{})

	win, err := client.Navigate(0x200002, "https://example.com/next")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if win != 0x200002 {
		t.Fatalf("Navigate() window = 0x%x, want 0x200002", win)
	}

	got := poster.all()
	if len(got) != 1 {
		t.Fatalf("posted %d events, want 1", len(got))
	}
	want := platform.Navigate{Command: platform.NavLoad, URL: "https://example.com/next"}
	if got[0].ev != want || got[0].win != 0x200002 {
		t.Fatalf("posted %#v to 0x%x, want %#v to 0x200002", got[0].ev, got[0].win, want)
	}
}

func TestNavigate_Rejected(t *testing.T) {
	client, poster := startServer(t, ServerOptions{})

	tests := []struct {
		name   string
		window uint32
		url    string
		want   string
	}{
		{"bad url", 0, "not a url", "invalid url"},
		{"unknown window", 0x999, "https://example.com", "unknown window"},
	}
	for _, tt := range tests {
		_, err := client.Navigate(tt.window, tt.url)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: Navigate() error = %v, want mention of %q", tt.name, err, tt.want)
		}
	}
	if n := len(poster.all()); n != 0 {
		t.Fatalf("posted %d events for rejected requests", n)
	}
}

func TestHistoryCommands_DefaultToFirstWindow(t *testing.T) {
	client, poster := startServer(t, ServerOptions{})

	calls := []struct {
		fn   func(uint32) (uint32, error)
		want platform.NavCommand
	}{
		{client.Back, platform.NavBack},
		{client.Forward, platform.NavForward},
		{client.Reload, platform.NavReload},
	}
	for _, c := range calls {
		win, err := c.fn(0)
		if err != nil {
			t.Fatalf("%s error: %v", c.want, err)
		}
		if win != 0x200001 {
			t.Fatalf("%s window = 0x%x, want 0x200001", c.want, win)
		}
	}

	got := poster.all()
	if len(got) != len(calls) {
		t.Fatalf("posted %d events, want %d", len(got), len(calls))
	}
	for i, c := range calls {
		nav, ok := got[i].ev.(platform.Navigate)
		if !ok || nav.Command != c.want {
			t.Fatalf("event %d = %#v, want %s", i, got[i].ev, c.want)
		}
	}
}

func TestHistory_NoWindows(t *testing.T) {
	client, _ := startServer(t, ServerOptions{Windows: staticWindows{}})

	if _, err := client.Reload(0); err == nil || !strings.Contains(err.Error(), "no windows") {
		t.Fatalf("Reload() error = %v, want no windows", err)
	}
}

func TestGetMonitors(t *testing.T) {
	client, _ := startServer(t, ServerOptions{
		Monitors: func() ([]MonitorInfo, error) {
			return []MonitorInfo{{ID: 0, Name: "DP-1", Width: 2560, Height: 1440}}, nil
		},
	})

	data, err := client.GetMonitors()
	if err != nil {
		t.Fatalf("GetMonitors() error: %v", err)
	}
	if len(data.Monitors) != 1 || data.Monitors[0].Name != "DP-1" {
		t.Fatalf("GetMonitors() = %+v", data.Monitors)
	}
}

func TestGetMonitors_Error(t *testing.T) {
	client, _ := startServer(t, ServerOptions{
		Monitors: func() ([]MonitorInfo, error) { return nil, errors.New("randr missing") },
	})

	if _, err := client.GetMonitors(); err == nil || !strings.Contains(err.Error(), "randr missing") {
		t.Fatalf("GetMonitors() error = %v, want randr missing", err)
	}
}

func TestClient_NoServer(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "absent.sock"))
	if err := client.Ping(); err == nil {
		t.Fatal("Ping() succeeded without a server")
	}
}

func TestUnknownCommand(t *testing.T) {
	client, _ := startServer(t, ServerOptions{})
	err := client.call(CommandType("FLY"), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("call(FLY) error = %v, want unknown command", err)
	}
}
