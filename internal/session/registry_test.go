package session

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/1broseidon/browsershell/internal/engine"
	"github.com/1broseidon/browsershell/internal/engine/enginetest"
	"github.com/1broseidon/browsershell/internal/platform"
	"github.com/1broseidon/browsershell/internal/platform/platformtest"
)

func newTestRegistry(topology Topology) (*Registry, *enginetest.Engine, *platformtest.Factory) {
	eng := enginetest.New()
	factory := &platformtest.Factory{}
	reg := NewRegistry(Config{
		Engine:   eng,
		Windows:  factory,
		Topology: topology,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return reg, eng, factory
}

func TestCreate_GetSucceeds(t *testing.T) {
	reg, eng, _ := newTestRegistry(TopologyPerWindow)

	id, err := reg.Create("https://example.com")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	entry, err := reg.Get(id)
	if err != nil {
		t.Fatalf("Get(%d) error: %v", id, err)
	}
	if entry.ID() != id {
		t.Fatalf("entry.ID() = %d, want %d", entry.ID(), id)
	}
	if entry.Origin.Domain != "example.com" || !entry.Origin.Known {
		t.Fatalf("entry.Origin = %+v, want example.com", entry.Origin)
	}
	if len(eng.Browsers) != 1 || eng.Browsers[0].URL != "https://example.com" {
		t.Fatalf("engine browsers = %+v, want one session on https://example.com", eng.Browsers)
	}
}

func TestCreate_WiresWakerIntoCompositor(t *testing.T) {
	reg, eng, factory := newTestRegistry(TopologyPerWindow)

	if _, err := reg.Create("https://example.com"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	eng.Views[0].Queue(engine.Present{})

	waker := factory.Windows[0].Waker().(*platformtest.Waker)
	if waker.Count() != 1 {
		t.Fatalf("waker count = %d, want 1", waker.Count())
	}
	if got := eng.Compositors[0].Surface.Window; got != factory.Windows[0].ID() {
		t.Fatalf("compositor surface window = %d, want %d", got, factory.Windows[0].ID())
	}
}

func TestGet_UnknownWindow(t *testing.T) {
	reg, _, _ := newTestRegistry(TopologyPerWindow)
	if _, err := reg.Create("https://example.com"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	for _, id := range []platform.WindowID{platform.NoWindow, 42, 0xdeadbeef} {
		if _, err := reg.Get(id); !errors.Is(err, ErrUnknownWindow) {
			t.Fatalf("Get(%d) error = %v, want ErrUnknownWindow", id, err)
		}
	}
}

func TestCreate_InvalidURL(t *testing.T) {
	reg, _, factory := newTestRegistry(TopologyPerWindow)

	_, err := reg.Create("not a url")
	if !errors.Is(err, engine.ErrURLParse) {
		t.Fatalf("Create() error = %v, want ErrURLParse", err)
	}
	if len(factory.Windows) != 0 {
		t.Fatalf("window allocated for invalid URL")
	}
	if reg.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", reg.Len())
	}
}

func TestCreate_EngineRefusesSession(t *testing.T) {
	for _, topology := range []Topology{TopologyPerWindow, TopologyShared} {
		reg, eng, factory := newTestRegistry(topology)
		eng.NewBrowserErr = errors.New("boom")

		_, err := reg.Create("https://example.com")
		if !errors.Is(err, engine.ErrNavigation) {
			t.Fatalf("%s: Create() error = %v, want ErrNavigation", topology, err)
		}
		if reg.Len() != 0 {
			t.Fatalf("%s: Len() = %d, want 0", topology, reg.Len())
		}
		if len(factory.Windows) != 1 || !factory.Windows[0].Destroyed {
			t.Fatalf("%s: window of the failed session was not destroyed", topology)
		}
	}
}

func TestForEach_CreationOrder(t *testing.T) {
	reg, _, _ := newTestRegistry(TopologyPerWindow)

	var want []platform.WindowID
	for _, u := range []string{"https://servo.org", "http://example.com", "https://three.test"} {
		id, err := reg.Create(u)
		if err != nil {
			t.Fatalf("Create(%q) error: %v", u, err)
		}
		want = append(want, id)
	}

	var got []platform.WindowID
	reg.ForEach(func(e *Entry) { got = append(got, e.ID()) })

	if len(got) != len(want) {
		t.Fatalf("ForEach visited %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ForEach order = %v, want %v", got, want)
		}
	}
	ids := reg.IDs()
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs() = %v, want %v", ids, want)
		}
	}
}

func TestCreate_PerWindowSessionsAreDistinct(t *testing.T) {
	reg, _, _ := newTestRegistry(TopologyPerWindow)
	a, _ := reg.Create("https://servo.org")
	b, _ := reg.Create("http://example.com")

	ea, _ := reg.Get(a)
	eb, _ := reg.Get(b)
	if ea.Browser == eb.Browser {
		t.Fatal("per-window entries share a browser session")
	}
	if ea.Origin.Domain != "servo.org" || eb.Origin.Domain != "example.com" {
		t.Fatalf("origins = %q, %q", ea.Origin.Domain, eb.Origin.Domain)
	}
}

func TestCreate_SharedTopologyReusesSession(t *testing.T) {
	reg, eng, _ := newTestRegistry(TopologyShared)
	a, err := reg.Create("https://servo.org")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	b, err := reg.Create("http://example.com")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	ea, _ := reg.Get(a)
	eb, _ := reg.Get(b)
	if ea.Browser != eb.Browser {
		t.Fatal("shared topology created two sessions")
	}
	if ea.View == eb.View {
		t.Fatal("shared topology reused a view across windows")
	}
	if len(eng.Browsers) != 1 {
		t.Fatalf("engine sessions = %d, want 1", len(eng.Browsers))
	}
	if got := len(eng.Browsers[0].Views); got != 2 {
		t.Fatalf("shared session views = %d, want 2", got)
	}
	if eb.Origin.Domain != "servo.org" {
		t.Fatalf("second window origin = %q, want the shared session's servo.org", eb.Origin.Domain)
	}
}
