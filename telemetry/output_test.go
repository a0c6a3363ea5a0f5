package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/reef/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager(\"\") error: %v", err)
	}
	if om != nil {
		t.Fatal("expected nil manager when output is disabled")
	}

	if d := om.Dir(); d != "" {
		t.Errorf("Dir() = %q, want empty", d)
	}

	// Nil manager must accept every call
	if err := om.WritePoses([]PoseRecord{{Frame: 1}}); err != nil {
		t.Errorf("WritePoses on nil manager: %v", err)
	}
	if err := om.WriteSponge(SpongeRecord{Name: "sponge"}); err != nil {
		t.Errorf("WriteSponge on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManager_HeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if om.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", om.Dir(), dir)
	}

	for frame := 0; frame < 3; frame++ {
		poses := []PoseRecord{
			{Frame: frame, Boid: 0, Color: "#ff8000"},
			{Frame: frame, Boid: 1, Color: "#ff0000", Avoiding: true},
		}
		if err := om.WritePoses(poses); err != nil {
			t.Fatalf("WritePoses: %v", err)
		}
		if err := om.WriteFrameStats(FrameStats{Frame: frame, Boids: 2}); err != nil {
			t.Fatalf("WriteFrameStats: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1+6 {
		t.Fatalf("frames.csv has %d lines, want 7", len(lines))
	}
	if !strings.HasPrefix(lines[0], "frame,boid,group,x,y,z") {
		t.Errorf("frames.csv header = %q", lines[0])
	}
	if strings.Count(string(data), "frame,boid") != 1 {
		t.Error("frames.csv header written more than once")
	}

	data, err = os.ReadFile(filepath.Join(dir, "flock_stats.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 4 {
		t.Errorf("flock_stats.csv has %d lines, want 4", n)
	}
}

func TestOutputManager_LazyFiles(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteSponge(SpongeRecord{Name: "sponge", Faces: 80}); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "sponges.csv")); err != nil {
		t.Errorf("sponges.csv missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "frames.csv")); !os.IsNotExist(err) {
		t.Errorf("frames.csv created without any poses (err = %v)", err)
	}
}

func TestOutputManager_WriteConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("reloading written config: %v", err)
	}
}
