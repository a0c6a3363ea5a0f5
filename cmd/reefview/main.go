// Reef preview tool - runs the flock live with rule sliders and shows
// generated sponges.
//
// Usage: go run ./cmd/reefview [-config path] [-seed n]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/reef/config"
	"github.com/pthm-cable/reef/flock"
	"github.com/pthm-cable/reef/noise"
	"github.com/pthm-cable/reef/shading"
	"github.com/pthm-cable/reef/sponge"
	"github.com/pthm-cable/reef/surface"
)

const (
	windowWidth  = 1200
	windowHeight = 760
	panelWidth   = 300
)

// RuleParams holds the slider-controlled rule strengths.
type RuleParams struct {
	Alignment  float32
	Cohesion   float32
	Separation float32
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seedFlag := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	seed := *seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fc, err := flock.NewConfig(cfg)
	if err != nil {
		slog.Error("invalid flock config", "error", err)
		os.Exit(1)
	}
	obstacles, err := flock.BuildObstacles(cfg.Flock)
	if err != nil {
		slog.Error("invalid obstacles", "error", err)
		os.Exit(1)
	}
	defaults := RuleParams{
		Alignment:  float32(fc.Alignment),
		Cohesion:   float32(fc.Cohesion),
		Separation: float32(fc.Separation),
	}
	params := defaults

	newSim := func() *flock.Sim {
		return flock.New(fc, rand.New(rand.NewSource(seed)), obstacles)
	}
	sim := newSim()

	rl.InitWindow(windowWidth, windowHeight, "Reef Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	extent := float32(math.Max(fc.Range.X, math.Max(fc.Range.Y, fc.Range.Z)))
	camera := rl.Camera3D{
		Position:   rl.NewVector3(extent*2.2, extent*1.4, extent*2.2),
		Target:     rl.NewVector3(0, 0, 0),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}

	paused := false
	showSponge := false
	var spongeMesh *surface.Mesh
	var spongePaint shading.Assignment
	spongeSeed := seed
	frame := 0

	toggleSponge := func() {
		showSponge = !showSponge
		if showSponge && spongeMesh == nil {
			spongeMesh, spongePaint, err = buildSponges(cfg, spongeSeed)
			if err != nil {
				slog.Error("sponge generation failed", "error", err)
				showSponge = false
			}
		}
	}

	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}
		if rl.IsKeyPressed(rl.KeyS) {
			toggleSponge()
		}

		if !paused && !showSponge {
			frame = sim.Step().Index
		}
		rl.UpdateCamera(&camera, rl.CameraOrbital)

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(8, 24, 40, 255))

		rl.BeginMode3D(camera)
		if showSponge && spongeMesh != nil {
			drawMesh(spongeMesh, spongePaint)
		} else {
			drawRegion(fc.Range)
			drawObstacles(sim.Obstacles())
			drawBoids(sim.Poses())
		}
		rl.EndMode3D()

		census := sim.Census()
		rl.DrawText(fmt.Sprintf("Frame: %d  Boids: %d  Groups: %v", frame, sim.Len(), census), 15, 15, 16, rl.RayWhite)
		if showSponge && spongeMesh != nil {
			rl.DrawText(fmt.Sprintf("Sponges: %d verts, %d faces, %d materials",
				len(spongeMesh.Vertices), len(spongeMesh.Faces), len(spongePaint.Materials)), 15, 35, 16, rl.RayWhite)
		}

		// Control panel
		panelX := float32(windowWidth - panelWidth)
		panelY := float32(10)
		rl.DrawRectangle(int32(panelX)-10, 0, panelWidth+10, windowHeight, rl.Fade(rl.RayWhite, 0.9))

		rl.DrawText("Flock Rules", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		changed := false
		for _, s := range []struct {
			label string
			value *float32
		}{
			{"Alignment strength", &params.Alignment},
			{"Cohesion strength", &params.Cohesion},
			{"Separation strength", &params.Separation},
		} {
			rl.DrawText(s.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: panelWidth - 80, Height: 20},
				"0", "2",
				*s.value, 0, 2,
			)
			rl.DrawText(fmt.Sprintf("%.2f", *s.value), int32(panelX+panelWidth-70), int32(panelY+2), 16, rl.DarkGray)
			if v != *s.value {
				*s.value = v
				changed = true
			}
			panelY += 35
		}
		if changed {
			sim.Tune(float64(params.Alignment), float64(params.Cohesion), float64(params.Separation))
		}

		panelY += 10
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(paused, "Resume", "Pause")) {
			paused = !paused
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Flock") {
			params = defaults
			sim = newSim()
			frame = 0
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(showSponge, "Show Flock", "Show Sponges")) {
			toggleSponge()
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "New Sponges") {
			spongeSeed = int64(rl.GetRandomValue(1, math.MaxInt32))
			spongeMesh, spongePaint, err = buildSponges(cfg, spongeSeed)
			if err != nil {
				slog.Error("sponge generation failed", "error", err)
				spongeMesh = nil
				showSponge = false
			} else {
				showSponge = true
			}
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yaml := fmt.Sprintf("flock:\n  alignment_strength: %.2f\n  cohesion_strength: %.2f\n  separation_strength: %.2f",
			params.Alignment, params.Cohesion, params.Separation)
		rl.DrawText(yaml, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Space: pause  S: sponges  C: copy YAML", int32(panelX), int32(windowHeight-30), 12, rl.Gray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// buildSponges generates the configured sponges and joins them into one mesh.
func buildSponges(cfg *config.Config, seed int64) (*surface.Mesh, shading.Assignment, error) {
	field, err := noise.New(cfg.Noise.Basis, seed+cfg.Noise.SeedOffset)
	if err != nil {
		return nil, shading.Assignment{}, err
	}
	gen, err := sponge.NewGenerator(cfg.Sponge, rand.New(rand.NewSource(seed)), field)
	if err != nil {
		return nil, shading.Assignment{}, err
	}
	sponges, err := gen.Generate(&sponge.MemorySink{})
	if err != nil {
		return nil, shading.Assignment{}, err
	}
	m, paint := sponge.Join(sponges)
	return m, paint, nil
}

// toRL maps z-up simulation space onto raylib's y-up space.
func toRL(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Z), float32(-v.Y))
}

func toColor(c colorful.Color, alpha float64) rl.Color {
	r, g, b := c.Clamped().RGB255()
	return rl.NewColor(r, g, b, uint8(math.Round(alpha*255)))
}

func drawRegion(half r3.Vec) {
	rl.DrawCubeWires(rl.NewVector3(0, 0, 0), float32(2*half.X), float32(2*half.Z), float32(2*half.Y), rl.SkyBlue)
}

func drawObstacles(obstacles []flock.Obstacle) {
	for _, o := range obstacles {
		switch o := o.(type) {
		case flock.Box:
			center := toRL(o.Center())
			size := o.Size()
			rl.DrawCubeWires(center, float32(size.X), float32(size.Z), float32(size.Y), rl.Orange)
		case flock.Sphere:
			rl.DrawSphereWires(toRL(o.Center), float32(o.Radius), 8, 12, rl.Orange)
		}
	}
}

func drawBoids(poses []flock.Pose) {
	for _, p := range poses {
		pos := toRL(p.Position)
		col := toColor(p.Color, 1)
		if p.Avoiding {
			col = rl.White
		}
		rl.DrawSphere(pos, 0.3, col)

		// Heading line along the boid's local forward axis
		fwd := sponge.Rotate(p.Orientation, r3.Vec{Z: 1})
		rl.DrawLine3D(pos, toRL(r3.Add(p.Position, fwd)), col)
	}
}

func drawMesh(m *surface.Mesh, paint shading.Assignment) {
	colors := make([]rl.Color, len(paint.Materials))
	for i, mat := range paint.Materials {
		colors[i] = toColor(mat.Color, mat.Alpha)
	}
	for i, f := range m.Faces {
		col := rl.Gray
		if i < len(paint.FaceMaterial) && paint.FaceMaterial[i] < len(colors) {
			col = colors[paint.FaceMaterial[i]]
		}
		a := toRL(m.Vertices[f[0]])
		for k := 1; k+1 < len(f); k++ {
			b := toRL(m.Vertices[f[k]])
			c := toRL(m.Vertices[f[k+1]])
			// Both windings so faces show from either side
			rl.DrawTriangle3D(a, b, c, col)
			rl.DrawTriangle3D(a, c, b, col)
		}
	}
}
