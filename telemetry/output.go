package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/reef/config"
)

// PoseRecord is one boid's pose at one frame, as written to frames.csv.
type PoseRecord struct {
	Frame    int     `csv:"frame"`
	Boid     int     `csv:"boid"`
	Group    int     `csv:"group"`
	X        float64 `csv:"x"`
	Y        float64 `csv:"y"`
	Z        float64 `csv:"z"`
	QW       float64 `csv:"qw"`
	QX       float64 `csv:"qx"`
	QY       float64 `csv:"qy"`
	QZ       float64 `csv:"qz"`
	Color    string  `csv:"color"`
	Avoiding bool    `csv:"avoiding"`
}

// SpongeRecord summarises one generated sponge for sponges.csv.
type SpongeRecord struct {
	Name      string  `csv:"name"`
	Radius    float64 `csv:"radius"`
	Length    float64 `csv:"length"`
	Reducer   float64 `csv:"reducer"`
	RotX      float64 `csv:"rot_x_deg"`
	RotY      float64 `csv:"rot_y_deg"`
	RotZ      float64 `csv:"rot_z_deg"`
	Vertices  int     `csv:"vertices"`
	Faces     int     `csv:"faces"`
	Materials int     `csv:"materials"`
}

// csvFile is an output file created on first write. The header is emitted
// once, with the first batch of records.
type csvFile struct {
	name          string
	f             *os.File
	headerWritten bool
}

func writeRecords[T any](dir string, cf *csvFile, records []T) error {
	if len(records) == 0 {
		return nil
	}
	if cf.f == nil {
		f, err := os.Create(filepath.Join(dir, cf.name))
		if err != nil {
			return fmt.Errorf("creating %s: %w", cf.name, err)
		}
		cf.f = f
	}

	if !cf.headerWritten {
		if err := gocsv.Marshal(records, cf.f); err != nil {
			return fmt.Errorf("writing %s: %w", cf.name, err)
		}
		cf.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, cf.f); err != nil {
		return fmt.Errorf("writing %s: %w", cf.name, err)
	}
	return nil
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir     string
	frames  csvFile
	stats   csvFile
	sponges csvFile
	perf    csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). Every method is a no-op on
// a nil manager.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &OutputManager{
		dir:     dir,
		frames:  csvFile{name: "frames.csv"},
		stats:   csvFile{name: "flock_stats.csv"},
		sponges: csvFile{name: "sponges.csv"},
		perf:    csvFile{name: "perf.csv"},
	}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePoses appends one frame of boid poses to frames.csv.
func (om *OutputManager) WritePoses(poses []PoseRecord) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.dir, &om.frames, poses)
}

// WriteFrameStats appends a flock statistics record to flock_stats.csv.
func (om *OutputManager) WriteFrameStats(stats FrameStats) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.dir, &om.stats, []FrameStats{stats})
}

// WriteSponge appends a sponge summary to sponges.csv.
func (om *OutputManager) WriteSponge(rec SpongeRecord) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.dir, &om.sponges, []SpongeRecord{rec})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.dir, &om.perf, []PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var errs []error
	for _, cf := range []*csvFile{&om.frames, &om.stats, &om.sponges, &om.perf} {
		if cf.f == nil {
			continue
		}
		if err := cf.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", cf.name, err))
		}
		cf.f = nil
	}
	return errors.Join(errs...)
}
