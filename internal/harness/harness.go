package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/weft/internal/cells"
	"github.com/roach88/weft/internal/engine"
	"github.com/roach88/weft/internal/host"
	"github.com/roach88/weft/internal/testutil"
)

// Option configures Run.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	recorder engine.Recorder
	tokens   engine.PassTokenGenerator
	clock    engine.Sequencer
}

// WithLogger sets the driver's logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRecorder journals every non-idle pass.
func WithRecorder(r engine.Recorder) Option {
	return func(c *config) { c.recorder = r }
}

// WithPassTokens overrides the pass tokens, "<scenario>-1", "<scenario>-2", ...
// by default.
func WithPassTokens(g engine.PassTokenGenerator) Option {
	return func(c *config) { c.tokens = g }
}

// WithClock overrides the pass sequencer. Runs journaled into an existing
// journal resume after its last seq.
func WithClock(seq engine.Sequencer) Option {
	return func(c *config) { c.clock = seq }
}

// Run executes a scenario against a fresh in-memory host.
//
// The scenario's resources are set and its root template is mounted under
// an entity named "root". Each step then applies its host changes, runs one
// pass and checks its expectations. Failed expectations are collected in
// the Result; the returned error is reserved for scenarios that cannot run
// at all.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: testutil.DiscardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tokens == nil {
		cfg.tokens = testutil.NewSeqTokens(sc.Name)
	}
	if cfg.clock == nil {
		cfg.clock = testutil.NewDeterministicClock()
	}

	world := host.NewMemory()
	cs := cells.NewStore()
	for _, k := range sortedKeys(sc.Resources) {
		world.SetResource(k, sc.Resources[k])
	}
	root := world.Spawn(host.Name("root"))

	driverOpts := []engine.DriverOption{
		engine.WithLogger(cfg.logger),
		engine.WithPassTokens(cfg.tokens),
		engine.WithClock(cfg.clock),
	}
	if cfg.recorder != nil {
		driverOpts = append(driverOpts, engine.WithRecorder(cfg.recorder))
	}
	d := engine.NewDriver(world, cs, driverOpts...)

	reg := newCellRegistry()
	d.Mount(sceneTemplate{sc: sc, name: sc.Root, reg: reg}, root)

	result := NewResult(sc.Name)
	for i, step := range sc.Steps {
		if err := applyStep(world, cs, reg, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
		report, err := d.RunPass(ctx)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
		sr := StepResult{
			Name:   step.Name,
			Report: report,
			Tree:   host.Dump(world, world.Children(root)...),
		}
		for _, f := range checkStep(step.Expect, sr) {
			result.AddFailure(fmt.Sprintf("step %d (%s): %s", i, step.Name, f))
		}
		result.Steps = append(result.Steps, sr)
		cfg.logger.Debug("step completed",
			"scenario", sc.Name,
			"step", step.Name,
			"pass", report.Token,
			"patched", report.Patched,
			"errors", len(report.Errors),
		)
	}
	return result, nil
}

// applyStep writes a step's host changes: resources first, then cells.
func applyStep(world *host.Memory, cs *cells.Store, reg *cellRegistry, step Step) error {
	for _, k := range sortedKeys(step.Set) {
		world.SetResource(k, step.Set[k])
	}
	for _, k := range step.Remove {
		world.RemoveResource(k)
	}
	for _, name := range sortedKeys(step.Write) {
		n, err := reg.write(cs, name, step.Write[name])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("write %s: no live template declares it", name)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
