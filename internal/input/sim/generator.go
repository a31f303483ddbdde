package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"microsoc/pkg/models"
)

// Default attack catalog for the simulated producer.
var (
	defaultAttackTypes = []string{
		"XSS",
		"SQL Injection",
		"Brute Force",
		"DDoS",
		"Malware",
		"Port Scan",
		"Failed Login",
	}
	defaultTargets = []string{
		"Auth Gateway",
		"Payment Service",
		"Core API",
		"Firewall Node",
		"Admin Console",
	}
)

// Config controls the simulated producer.
type Config struct {
	Interval      time.Duration
	AttackTypes   []string
	TargetSystems []string
	Seed          int64
}

// Generator emits random raw attack events at a fixed interval. It stands in
// for a real sensor feed; the pipeline itself is interval-agnostic.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// NewGenerator creates a simulated event producer.
func NewGenerator(cfg Config) *Generator {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if len(cfg.AttackTypes) == 0 {
		cfg.AttackTypes = defaultAttackTypes
	}
	if len(cfg.TargetSystems) == 0 {
		cfg.TargetSystems = defaultTargets
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Next waits one interval and returns a random raw event.
func (g *Generator) Next(ctx context.Context) (models.RawEvent, error) {
	select {
	case <-ctx.Done():
		return models.RawEvent{}, ctx.Err()
	case <-time.After(g.cfg.Interval):
	}
	return g.Generate(time.Now().UTC()), nil
}

// Generate builds one random raw event. Roughly one in five events comes
// from a private address so the local short-circuit path stays exercised;
// source octets repeat often enough to trigger the burst detector.
func (g *Generator) Generate(now time.Time) models.RawEvent {
	return models.RawEvent{
		Timestamp:     now,
		SourceAddress: g.randomAddress(),
		AttackType:    g.cfg.AttackTypes[g.rng.Intn(len(g.cfg.AttackTypes))],
		TargetSystem:  g.cfg.TargetSystems[g.rng.Intn(len(g.cfg.TargetSystems))],
	}
}

func (g *Generator) randomAddress() string {
	if g.rng.Intn(5) == 0 {
		return fmt.Sprintf("192.168.1.%d", g.rng.Intn(255))
	}
	return fmt.Sprintf("%d.%d.%d.%d",
		1+g.rng.Intn(223),
		g.rng.Intn(8), // narrow second octet so repeat sources occur
		g.rng.Intn(255),
		g.rng.Intn(255),
	)
}

// Close satisfies the pipeline source contract; nothing to release.
func (g *Generator) Close() error {
	return nil
}
