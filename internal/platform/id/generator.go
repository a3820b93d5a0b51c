package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Generator creates run identifiers used to correlate the log lines of one
// scrape.
type Generator interface {
	NewID() (string, error)
}

// RunGenerator produces "<UTC timestamp>-<random hex>" ids, so ids sort by
// start time.
type RunGenerator struct {
	now func() time.Time
}

func NewRunGenerator() *RunGenerator {
	return &RunGenerator{now: time.Now}
}

func (g *RunGenerator) NewID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	now := time.Now
	if g != nil && g.now != nil {
		now = g.now
	}
	return now().UTC().Format("20060102T150405") + "-" + hex.EncodeToString(buf), nil
}
