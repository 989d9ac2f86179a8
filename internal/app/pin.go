package app

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/dkeye/clicker/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultPINAttempts = 32

var ErrPINSpaceExhausted = errors.New("unable to allocate a unique pin")

// PINAllocator draws random PINs until one is free. It holds no state of its
// own; callers serialise it with whatever owns the set of taken PINs.
type PINAllocator struct {
	source      io.Reader
	maxAttempts int
}

func NewPINAllocator(maxAttempts int) *PINAllocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPINAttempts
	}
	return &PINAllocator{source: rand.Reader, maxAttempts: maxAttempts}
}

// WithSource replaces the randomness source. Used by tests.
func (a *PINAllocator) WithSource(r io.Reader) *PINAllocator {
	a.source = r
	return a
}

func (a *PINAllocator) Generate(taken func(domain.PIN) bool) (domain.PIN, error) {
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		pin, err := a.draw()
		if err != nil {
			return "", fmt.Errorf("generate pin: %w", err)
		}
		if !taken(pin) {
			return pin, nil
		}
		log.Debug().Str("module", "app.pin").Int("attempt", attempt).Msg("pin collision, retrying")
	}
	log.Error().Str("module", "app.pin").Int("attempts", a.maxAttempts).Msg("pin space exhausted")
	return "", ErrPINSpaceExhausted
}

// draw rejects bytes past the largest multiple of the alphabet size to keep
// digits uniformly distributed.
func (a *PINAllocator) draw() (domain.PIN, error) {
	const n = len(domain.PINAlphabet)
	limit := byte(256 - 256%n)
	out := make([]byte, 0, domain.PINLength)
	buf := make([]byte, domain.PINLength)
	for len(out) < domain.PINLength {
		if _, err := io.ReadFull(a.source, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit || len(out) == domain.PINLength {
				continue
			}
			out = append(out, domain.PINAlphabet[int(b)%n])
		}
	}
	return domain.PIN(out), nil
}
