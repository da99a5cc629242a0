package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/RegimeTrader/internal/model"
)

// Fallback tries each provider in order and returns the first series found.
type Fallback struct {
	providers []Provider
}

// NewFallback creates a Fallback over the given providers.
func NewFallback(providers ...Provider) *Fallback {
	return &Fallback{providers: providers}
}

// Name joins the member names with "|".
func (f *Fallback) Name() string {
	names := make([]string, len(f.providers))
	for i, p := range f.providers {
		names[i] = p.Name()
	}
	return strings.Join(names, "|")
}

// Fetch moves on to the next provider on any error except an invalid range or a done
// context. When every provider fails the joined errors are returned.
func (f *Fallback) Fetch(ctx context.Context, ticker string, start, end time.Time) (model.Series, error) {
	if len(f.providers) == 0 {
		return model.Series{}, fmt.Errorf("%w: no providers configured", ErrDataUnavailable)
	}

	var errs []error
	for _, p := range f.providers {
		series, err := p.Fetch(ctx, ticker, start, end)
		if err == nil {
			return series, nil
		}
		if errors.Is(err, ErrInvalidRange) || ctx.Err() != nil {
			return model.Series{}, err
		}
		log.Warn().Err(err).Str("provider", p.Name()).Str("ticker", ticker).Msg("Provider failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return model.Series{}, errors.Join(errs...)
}
