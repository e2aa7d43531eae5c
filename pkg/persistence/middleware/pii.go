package middleware

import (
	"context"
	"math"
	"regexp"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/aretw0/colloquy/pkg/ports"
)

// Mask replaces redacted text.
const Mask = "***"

type piiMiddleware struct {
	next     ports.AuditLog
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks every match of the patterns
// in the text of audit records. It panics on an invalid pattern.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.AuditLog) ports.AuditLog {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Record(ctx context.Context, rec domain.AuditRecord) error {
	for _, p := range m.patterns {
		rec.Text = p.ReplaceAllString(rec.Text, Mask)
	}
	return m.next.Record(ctx, rec)
}

type locationMiddleware struct {
	next  ports.AuditLog
	scale float64
}

// NewLocationMiddleware rounds shared coordinates to the given number of decimals
// (2 decimals is roughly one kilometre).
func NewLocationMiddleware(decimals int) Middleware {
	scale := math.Pow(10, float64(decimals))
	return func(next ports.AuditLog) ports.AuditLog {
		return &locationMiddleware{next: next, scale: scale}
	}
}

func (m *locationMiddleware) Record(ctx context.Context, rec domain.AuditRecord) error {
	if rec.Location != nil {
		// Copy: the record shares the pointer with the inbound event.
		rec.Location = &domain.Location{
			Latitude:  math.Round(rec.Location.Latitude*m.scale) / m.scale,
			Longitude: math.Round(rec.Location.Longitude*m.scale) / m.scale,
		}
	}
	return m.next.Record(ctx, rec)
}
