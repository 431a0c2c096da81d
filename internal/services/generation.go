// internal/services/generation.go
package services

import (
	"context"

	"scriptvision/internal/models"
)

// Generator is the external generation collaborator. It issues the actual
// image request and resolves with a URL or an error; everything about the
// transport lives behind this interface.
type Generator interface {
	RequestGeneration(ctx context.Context, subject models.Subject, prompt string, opts GenerateOptions, referenceURLs []string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, subject models.Subject, prompt string, opts GenerateOptions, referenceURLs []string) (string, error)

// RequestGeneration implements Generator.
func (f GeneratorFunc) RequestGeneration(ctx context.Context, subject models.Subject, prompt string, opts GenerateOptions, referenceURLs []string) (string, error) {
	return f(ctx, subject, prompt, opts, referenceURLs)
}

// GenerateOptions tunes a single generation request.
type GenerateOptions struct {
	// Style overrides the configured default image style.
	Style string

	// KeepExisting makes character generations accumulate like the scene
	// carousel instead of overwriting the current image.
	KeepExisting bool

	// ReferenceURLs are explicit caller-supplied reference images, for
	// example resolved character portraits.
	ReferenceURLs []string
}

// RosterProvider is the read-only canonical character list collaborator.
type RosterProvider interface {
	Roster(ctx context.Context, workID string) ([]models.RosterEntry, error)
}
