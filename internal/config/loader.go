package config

import (
	"context"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
)

// Loader reads slot documents and logs what it loaded.
type Loader struct {
	logger ports.Logger
}

// NewLoader returns a Loader. A nil logger is allowed.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load parses and validates the document at path.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.logger != nil {
		l.logger.Debug(ctx, "loading slot document", "path", path)
	}

	doc, err := ParseConfig(path)
	if err != nil {
		if l.logger != nil {
			l.logger.Error(ctx, "failed to load slot document", "path", path, "error", err)
		}
		return nil, err
	}

	if l.logger != nil {
		l.logger.Info(ctx, "slot document loaded",
			"path", path,
			"namespace", doc.Namespace,
			"baseline", len(doc.Baseline),
			"slots", len(doc.Slots),
			"backend", doc.Storage.Backend,
		)
	}
	return doc, nil
}
