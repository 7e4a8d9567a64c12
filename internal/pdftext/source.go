package pdftext

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"invoicehub/internal/logger"
)

// PageReader returns the text of a PDF, one string per page.
type PageReader interface {
	PageTexts(ctx context.Context, pdfData []byte) ([]string, error)
}

// Source reads the text layer first and asks the fallback reader only when
// every page of the text layer is blank.
type Source struct {
	primary  PageReader
	fallback PageReader
	log      zerolog.Logger
}

// NewSource creates a page text source. fallback may be nil.
func NewSource(primary, fallback PageReader) *Source {
	return &Source{
		primary:  primary,
		fallback: fallback,
		log:      logger.WithComponent("pdf-text"),
	}
}

// PageTexts implements PageReader.
func (s *Source) PageTexts(ctx context.Context, pdfData []byte) ([]string, error) {
	pages, err := s.primary.PageTexts(ctx, pdfData)
	if err != nil {
		return nil, err
	}
	if s.fallback == nil || !blank(pages) {
		return pages, nil
	}

	s.log.Info().Int("pages", len(pages)).Msg("PDF text layer is empty, running OCR fallback")
	return s.fallback.PageTexts(ctx, pdfData)
}

func blank(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
