package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "diarydesk/internal/errors"
	"diarydesk/internal/model"
)

// Export formats.
const (
	ExportJSON = "json"
	ExportCSV  = "csv"
)

// isoMillis is the ISO-8601 layout used for exported timestamps.
const isoMillis = "2006-01-02T15:04:05.000Z"

const csvHeader = "Title,Description,Tag,Created Date,Updated Date\n"

// Export is a downloadable rendering of a user's notes.
type Export struct {
	ContentType string
	Filename    string
	Body        []byte
}

func (s *noteService) Export(ctx context.Context, owner, format string) (*Export, error) {
	if format == "" {
		format = ExportJSON
	}
	if format != ExportJSON && format != ExportCSV {
		return nil, apperrors.ErrUnsupportedFormat
	}

	notes, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}

	if format == ExportCSV {
		return &Export{
			ContentType: "text/csv",
			Filename:    "diary-desk-notes.csv",
			Body:        EncodeCSV(notes),
		}, nil
	}

	body, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encode notes: %w", err)
	}
	return &Export{
		ContentType: "application/json",
		Filename:    "diary-desk-notes.json",
		Body:        body,
	}, nil
}

// EncodeCSV renders notes with every text column quoted and rows joined by
// newlines. encoding/csv only quotes fields that need it, so rows are built here.
func EncodeCSV(notes []model.Note) []byte {
	var b strings.Builder
	b.WriteString(csvHeader)
	for i := range notes {
		n := &notes[i]
		if i > 0 {
			b.WriteByte('\n')
		}
		updated := n.UpdatedAt
		if updated.IsZero() {
			updated = n.CreatedAt
		}
		b.WriteString(quoteCSV(n.Title))
		b.WriteByte(',')
		b.WriteString(quoteCSV(n.Description))
		b.WriteByte(',')
		b.WriteString(quoteCSV(n.Tag()))
		b.WriteByte(',')
		b.WriteString(n.CreatedAt.UTC().Format(isoMillis))
		b.WriteByte(',')
		b.WriteString(updated.UTC().Format(isoMillis))
	}
	return []byte(b.String())
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
