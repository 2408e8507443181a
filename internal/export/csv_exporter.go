// Package export serializes submissions and dashboard stats for the
// client-initiated download actions.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"clinicalforge/contributor-portal/contributor-portal-backend/internal/submissions"
)

// CSVOptions configures submission CSV export.
type CSVOptions struct {
	Delimiter       rune   `json:"delimiter"`
	UseCRLF         bool   `json:"use_crlf"`
	IncludeHeader   bool   `json:"include_header"`
	TimestampFormat string `json:"timestamp_format"`
}

// DefaultCSVOptions returns the defaults used by the download endpoint.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:       ',',
		UseCRLF:         false,
		IncludeHeader:   true,
		TimestampFormat: time.RFC3339,
	}
}

var submissionColumns = []string{
	"submission_id", "form_type", "status", "disease_name", "collaborator_id",
	"overall_score", "completeness_score", "data_quality_score",
	"clinical_relevance_score", "missing_sections", "keywords", "submitted_at",
}

// CSVExporter writes submission rows to a CSV stream.
type CSVExporter struct {
	writer        *csv.Writer
	options       CSVOptions
	headerWritten bool
}

// NewCSVExporter creates a CSV exporter over w.
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	writer.Comma = options.Delimiter
	writer.UseCRLF = options.UseCRLF
	return &CSVExporter{writer: writer, options: options}
}

// WriteSubmissions writes all rows (and the header, once) and flushes.
func (e *CSVExporter) WriteSubmissions(subs []submissions.Submission) error {
	if e.options.IncludeHeader && !e.headerWritten {
		if err := e.writer.Write(submissionColumns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		e.headerWritten = true
	}

	for i := range subs {
		if err := e.writer.Write(e.row(&subs[i])); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	e.writer.Flush()
	return e.writer.Error()
}

func (e *CSVExporter) row(s *submissions.Submission) []string {
	disease := ""
	if o := s.Payload.DiseaseOverview; o != nil {
		disease = o.DiseaseName
	}
	return []string{
		s.SubmissionID,
		string(s.FormType),
		string(s.Status),
		disease,
		s.CollaboratorID,
		strconv.Itoa(s.Validation.OverallScore),
		strconv.Itoa(s.Validation.CompletenessScore),
		strconv.Itoa(s.Validation.DataQualityScore),
		strconv.Itoa(s.Validation.ClinicalRelevanceScore),
		strings.Join(s.Validation.MissingSections, ";"),
		strings.Join(s.SearchIndex.Keywords, ";"),
		s.SubmittedAt.Format(e.options.TimestampFormat),
	}
}
