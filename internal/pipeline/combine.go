package pipeline

import (
	"fmt"
	"strings"

	"github.com/alnah/go-extract/internal/format"
	"github.com/alnah/go-extract/internal/lang"
)

// CombinedTranscript is the fold of ordered segment results.
type CombinedTranscript struct {
	Segments           []SegmentResult
	SourceLanguage     string
	CombinedSource     string
	CombinedTranslated string
}

// Combine folds segment results. It keeps every result in order, takes the
// source language from the first segment that reports one, and joins the
// text of successful segments with single spaces. It does not modify its
// input, so combining the same results twice yields equal transcripts.
func Combine(results []SegmentResult) CombinedTranscript {
	ct := CombinedTranscript{
		Segments:       append([]SegmentResult(nil), results...),
		SourceLanguage: lang.Unknown,
	}

	var sources, translations []string
	languageSet := false
	for _, r := range results {
		if !languageSet && r.Outcome.Processed() && lang.Known(r.Outcome.SourceLanguage) {
			ct.SourceLanguage = r.Outcome.SourceLanguage
			languageSet = true
		}
		if !r.Outcome.OK() {
			continue
		}
		if s := strings.TrimSpace(r.Outcome.SourceText); s != "" {
			sources = append(sources, s)
		}
		if s := strings.TrimSpace(r.Outcome.TranslatedText); s != "" {
			translations = append(translations, s)
		}
	}

	ct.CombinedSource = strings.Join(sources, " ")
	ct.CombinedTranslated = strings.Join(translations, " ")
	return ct
}

var (
	wideRule   = strings.Repeat("-", 80)
	narrowRule = strings.Repeat("-", 40)
	doubleRule = strings.Repeat("=", 80)
)

// Document renders the per-segment report followed by the combined text.
func (c CombinedTranscript) Document(totalSeconds float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Long Audio Processing Results (Processed in %d segments)\n", len(c.Segments))
	fmt.Fprintf(&b, "Total Duration: %s\n%s\n", format.Seconds(totalSeconds), wideRule)

	for _, r := range c.Segments {
		fmt.Fprintf(&b, "\nSEGMENT %d (%s - %s):\n%s\n%s\n",
			r.Segment.Index+1,
			format.Seconds(r.Segment.StartSeconds),
			format.Seconds(r.Segment.EndSeconds),
			narrowRule,
			r.Outcome.Text())
	}

	fmt.Fprintf(&b, "\n%s\nCOMBINED TRANSCRIPT\n%s\n\n", doubleRule, doubleRule)
	if c.CombinedSource != "" {
		fmt.Fprintf(&b, "Original (%s):\n%s\n\n", c.SourceLanguage, c.CombinedSource)
	}
	fmt.Fprintf(&b, "Translated (English):\n%s\n", c.CombinedTranslated)
	return b.String()
}
