package pipeline_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/alnah/go-extract/internal/audio"
	"github.com/alnah/go-extract/internal/pipeline"
	"github.com/alnah/go-extract/internal/transcribe"
)

func seg(i int, start, end float64) audio.Segment {
	return audio.Segment{Index: i, StartSeconds: start, EndSeconds: end}
}

func mixedResults() []pipeline.SegmentResult {
	return []pipeline.SegmentResult{
		{Segment: seg(0, 0, 30), Outcome: transcribe.Failure(transcribe.KindSegmentCreation, errors.New("ffmpeg exit 1"))},
		{Segment: seg(1, 30, 60), Outcome: transcribe.Transcribed("  vanakkam ", " hello ", "ta")},
		{Segment: seg(2, 60, 75), Outcome: transcribe.NoSpeech("hi")},
		{Segment: seg(3, 75, 80), Outcome: transcribe.Transcribed("nandri", "thanks", "hi")},
	}
}

// ---------------------------------------------------------------------------
// Combine
// ---------------------------------------------------------------------------

func TestCombine_JoinsSuccessesInOrder(t *testing.T) {
	t.Parallel()

	got := pipeline.Combine(mixedResults())

	if len(got.Segments) != 4 {
		t.Fatalf("Segments = %d, want every result kept", len(got.Segments))
	}
	for i, r := range got.Segments {
		if r.Segment.Index != i {
			t.Errorf("Segments[%d].Index = %d", i, r.Segment.Index)
		}
	}
	if got.CombinedSource != "vanakkam nandri" {
		t.Errorf("CombinedSource = %q", got.CombinedSource)
	}
	if got.CombinedTranslated != "hello thanks" {
		t.Errorf("CombinedTranslated = %q", got.CombinedTranslated)
	}
}

func TestCombine_SourceLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		results []pipeline.SegmentResult
		want    string
	}{
		{"first reporting segment", mixedResults(), "ta"},
		{"skips unknown", []pipeline.SegmentResult{
			{Segment: seg(0, 0, 30), Outcome: transcribe.Transcribed("a", "a", "")},
			{Segment: seg(1, 30, 60), Outcome: transcribe.Transcribed("b", "b", "bn")},
		}, "bn"},
		{"no speech reports language", []pipeline.SegmentResult{
			{Segment: seg(0, 0, 30), Outcome: transcribe.NoSpeech("kn")},
			{Segment: seg(1, 30, 60), Outcome: transcribe.Transcribed("b", "b", "bn")},
		}, "kn"},
		{"none", []pipeline.SegmentResult{
			{Segment: seg(0, 0, 30), Outcome: transcribe.APIFailure(500, "x")},
		}, "unknown"},
		{"empty", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := pipeline.Combine(tt.results).SourceLanguage; got != tt.want {
				t.Errorf("SourceLanguage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCombine_Idempotent(t *testing.T) {
	t.Parallel()

	in := mixedResults()
	first := pipeline.Combine(in)
	second := pipeline.Combine(in)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Combine is not idempotent:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(in, mixedResults()) {
		t.Error("Combine modified its input")
	}

	first.Segments[0].Outcome.Message = "changed"
	if in[0].Outcome.Message == "changed" {
		t.Error("CombinedTranscript shares its segment slice with the input")
	}
}

func TestCombine_AllFailedHasEmptyText(t *testing.T) {
	t.Parallel()

	got := pipeline.Combine([]pipeline.SegmentResult{
		{Segment: seg(0, 0, 30), Outcome: transcribe.APIFailure(429, "slow down")},
	})

	if got.CombinedSource != "" || got.CombinedTranslated != "" {
		t.Errorf("combined = %q / %q, want empty", got.CombinedSource, got.CombinedTranslated)
	}
}

// ---------------------------------------------------------------------------
// CombinedTranscript.Document
// ---------------------------------------------------------------------------

func TestDocument_Layout(t *testing.T) {
	t.Parallel()

	doc := pipeline.Combine(mixedResults()).Document(80)

	wantInOrder := []string{
		"Long Audio Processing Results (Processed in 4 segments)\n",
		"Total Duration: 80.00s\n",
		strings.Repeat("-", 80),
		"SEGMENT 1 (0.00s - 30.00s):\n" + strings.Repeat("-", 40) + "\nCould not create audio segment: ffmpeg exit 1",
		"SEGMENT 2 (30.00s - 60.00s):",
		"Original (ta):\nvanakkam\n\nTranslated (English):\nhello",
		"SEGMENT 3 (60.00s - 75.00s):",
		"No speech detected in the audio.",
		"SEGMENT 4 (75.00s - 80.00s):",
		strings.Repeat("=", 80) + "\nCOMBINED TRANSCRIPT\n" + strings.Repeat("=", 80),
		"Original (ta):\nvanakkam nandri\n\nTranslated (English):\nhello thanks\n",
	}

	pos := 0
	for _, want := range wantInOrder {
		i := strings.Index(doc[pos:], want)
		if i < 0 {
			t.Fatalf("document missing %q after offset %d:\n%s", want, pos, doc)
		}
		pos += i + len(want)
	}
}

func TestDocument_OmitsEmptyOriginal(t *testing.T) {
	t.Parallel()

	doc := pipeline.Combine([]pipeline.SegmentResult{
		{Segment: seg(0, 0, 30), Outcome: transcribe.Transcribed("", "only english", "en")},
		{Segment: seg(1, 30, 31), Outcome: transcribe.NoSpeech("en")},
	}).Document(31)

	combined := doc[strings.Index(doc, "COMBINED TRANSCRIPT"):]
	if strings.Contains(combined, "Original (") {
		t.Errorf("combined block has an Original section:\n%s", combined)
	}
	if !strings.HasSuffix(doc, "Translated (English):\nonly english\n") {
		t.Errorf("document tail = %q", doc[len(doc)-60:])
	}
}
