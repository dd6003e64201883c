// SPDX-License-Identifier: Apache-2.0

// Package analysis routes user content to the detectors registered for its
// modality and turns their fused score into a Report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/authenticaproj/authentica/internal/classifier"
	"github.com/authenticaproj/authentica/internal/fusion"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrNotSupported      = errors.New("analysis is not yet supported")
	ErrEmptyInput        = errors.New("input is empty")
)

// Source describes the raw input to the analysis pipeline.
type Source struct {
	// Content is the raw text or file bytes.
	Content []byte
	// Format is an optional hint: a modality name, file extension or MIME type.
	Format string
	// ID is the file name or other identifier of the content.
	ID string
}

type Analyzer interface {
	CanHandle(source Source) bool
	Analyze(ctx context.Context, source Source) (Report, error)
	Name() string
}

// Report is the user-facing outcome of analyzing one Source.
type Report struct {
	ID            string                `json:"id" yaml:"id"`
	Source        string                `json:"source" yaml:"source"`
	Modality      classifier.Modality   `json:"modality" yaml:"modality"`
	Analyzer      string                `json:"analyzer" yaml:"analyzer"`
	Score         float64               `json:"score" yaml:"score"`
	Threshold     float64               `json:"threshold" yaml:"threshold"`
	Verdict       fusion.Verdict        `json:"verdict" yaml:"verdict"`
	Explanation   string                `json:"explanation" yaml:"explanation"`
	Contributions []fusion.Contribution `json:"contributions" yaml:"contributions"`
	WeightSum     float64               `json:"weight_sum" yaml:"weight_sum"`
	Balanced      bool                  `json:"balanced" yaml:"balanced"`
	AnalyzedAt    time.Time             `json:"analyzed_at" yaml:"analyzed_at"`
}

// NewReport builds a Report for source from an ensemble evaluation.
func NewReport(source Source, analyzer string, ev Evaluation) Report {
	return Report{
		ID:            uuid.NewString(),
		Source:        source.ID,
		Modality:      ev.Modality,
		Analyzer:      analyzer,
		Score:         ev.Result.Score,
		Threshold:     ev.Threshold,
		Verdict:       ev.Verdict,
		Explanation:   ev.Result.Explanation,
		Contributions: ev.Result.Contributions,
		WeightSum:     ev.Result.WeightSum,
		Balanced:      ev.Result.Balanced,
		AnalyzedAt:    time.Now().UTC(),
	}
}

// Percent formats the score as a percentage, e.g. "85.00%".
func (r Report) Percent() string {
	return fmt.Sprintf("%.2f%%", r.Score*100)
}

// Delta formats the signed distance of the score from the threshold, e.g. "+35.00%".
func (r Report) Delta() string {
	return fmt.Sprintf("%+.2f%%", (r.Score-r.Threshold)*100)
}

// DetectModality resolves the modality of source from its format hint, then its
// file extension, then its content.
func DetectModality(source Source) classifier.Modality {
	if m := modalityFromHint(source.Format); m != classifier.Unknown {
		return m
	}
	if m := modalityFromHint(filepath.Ext(source.ID)); m != classifier.Unknown {
		return m
	}
	if len(source.Content) == 0 {
		return classifier.Unknown
	}
	return modalityFromMIME(mimetype.Detect(source.Content).String())
}

func modalityFromHint(hint string) classifier.Modality {
	h := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hint), "."))
	switch h {
	case "":
		return classifier.Unknown
	case "text", "txt", "md", "markdown":
		return classifier.Text
	case "image", "png", "jpg", "jpeg", "gif", "webp", "bmp":
		return classifier.Image
	case "audio", "mp3", "wav", "flac", "ogg", "m4a":
		return classifier.Audio
	case "video", "mp4", "mov", "avi", "mkv", "webm":
		return classifier.Video
	case "document", "pdf", "doc", "docx":
		return classifier.Document
	}
	if strings.Contains(h, "/") {
		return modalityFromMIME(h)
	}
	return classifier.Unknown
}

func modalityFromMIME(mime string) classifier.Modality {
	mime = strings.ToLower(mime)
	switch {
	case strings.HasPrefix(mime, "text/"):
		return classifier.Text
	case strings.HasPrefix(mime, "image/"):
		return classifier.Image
	case strings.HasPrefix(mime, "audio/"):
		return classifier.Audio
	case strings.HasPrefix(mime, "video/"):
		return classifier.Video
	case strings.HasPrefix(mime, "application/pdf"),
		strings.HasPrefix(mime, "application/msword"),
		strings.Contains(mime, "officedocument.wordprocessingml"):
		return classifier.Document
	}
	return classifier.Unknown
}
