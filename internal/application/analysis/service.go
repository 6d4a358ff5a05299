package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iyervish/design-crit/internal/application"
	domain "github.com/iyervish/design-crit/internal/domain/analysis"
)

// MaxUploadBytes is the upload size ceiling, re-checked server-side.
const MaxUploadBytes = 10 << 20 // 10 MiB

// DefaultTimeout bounds one whole pipeline run end to end.
const DefaultTimeout = 60 * time.Second

// Service implements the analyze use-case: intake -> capture/normalize ->
// evaluate -> validate/shape -> persist. Steps are strictly sequential and a
// single deadline covers the whole run. Safe for concurrent use; all state is
// in the injected collaborators.
type Service struct {
	Repo      domain.Repository
	Evaluator domain.Evaluator
	Capturer  domain.Capturer
	Clock     application.Clock

	// AllowURLInput gates the url path at intake; when false the capturer
	// is never reached.
	AllowURLInput bool

	// TrustReportedOverall keeps the evaluator's self-reported overall
	// score. Off by default: the overall is recomputed from the ten
	// category scores.
	TrustReportedOverall bool

	// Timeout for one pipeline run; DefaultTimeout when zero.
	Timeout time.Duration
}

// AnalyzeCommand carries one intake, already demultiplexed from the transport.
type AnalyzeCommand struct {
	Type       string
	URL        string
	ImageBytes []byte
	Filename   string
}

type AnalyzeResult struct {
	ID domain.ResultID `json:"id"`
}

// Analyze runs the full pipeline for one request. Intake failures return a
// *domain.ValidationError before any external call; everything after intake
// collapses to capture/evaluation/persistence errors. No partial result is
// ever persisted: the id only exists once both artifacts are written.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		image       []byte
		sourceType  domain.SourceType
		sourceValue string
	)

	switch cmd.Type {
	case string(domain.SourceURL):
		if !s.AllowURLInput {
			return AnalyzeResult{}, domain.NewValidationError("URL analysis is disabled")
		}
		if cmd.URL == "" {
			return AnalyzeResult{}, domain.NewValidationError("URL is required")
		}
		if err := validateTargetURL(cmd.URL); err != nil {
			return AnalyzeResult{}, err
		}
		captured, err := s.Capturer.Capture(ctx, cmd.URL)
		if err != nil {
			log.Printf("capture error for %s: %v", cmd.URL, err)
			return AnalyzeResult{}, fmt.Errorf("%w: %v", domain.ErrCaptureFailed, err)
		}
		image = captured
		sourceType = domain.SourceURL
		sourceValue = cmd.URL

	case string(domain.SourceScreenshot):
		if len(cmd.ImageBytes) == 0 {
			return AnalyzeResult{}, domain.NewValidationError("Screenshot file is required")
		}
		if err := validateUpload(cmd.ImageBytes); err != nil {
			return AnalyzeResult{}, err
		}
		image = cmd.ImageBytes
		sourceType = domain.SourceScreenshot
		sourceValue = cmd.Filename

	default:
		return AnalyzeResult{}, domain.NewValidationError("Invalid request type")
	}

	raw, err := s.Evaluator.Evaluate(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return AnalyzeResult{}, err
	}

	res, err := domain.ParseVerdict(raw)
	if err != nil {
		// keep the raw text in the log for diagnosis, never persist it
		log.Printf("malformed evaluator output: %v raw=%q", err, raw)
		return AnalyzeResult{}, err
	}

	if !s.TrustReportedOverall {
		res.OverallScore = res.MeanCategoryScore()
	}
	res.Timestamp = s.Clock.Now().UTC()
	res.SourceType = sourceType
	res.SourceValue = sourceValue

	id, err := s.Repo.Put(ctx, res, image)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("persist result: %w", err)
	}
	return AnalyzeResult{ID: id}, nil
}

// Get returns a stored result and its screenshot.
func (s *Service) Get(ctx context.Context, id domain.ResultID) (*domain.Result, []byte, error) {
	return s.Repo.Get(ctx, id)
}

// Recent returns a page of stored result summaries, newest first.
func (s *Service) Recent(ctx context.Context, page, pageSize int) ([]domain.Summary, error) {
	return s.Repo.Recent(ctx, page, pageSize)
}

// validateTargetURL requires an absolute http(s) URL and blocks loopback
// targets so the capturer cannot be pointed at the host itself.
func validateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return domain.NewValidationError("Invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return domain.NewValidationError("Invalid URL format")
	}
	host := strings.ToLower(u.Hostname())
	for _, blocked := range []string{"localhost", "127.0.0.1", "0.0.0.0", "::1"} {
		if host == blocked {
			return domain.NewValidationError("Invalid URL format")
		}
	}
	return nil
}

// validateUpload re-checks size and sniffed media type server-side; the
// client's declared content type is never trusted.
func validateUpload(data []byte) error {
	if len(data) > MaxUploadBytes {
		return domain.NewValidationError("Screenshot exceeds the 10 MiB limit")
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return domain.NewValidationError("Uploaded file is not an image")
	}
	return nil
}
