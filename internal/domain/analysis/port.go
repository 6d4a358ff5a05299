package analysis

import "context"

// Repository port for persisting and retrieving results. Put stores the
// verdict and its source image under one freshly generated id; both artifacts
// are published together or not at all.
type Repository interface {
	Put(ctx context.Context, res *Result, image []byte) (ResultID, error)
	Get(ctx context.Context, id ResultID) (*Result, []byte, error)
	Recent(ctx context.Context, page, pageSize int) ([]Summary, error)
}

// Evaluator port for the external multimodal model. Takes the canonical
// base64 PNG payload and returns the model's raw textual output, which is
// intended to parse as a Result but is not guaranteed to.
type Evaluator interface {
	Evaluate(ctx context.Context, imageBase64 string) (string, error)
}

// Capturer port for full-page webpage screenshots.
type Capturer interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}
