package pipeline

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/hyperjump/docanalyzer/internal/ocr"
)

// Pool bounds concurrent calls into expensive capabilities: OCR and model-backed stages.
// Callers beyond the limit wait in FIFO order.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// NewPool returns a pool admitting size concurrent workers; values below 1 mean 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Do runs fn once a worker is free. It returns ctx.Err() if ctx ends while waiting.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

// pooledRecognizer routes every recognition through the pool.
type pooledRecognizer struct {
	ocr.Recognizer
	pool *Pool
}

func (r pooledRecognizer) Recognize(ctx context.Context, image []byte) (ocr.Recognition, error) {
	var rec ocr.Recognition
	err := r.pool.Do(ctx, func() error {
		var err error
		rec, err = r.Recognizer.Recognize(ctx, image)
		return err
	})
	return rec, err
}
