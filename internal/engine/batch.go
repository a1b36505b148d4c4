package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	rerrors "github.com/equiprank/equiprank/internal/errors"
)

// SearchBatch runs several searches concurrently and returns responses in
// request order. The whole batch fails on the first malformed query; batches
// larger than the configured maximum are rejected up front.
func (e *Engine) SearchBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	if len(reqs) == 0 {
		return []*Response{}, nil
	}
	if max := e.cfg.Search.MaxBatchQueries; max > 0 && len(reqs) > max {
		return nil, rerrors.New(rerrors.ErrCodeBatchTooBig,
			fmt.Sprintf("batch of %d queries exceeds the maximum of %d", len(reqs), max), nil)
	}

	responses := make([]*Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			resp, err := e.Search(gctx, req)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}
