package verification

import (
	"context"
	"sync"

	irisctx "github.com/Ramsey-B/iris/pkg/context"
	"github.com/Ramsey-B/iris/pkg/errors"
	"github.com/Ramsey-B/iris/pkg/mapper"
	"github.com/Ramsey-B/iris/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Document is one raw document in a batch
type Document struct {
	ID           string `json:"id"`
	RawText      string `json:"raw_text"`
	DocumentType string `json:"document_type"`
}

// VerifyBatch maps and verifies every document against the same user record
// in parallel, at most BatchConcurrency at a time. Results are keyed by
// document id; documents without an id are given one.
//
// The whole batch is rejected up front when a document type is unknown or an
// id repeats.
func (v *Verifier) VerifyBatch(ctx context.Context, user map[string]string, docs []Document, opts Options) (map[string]MappedResult, error) {
	types := make([]mapper.DocumentType, len(docs))
	ids := make([]string, len(docs))
	seen := make(map[string]bool, len(docs))

	for i, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return nil, errors.NewVerificationError("duplicate document id").
				AddStage(errors.StageRequest).AddDocument(id)
		}
		seen[id] = true
		ids[i] = id

		docType, err := mapper.ParseDocumentType(doc.DocumentType)
		if err != nil {
			return nil, errors.WrapVerificationError(err).
				AddStage(errors.StageMapping).AddField("document_type").AddDocument(id)
		}
		types[i] = docType
	}

	cfg, err := v.resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	metrics.BatchSize.Observe(float64(len(docs)))

	var mu sync.Mutex
	results := make(map[string]MappedResult, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	if limit := cfg.BatchConcurrency; limit > 0 {
		g.SetLimit(limit)
	}

	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			docCtx := irisctx.SetDocumentID(ctx, ids[i])
			docCtx = irisctx.SetDocumentType(docCtx, string(types[i]))

			result, err := v.MapAndVerify(docCtx, doc.RawText, types[i], user, opts)
			if err != nil {
				return errors.WrapVerificationError(err).AddDocument(ids[i])
			}

			mu.Lock()
			results[ids[i]] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	v.logger.WithContext(ctx).WithFields(map[string]any{
		"documents":   len(docs),
		"concurrency": cfg.BatchConcurrency,
	}).Debug("Verified document batch")
	return results, nil
}
