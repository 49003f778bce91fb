package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/campaign-scorer/internal/artifacts"
	"github.com/wonny/campaign-scorer/internal/contracts"
	"github.com/wonny/campaign-scorer/internal/decision"
)

// Pipeline runs raw records through the four scoring stages.
// P1 Features → P2 Preprocess → P3 Scoring → P4 Decision
// ⭐ SSOT: 스테이지 순서는 여기서만
type Pipeline struct {
	engineer  contracts.FeatureEngineer
	transform contracts.Transformer
	scorer    contracts.Scorer
	policy    *decision.Policy
	workers   int
}

// New creates a pipeline from its stages
func New(
	engineer contracts.FeatureEngineer,
	transform contracts.Transformer,
	scorer contracts.Scorer,
	policy *decision.Policy,
	workers int,
) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		engineer:  engineer,
		transform: transform,
		scorer:    scorer,
		policy:    policy,
		workers:   workers,
	}
}

// FromBundle wires a pipeline over loaded artifacts
func FromBundle(b *artifacts.Bundle, workers int) *Pipeline {
	return New(b.Engineer, b.Transform, b.Model, b.Policy, workers)
}

// Threshold returns the decision threshold
func (p *Pipeline) Threshold() float64 {
	return p.policy.Threshold()
}

// Workers returns the batch concurrency limit
func (p *Pipeline) Workers() int {
	return p.workers
}

// PredictOne scores a single raw record
func (p *Pipeline) PredictOne(ctx context.Context, rec contracts.Record) (contracts.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return contracts.PredictionResult{}, err
	}

	// P1: 파생 변수
	engineered, err := p.engineer.Engineer(rec)
	if err != nil {
		return contracts.PredictionResult{}, &contracts.StageError{Stage: contracts.StageFeatures, Err: err}
	}

	// P2: 전처리
	vec, err := p.transform.Transform(engineered)
	if err != nil {
		return contracts.PredictionResult{}, &contracts.StageError{Stage: contracts.StagePreprocess, Err: err}
	}

	// P3: 모델 추론
	prob, err := p.scorer.Score(vec)
	if err != nil {
		return contracts.PredictionResult{}, &contracts.StageError{Stage: contracts.StageScoring, Err: err}
	}

	// P4: 임계값 판정
	return p.policy.Apply(prob), nil
}

// PredictMany scores records independently and returns results in input order.
// The batch is atomic: the first failure aborts it with a *contracts.RecordError.
func (p *Pipeline) PredictMany(ctx context.Context, recs []contracts.Record) ([]contracts.PredictionResult, error) {
	results := make([]contracts.PredictionResult, len(recs))

	if p.workers == 1 {
		for i, rec := range recs {
			res, err := p.PredictOne(ctx, rec)
			if err != nil {
				return nil, &contracts.RecordError{Index: i, Err: err}
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, rec := range recs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := p.PredictOne(gctx, rec)
			if err != nil {
				return &contracts.RecordError{Index: i, Err: err}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// cancelled before any goroutine observed it
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
