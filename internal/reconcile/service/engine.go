package service

import (
	"context"

	"cargo-recon/internal/reconcile/model"
)

const defaultYieldEvery = 50

type Options struct {
	YieldEvery int // rows processed per ParseJob step
}

// Engine runs the tokenize -> extract -> group pipeline with one dictionary.
type Engine struct {
	dict       *Dictionary
	yieldEvery int
}

func NewEngine(dict *Dictionary, opt Options) *Engine {
	if opt.YieldEvery <= 0 {
		opt.YieldEvery = defaultYieldEvery
	}
	return &Engine{dict: dict, yieldEvery: opt.YieldEvery}
}

func (e *Engine) Dictionary() *Dictionary { return e.dict }

// Parse runs a ParseJob to completion. On cancellation the partial result is
// returned together with ctx.Err().
func (e *Engine) Parse(ctx context.Context, text string) (model.ParseResult, []model.DuplicateGroup, error) {
	job := e.NewParseJob(text)
	res, err := job.Run(ctx)
	return res, job.Duplicates(), err
}
