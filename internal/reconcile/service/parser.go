package service

import (
	"context"
	"fmt"

	"cargo-recon/internal/reconcile/model"
)

const (
	msgNoData      = "no data rows found in input"
	msgHeaderOnly  = "only a header row was found"
	msgNameMissing = "no name could be resolved; row skipped"
)

// ParseJob is a resumable extraction over one batch. Each Step processes at
// most YieldEvery rows in input order; callers may stop between steps and keep
// the partial Result.
type ParseJob struct {
	dict   *Dictionary
	every  int
	table  Table
	rows   [][]string
	next   int
	done   bool
	result model.ParseResult
	groups []model.DuplicateGroup
}

func (e *Engine) NewParseJob(text string) *ParseJob {
	t := e.dict.Tokenize(text)
	j := &ParseJob{
		dict:  e.dict,
		every: e.yieldEvery,
		table: t,
		rows:  t.DataRows(),
		result: model.ParseResult{
			Success:   true,
			Format:    t.Format,
			HasHeader: t.HasHeader,
			Headers:   t.Headers,
			Items:     []model.ParsedItem{},
			Warnings:  []model.Warning{},
		},
	}

	switch {
	case len(t.Rows) == 0:
		j.result.Success = false
		j.result.Error = msgNoData
		j.done = true
	case len(j.rows) == 0:
		j.result.Warnings = append(j.result.Warnings, model.Warning{RowIndex: 0, Message: msgHeaderOnly})
		j.done = true
	}
	return j
}

// Step processes the next chunk of rows and reports whether the job is complete.
func (j *ParseJob) Step() bool {
	if j.done {
		return true
	}
	end := min(j.next+j.every, len(j.rows))
	for ; j.next < end; j.next++ {
		rowIndex := j.next + j.table.DataStart
		item, ok := j.dict.Extract(rowIndex, j.rows[j.next])
		if !ok {
			j.result.Warnings = append(j.result.Warnings, model.Warning{
				RowIndex: rowIndex,
				Message:  fmt.Sprintf("row %d: %s", rowIndex, msgNameMissing),
			})
			continue
		}
		j.result.Items = append(j.result.Items, item)
	}
	if j.next >= len(j.rows) {
		j.groups = FindDuplicates(j.result.Items)
		j.done = true
	}
	return j.done
}

// Run steps until done or ctx is cancelled.
func (j *ParseJob) Run(ctx context.Context) (model.ParseResult, error) {
	for !j.done {
		if err := ctx.Err(); err != nil {
			return j.Result(), err
		}
		j.Step()
	}
	return j.Result(), nil
}

func (j *ParseJob) Done() bool { return j.done }

// Progress returns processed and total data rows.
func (j *ParseJob) Progress() (int, int) { return j.next, len(j.rows) }

// Result returns what has been extracted so far.
func (j *ParseJob) Result() model.ParseResult {
	r := j.result
	r.Items = make([]model.ParsedItem, len(j.result.Items))
	copy(r.Items, j.result.Items)
	r.Warnings = make([]model.Warning, len(j.result.Warnings))
	copy(r.Warnings, j.result.Warnings)
	return r
}

// Duplicates is nil until the job is done.
func (j *ParseJob) Duplicates() []model.DuplicateGroup { return j.groups }
