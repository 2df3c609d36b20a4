package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"log"

	"github.com/hpungsan/fieldmark/internal/document"
	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/interact"
)

// RenderJob is a page render started by GoToPage. Run it without holding
// any lock, then hand the result to FinishRender.
type RenderJob struct {
	Page  int
	Scale float64

	gen uint64
	doc document.Document
	ctx context.Context
}

// Run renders the job's page.
func (j *RenderJob) Run() (image.Image, error) {
	return j.doc.Render(j.ctx, j.Page, j.Scale)
}

// GoToPage makes page the current page and returns the render job for it.
// Any render still running for a previous target is canceled, and its
// result will be discarded by FinishRender. A gesture in progress is dropped.
func (s *Session) GoToPage(ctx context.Context, page int) (*RenderJob, error) {
	if s.doc == nil {
		return nil, errors.NewNoDocument()
	}
	if page < 1 || page > s.doc.NumPages() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("page %d out of range 1-%d", page, s.doc.NumPages()))
	}

	s.cancelRender()
	s.renderGen++
	jobCtx, cancel := context.WithCancel(ctx)
	s.cancelPrev = cancel

	s.page = page
	s.viewport = s.viewportFor(page)
	s.surface = nil
	s.state = interact.State{}

	return &RenderJob{
		Page:  page,
		Scale: s.opts.RenderScale,
		gen:   s.renderGen,
		doc:   s.doc,
		ctx:   jobCtx,
	}, nil
}

// FinishRender applies a finished render. It reports whether the surface was
// applied: results of superseded jobs and canceled renders are dropped
// without error.
func (s *Session) FinishRender(job *RenderJob, img image.Image, err error) (bool, error) {
	if job.gen != s.renderGen {
		log.Printf("session: discarding stale render of page %d", job.Page)
		return false, nil
	}
	s.cancelRender()
	if stderrors.Is(err, document.ErrCanceled) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(fmt.Errorf("render page %d: %w", job.Page, err))
	}
	s.surface = img
	return true, nil
}

func (s *Session) cancelRender() {
	if s.cancelPrev != nil {
		s.cancelPrev()
		s.cancelPrev = nil
	}
}
