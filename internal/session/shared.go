package session

import (
	"context"
	"sync"

	"github.com/hpungsan/fieldmark/internal/document"
)

// Shared serialises access to a Session from several goroutines: the MCP
// server, the web inspector and the file watcher all mutate one session.
type Shared struct {
	mu sync.Mutex
	s  *Session
}

// NewShared wraps s.
func NewShared(s *Session) *Shared {
	return &Shared{s: s}
}

// Do runs fn with exclusive access to the session.
func (sh *Shared) Do(fn func(s *Session) error) error {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return fn(sh.s)
}

// GoToPage switches page and renders it. The lock is released while the
// render runs, so other callers proceed and may supersede it; rendered is
// false when that happens.
func (sh *Shared) GoToPage(ctx context.Context, page int) (rendered bool, err error) {
	sh.mu.Lock()
	job, err := sh.s.GoToPage(ctx, page)
	sh.mu.Unlock()
	if err != nil {
		return false, err
	}

	img, renderErr := job.Run()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.s.FinishRender(job, img, renderErr)
}

// LoadDocument switches document and renders its first page.
func (sh *Shared) LoadDocument(ctx context.Context, name string, doc document.Document) error {
	if err := sh.Do(func(s *Session) error { return s.LoadDocument(name, doc) }); err != nil {
		return err
	}
	_, err := sh.GoToPage(ctx, 1)
	return err
}
