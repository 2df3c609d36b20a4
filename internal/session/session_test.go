package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/fieldmark/internal/document"
	"github.com/hpungsan/fieldmark/internal/errors"
	"github.com/hpungsan/fieldmark/internal/field"
	"github.com/hpungsan/fieldmark/internal/geom"
	"github.com/hpungsan/fieldmark/internal/interact"
)

func testOptions() Options {
	return Options{
		SnapTolerancePx: 5,
		MinFieldPercent: field.DefaultMinSize,
		ReferenceScale:  1,
		RenderScale:     1.5,
	}
}

// newTestSession returns a session with a 1000x1000 px viewport, so 10 px
// is one percent.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := New(testOptions())
	require.NoError(t, s.SetViewport(geom.Size{Width: 1000, Height: 1000}))
	return s
}

func addField(t *testing.T, s *Session, page int, x, y, w, h float64, name string) field.Field {
	t.Helper()
	f, added, err := s.AddField(page, geom.Rect{X: x, Y: y, Width: w, Height: h}, name)
	require.NoError(t, err)
	require.True(t, added)
	return f
}

func pointer(s *Session, kind interact.EventKind, x, y float64) interact.Phase {
	return s.Dispatch(interact.Event{Kind: kind, Pos: geom.Point{X: x, Y: y}})
}

func TestDraw_TinyRectangleDiscarded(t *testing.T) {
	s := newTestSession(t)
	s.SetDrawMode(true)

	pointer(s, interact.PointerDown, 100, 100)
	pointer(s, interact.PointerMove, 103, 103)
	pointer(s, interact.PointerUp, 103, 103)

	assert.Empty(t, s.Fields(0))
	assert.Empty(t, s.Selected())
}

func TestDraw_CommitsAndSelectsNewField(t *testing.T) {
	s := newTestSession(t)
	s.SetDrawMode(true)

	assert.Equal(t, interact.Drawing, pointer(s, interact.PointerDown, 100, 100))
	pointer(s, interact.PointerMove, 110, 110)
	assert.Equal(t, interact.Idle, pointer(s, interact.PointerUp, 110, 110))

	all := s.Fields(0)
	require.Len(t, all, 1)
	assert.InDelta(t, 1, all[0].Width, 1e-9)
	assert.InDelta(t, 1, all[0].Height, 1e-9)
	assert.Equal(t, "variable_1", all[0].VariableName)
	assert.Equal(t, []string{all[0].ID}, s.Selected())
}

func TestDelete_PrunesSelectionInSameStep(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 10, 10, 10, 10, "a")
	b := addField(t, s, 1, 30, 30, 10, 10, "b")
	require.NoError(t, s.Select([]string{a.ID, b.ID}))

	removed := s.DeleteFields(a.ID)
	assert.Equal(t, []string{a.ID}, removed)
	assert.Equal(t, []string{b.ID}, s.Selected())

	err := s.Rename(a.ID, "ghost")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = s.MoveField(a.ID, 50, 50)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	got, err := s.Field(b.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.VariableName)
}

func TestKey_DeleteRemovesSelection(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 10, 10, 10, 10, "a")
	b := addField(t, s, 1, 30, 30, 10, 10, "b")
	addField(t, s, 1, 60, 60, 10, 10, "c")
	require.NoError(t, s.Select([]string{a.ID, b.ID}))

	assert.True(t, s.Key("Backspace"))
	assert.Len(t, s.Fields(0), 1)
	assert.Empty(t, s.Selected())

	assert.False(t, s.Key("q"))
}

func TestKey_DeleteIgnoredMidDrag(t *testing.T) {
	s := newTestSession(t)
	addField(t, s, 1, 10, 10, 10, 10, "a")

	pointer(s, interact.PointerDown, 150, 150)
	s.Key("Delete")
	assert.Len(t, s.Fields(0), 1)
}

func TestKey_EscapeRestoresDragAndClears(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 10, 10, 10, 10, "a")

	pointer(s, interact.PointerDown, 150, 150)
	pointer(s, interact.PointerMove, 450, 450)
	moved, _ := s.Field(a.ID)
	require.InDelta(t, 40, moved.X, 1e-9)

	assert.True(t, s.Key("Escape"))
	got, _ := s.Field(a.ID)
	assert.Equal(t, 10.0, got.X)
	assert.Equal(t, 10.0, got.Y)
	assert.Empty(t, s.Selected())
	assert.Equal(t, interact.Idle, s.State().Phase)
}

func TestLasso_SelectsEnclosedOnCurrentPage(t *testing.T) {
	s := newTestSession(t)
	in := addField(t, s, 1, 20, 20, 10, 10, "in")
	addField(t, s, 1, 35, 35, 10, 10, "partial")
	addField(t, s, 2, 20, 20, 10, 10, "other page")
	s.ClearSelection()

	pointer(s, interact.PointerDown, 50, 50)
	pointer(s, interact.PointerMove, 400, 400)
	assert.Equal(t, []string{in.ID}, s.Selected())

	view := s.View()
	require.NotNil(t, view.Lasso)
	assert.InDelta(t, 35, view.Lasso.Width, 1e-9)

	pointer(s, interact.PointerUp, 400, 400)
	assert.Equal(t, []string{in.ID}, s.Selected())
	assert.Nil(t, s.View().Lasso)
}

func TestDrag_SnapsToUnselectedField(t *testing.T) {
	s := newTestSession(t)
	anchor := addField(t, s, 1, 10, 20, 10, 5, "anchor")
	addField(t, s, 1, 60, 30, 10, 5, "target")
	require.NoError(t, s.Select([]string{anchor.ID}))

	pointer(s, interact.PointerDown, 150, 220)
	pointer(s, interact.PointerMove, 152, 317)

	got, _ := s.Field(anchor.ID)
	assert.Equal(t, 30.0, got.Y)
	view := s.View()
	require.NotNil(t, view.Guide)
	assert.Equal(t, 30.0, *view.Guide)

	pointer(s, interact.PointerLeave, 152, 317)
	assert.Nil(t, s.View().Guide)
	assert.Equal(t, interact.Idle, s.State().Phase)
}

func TestDrag_MultiSelectionMovesTogether(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 10, 10, 10, 10, "a")
	b := addField(t, s, 1, 50, 70, 10, 10, "b")
	require.NoError(t, s.Select([]string{a.ID, b.ID}))

	pointer(s, interact.PointerDown, 150, 150)
	pointer(s, interact.PointerMove, 150, 450)
	pointer(s, interact.PointerUp, 150, 450)

	ga, _ := s.Field(a.ID)
	gb, _ := s.Field(b.ID)
	assert.InDelta(t, 40, ga.Y, 1e-9)
	assert.InDelta(t, 90, gb.Y, 1e-9, "clamped at the bottom edge")
	assert.ElementsMatch(t, []string{a.ID, b.ID}, s.Selected())
}

func TestSyncYSelected(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 0, 10, 5, 5, "A")
	b := addField(t, s, 1, 10, 30, 5, 5, "B")
	c := addField(t, s, 1, 20, 50, 5, 5, "C")
	require.NoError(t, s.Select([]string{c.ID, b.ID, a.ID}))

	assert.Equal(t, 3, s.SyncYSelected())
	for _, f := range s.Fields(0) {
		assert.Equal(t, 10.0, f.Y)
	}
}

func TestSelect_UnknownIDFailsWithoutChange(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 0, 10, 5, 5, "A")

	err := s.Select([]string{a.ID, "missing"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, []string{a.ID}, s.Selected())
}

func TestMoveField_Clamps(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 0, 0, 20, 10, "A")

	got, err := s.MoveField(a.ID, 95, -5)
	require.NoError(t, err)
	assert.Equal(t, geom.Rect{X: 80, Y: 0, Width: 20, Height: 10}, got.Rect)
}

func TestImport_MalformedLeavesFieldsUntouched(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 0, 10, 5, 5, "A")

	_, err := s.Import([]byte(`{"not":"an array"}`))
	assert.True(t, errors.Is(err, errors.ErrMalformedInput))
	require.Len(t, s.Fields(0), 1)
	assert.Equal(t, a.ID, s.Fields(0)[0].ID)
	assert.Equal(t, []string{a.ID}, s.Selected())
}

func TestImport_ReplacesAndPrunesSelection(t *testing.T) {
	s := newTestSession(t)
	a := addField(t, s, 1, 0, 10, 5, 5, "A")
	b := addField(t, s, 1, 0, 30, 5, 5, "B")
	require.NoError(t, s.Select([]string{a.ID, b.ID}))

	n, err := s.Import([]byte(`[{"id":"` + b.ID + `","x":1,"y":2,"width":3,"height":4},{"variableName":"new"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{b.ID}, s.Selected())

	all := s.Fields(0)
	require.Len(t, all, 2)
	assert.Equal(t, geom.Rect{X: 1, Y: 2, Width: 3, Height: 4}, all[0].Rect)
	assert.Equal(t, "new", all[1].VariableName)
}

func TestExportImportRoundTrip(t *testing.T) {
	s := New(testOptions())
	require.NoError(t, s.LoadDocument("letter", document.NewBlank(document.Letter)))
	addField(t, s, 1, 12.5, 40, 25, 5, "total")

	data, err := s.Export()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pdfCoordinates"`)

	other := New(testOptions())
	require.NoError(t, other.LoadDocument("letter", document.NewBlank(document.Letter)))
	_, err = other.Import(data)
	require.NoError(t, err)
	assert.Equal(t, s.Fields(0), other.Fields(0))
}

func TestLoadDocument_ResetsSession(t *testing.T) {
	s := New(testOptions())
	addField(t, s, 3, 0, 0, 5, 5, "before")

	require.NoError(t, s.LoadDocument("two pages", document.NewBlank(document.Letter, geom.Size{Width: 100, Height: 200})))
	assert.Empty(t, s.Fields(0))
	assert.Empty(t, s.Selected())
	assert.Equal(t, 1, s.Page())
	assert.Equal(t, 2, s.NumPages())
	assert.Equal(t, geom.Size{Width: 918, Height: 1188}, s.Viewport())
	assert.Equal(t, map[int]geom.Size{1: document.Letter, 2: {Width: 100, Height: 200}}, s.Dimensions())

	_, _, err := s.AddField(3, geom.Rect{Width: 5, Height: 5}, "")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestLoadDocument_EmptyRejected(t *testing.T) {
	s := New(testOptions())
	addField(t, s, 1, 0, 0, 5, 5, "keep")

	err := s.LoadDocument("empty", document.NewBlank())
	assert.True(t, errors.Is(err, errors.ErrLoadFailed))
	assert.Len(t, s.Fields(0), 1)
}

func TestGoToPage_Errors(t *testing.T) {
	s := New(testOptions())
	_, err := s.GoToPage(context.Background(), 1)
	assert.True(t, errors.Is(err, errors.ErrNoDocument))

	require.NoError(t, s.LoadDocument("doc", document.NewBlank(document.Letter)))
	_, err = s.GoToPage(context.Background(), 2)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestGoToPage_SupersededRenderDiscarded(t *testing.T) {
	s := New(testOptions())
	require.NoError(t, s.LoadDocument("doc", document.NewBlank(document.Letter, document.Letter, document.Letter)))

	first, err := s.GoToPage(context.Background(), 2)
	require.NoError(t, err)
	second, err := s.GoToPage(context.Background(), 3)
	require.NoError(t, err)

	img, err := first.Run()
	assert.ErrorIs(t, err, document.ErrCanceled)
	applied, err := s.FinishRender(first, img, err)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, s.Surface())

	img, err = second.Run()
	require.NoError(t, err)
	applied, err = s.FinishRender(second, img, err)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NotNil(t, s.Surface())
	assert.Equal(t, 3, s.Page())
}

func TestGoToPage_LateResultOfOldPageDiscarded(t *testing.T) {
	s := New(testOptions())
	require.NoError(t, s.LoadDocument("doc", document.NewBlank(document.Letter, document.Letter)))

	// The renderer finished before noticing cancellation.
	first, err := s.GoToPage(context.Background(), 1)
	require.NoError(t, err)
	img, err := first.Run()
	require.NoError(t, err)

	_, err = s.GoToPage(context.Background(), 2)
	require.NoError(t, err)

	applied, err := s.FinishRender(first, img, nil)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Nil(t, s.Surface())
}

func TestShared_LoadDocumentRendersFirstPage(t *testing.T) {
	sh := NewShared(New(testOptions()))
	require.NoError(t, sh.LoadDocument(context.Background(), "doc", document.NewBlank(document.Letter)))

	err := sh.Do(func(s *Session) error {
		view := s.View()
		assert.True(t, view.Rendered)
		assert.Equal(t, "doc", view.Document)
		require.NotNil(t, view.PageSize)
		assert.Equal(t, document.Letter, *view.PageSize)
		return nil
	})
	require.NoError(t, err)
}

func TestView_DrawPreview(t *testing.T) {
	s := newTestSession(t)
	s.SetDrawMode(true)

	pointer(s, interact.PointerDown, 100, 100)
	pointer(s, interact.PointerMove, 300, 200)

	view := s.View()
	assert.Equal(t, interact.Drawing, view.Phase)
	require.NotNil(t, view.Preview)
	assert.InDelta(t, 20, view.Preview.Width, 1e-9)
	assert.InDelta(t, 10, view.Preview.Height, 1e-9)
	assert.NotNil(t, view.Fields)
}

func TestAddField_OversizedStaysOnPage(t *testing.T) {
	s := newTestSession(t)
	f := addField(t, s, 1, 30, 40, 150, 120, "big")
	assert.LessOrEqual(t, f.Rect.Right(), geom.FullExtent)
	assert.LessOrEqual(t, f.Rect.Bottom(), geom.FullExtent)

	moved, err := s.MoveField(f.ID, 10, 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, moved.Rect.Right(), geom.FullExtent)
	assert.LessOrEqual(t, moved.Rect.Bottom(), geom.FullExtent)
}
