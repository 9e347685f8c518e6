package annotation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsnmst/idjwi-alert-system/internal/geo"
	"github.com/lsnmst/idjwi-alert-system/internal/mapview"
	"github.com/lsnmst/idjwi-alert-system/internal/notes"
	"github.com/lsnmst/idjwi-alert-system/internal/session"
)

type formFixture struct {
	m         *mapview.Headless
	store     *fakeStore
	disp      *queueDispatcher
	notifier  *recordingNotifier
	placement *PlacementController
	pipeline  *Pipeline
	form      *EntryForm
}

func newFormFixture(t *testing.T, sessions session.Provider) *formFixture {
	t.Helper()
	f := &formFixture{
		m:        mapview.NewHeadless(15),
		store:    &fakeStore{},
		disp:     newQueueDispatcher(),
		notifier: &recordingNotifier{},
	}
	f.placement = NewPlacementController(f.m, nil)
	f.pipeline = NewPipeline(context.Background(), f.m, f.store, f.disp, nil, nil, 12)
	f.form = NewEntryForm(context.Background(), f.placement, f.store, sessions, f.notifier, f.pipeline, f.disp, nil)
	f.placement.SetOnPlaced(f.form.Open)
	return f
}

// place arms placement and clicks the map at p, which opens the form.
func (f *formFixture) place(p geo.Point) {
	f.placement.Toggle()
	f.placement.HandleMapClick(p)
}

func TestSubmitWithoutPlacementWarnsAndSkipsRequest(t *testing.T) {
	f := newFormFixture(t, nil)

	f.form.Submit(Fields{Title: "Camp", Category: notes.CategorySettlement})

	assert.Equal(t, msgClickMapFirst, f.notifier.last(t))
	assert.Empty(t, f.store.insertedPayloads())
	f.disp.expectIdle(t)
}

func TestSubmitWithoutTitleWarnsAndSkipsRequest(t *testing.T) {
	f := newFormFixture(t, nil)
	f.place(geo.Point{Lat: 1, Lon: 2})

	f.form.Submit(Fields{Title: "   ", Category: notes.CategoryMine})

	assert.Equal(t, msgTitleRequired, f.notifier.last(t))
	assert.Empty(t, f.store.insertedPayloads())
	f.disp.expectIdle(t)
}

func TestSubmitSuccessClosesFormAndTriggersRefresh(t *testing.T) {
	f := newFormFixture(t, nil)
	f.place(geo.Point{Lat: 1, Lon: 2})
	require.True(t, f.form.Visible(), "a placed point opens the form")

	f.form.Submit(Fields{
		Title:       "Camp",
		Description: "Nouvelle installation",
		Category:    notes.CategorySettlement,
	})
	f.disp.runNext(t) // insert completion

	assert.Equal(t, msgSaved, f.notifier.last(t))
	assert.False(t, f.form.Visible())
	assert.Equal(t, ModeIdle, f.placement.Mode())
	assert.Empty(t, f.m.TransientMarkers())

	payloads := f.store.insertedPayloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "Camp", payloads[0].Title)
	assert.Equal(t, notes.CategorySettlement, payloads[0].Category)
	assert.Equal(t, []float64{2, 1}, payloads[0].Geom.Coordinates, "lon before lat")
	assert.Nil(t, payloads[0].CreatedBy, "anonymous submission carries no user id")

	f.disp.runNext(t) // refresh completion triggered by the successful insert
	assert.Equal(t, 1, f.store.listCount())
}

func TestSubmitUsesDraggedPositionNotOriginalClick(t *testing.T) {
	f := newFormFixture(t, nil)
	f.place(geo.Point{Lat: 1.0, Lon: 2.0})

	markers := f.m.TransientMarkers()
	require.Len(t, markers, 1)
	markers[0].Drag(geo.Point{Lat: 1.5, Lon: 2.5})

	f.form.Submit(Fields{Title: "Camp", Category: notes.CategorySettlement})
	f.disp.runNext(t)

	payloads := f.store.insertedPayloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, []float64{2.5, 1.5}, payloads[0].Geom.Coordinates)

	f.disp.runNext(t) // drain the follow-up refresh
}

func TestSubmitFailureKeepsFormOpenForRetry(t *testing.T) {
	f := newFormFixture(t, nil)
	f.place(geo.Point{Lat: 1, Lon: 2})
	f.store.insertErr = errors.New("store rejected the write")

	f.form.Submit(Fields{Title: "Camp", Category: notes.CategoryMine})
	f.disp.runNext(t)

	assert.Equal(t, msgSaveFailed, f.notifier.last(t))
	assert.True(t, f.form.Visible(), "form stays open after a failed save")

	point, ok := f.placement.PendingPoint()
	require.True(t, ok, "pending point survives for retry")
	assert.Equal(t, geo.Point{Lat: 1, Lon: 2}, point)
	f.disp.expectIdle(t)

	// Retry succeeds once the store recovers.
	f.store.mu.Lock()
	f.store.insertErr = nil
	f.store.mu.Unlock()

	f.form.Submit(Fields{Title: "Camp", Category: notes.CategoryMine})
	f.disp.runNext(t)

	assert.False(t, f.form.Visible())
	require.Len(t, f.store.insertedPayloads(), 1)
	f.disp.runNext(t) // follow-up refresh
}

func TestSubmitAttachesSessionIdentity(t *testing.T) {
	sessions := session.Static{ID: session.Identity{
		UserID:      "user-42",
		DisplayName: "ranger@example.org",
	}}
	f := newFormFixture(t, sessions)
	f.place(geo.Point{Lat: 1, Lon: 2})

	f.form.Submit(Fields{Title: "Camp", Category: notes.CategoryMine})
	f.disp.runNext(t)

	payloads := f.store.insertedPayloads()
	require.Len(t, payloads, 1)
	require.NotNil(t, payloads[0].CreatedBy)
	assert.Equal(t, "user-42", *payloads[0].CreatedBy)
	assert.Equal(t, "ranger@example.org", payloads[0].CreatedByName)

	f.disp.runNext(t) // follow-up refresh
}

func TestCloseResetsPlacement(t *testing.T) {
	f := newFormFixture(t, nil)
	f.place(geo.Point{Lat: 1, Lon: 2})
	require.True(t, f.form.Visible())

	f.form.Close()

	assert.False(t, f.form.Visible())
	assert.Equal(t, ModeIdle, f.placement.Mode())
	assert.Empty(t, f.m.TransientMarkers(), "dismissal never leaves an orphaned marker")
}
