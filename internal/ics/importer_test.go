package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"dialcal/internal/event"
	"dialcal/internal/model"
	"dialcal/internal/settings"
	"dialcal/internal/store"
)

func TestImporterRefreshIsIdempotent(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer feed.Close()

	blobs := store.New(t.TempDir())
	svc := event.New(blobs, settings.New(blobs))
	im := NewImporter(NewFetcher(t.TempDir()), svc, blobs, "#4f8df5")

	sources := []Source{{ID: "test", URL: feed.URL}}

	imported, err := im.Refresh(context.Background(), sources)
	require.NoError(t, err)
	require.Equal(t, 2, imported)

	all := svc.All()
	require.Len(t, all, 2)
	for _, ev := range all {
		require.NotEmpty(t, ev.ID)
		require.Equal(t, "#4f8df5", ev.Color)
	}

	// A second refresh of the same feed must not duplicate anything.
	imported, err = im.Refresh(context.Background(), sources)
	require.NoError(t, err)
	require.Zero(t, imported)
	require.Len(t, svc.All(), 2)
}

func TestImporterRefreshNoSources(t *testing.T) {
	blobs := store.New(t.TempDir())
	svc := event.New(blobs, settings.New(blobs))
	im := NewImporter(NewFetcher(t.TempDir()), svc, blobs, "#4f8df5")

	imported, err := im.Refresh(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, imported)
}

func TestImportedRepeatsSurviveAsDialRules(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer feed.Close()

	blobs := store.New(t.TempDir())
	svc := event.New(blobs, settings.New(blobs))
	im := NewImporter(NewFetcher(t.TempDir()), svc, blobs, "#4f8df5")

	_, err := im.Refresh(context.Background(), []Source{{ID: "test", URL: feed.URL}})
	require.NoError(t, err)

	repeats := make(map[string]model.Repeat)
	for _, ev := range svc.All() {
		repeats[ev.Description] = ev.Repeat
	}
	require.Equal(t, model.RepeatDay, repeats["Standup"])
	require.Equal(t, model.RepeatNever, repeats["Dentist"])
}
