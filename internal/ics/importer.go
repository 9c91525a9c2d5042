package ics

import (
	"context"
	"encoding/json"
	"sync"

	"dialcal/internal/event"
	appLog "dialcal/internal/log"
	"dialcal/internal/store"
)

const importedBlob = "ics-imported.json"

// Importer pulls ICS subscription feeds into the local event store.
// Imported UIDs are remembered in a blob so refreshing a feed never
// duplicates events; the store's own IDs stay service-assigned.
type Importer struct {
	fetcher *Fetcher
	svc     *event.Service
	blobs   *store.Store

	// mu serializes Refresh: the HTTP import endpoint and the
	// maintenance cron both call it, and the seen-UID ledger is a
	// load-merge-persist cycle of its own.
	mu sync.Mutex

	// DefaultColor is assigned to imported events, which carry no color
	// of their own.
	DefaultColor string
}

func NewImporter(fetcher *Fetcher, svc *event.Service, blobs *store.Store, defaultColor string) *Importer {
	return &Importer{
		fetcher:      fetcher,
		svc:          svc,
		blobs:        blobs,
		DefaultColor: defaultColor,
	}
}

// Refresh fetches every source and creates events for VEVENTs not seen
// before. It returns the number of newly imported events; per-source
// fetch and parse failures are logged and skipped so one broken feed
// never blocks the others.
func (im *Importer) Refresh(ctx context.Context, sources []Source) (int, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	seen := im.loadSeen()

	results, fetchErrs := im.fetcher.FetchAll(ctx, sources)
	if len(fetchErrs) > 0 {
		appLog.Warn("ics refresh: some feeds failed", "failed", len(fetchErrs))
	}

	imported := 0
	for _, res := range results {
		parsed, err := Parse(res.Source, res.Body)
		if err != nil {
			continue
		}
		for _, p := range parsed {
			if _, ok := seen[p.UID]; ok {
				continue
			}
			ev := p.Event
			ev.Color = im.DefaultColor
			created, err := im.svc.Create(ev)
			if err != nil {
				appLog.Error("ics refresh: create failed", err, "uid", p.UID)
				continue
			}
			seen[p.UID] = created.ID
			imported++
		}
	}

	if imported > 0 {
		if err := im.saveSeen(seen); err != nil {
			return imported, err
		}
		appLog.Info("ics refresh imported events", "count", imported)
	}
	return imported, nil
}

func (im *Importer) loadSeen() map[string]string {
	seen := make(map[string]string)
	data, ok, err := im.blobs.Read(importedBlob)
	if err != nil || !ok {
		return seen
	}
	if err := json.Unmarshal(data, &seen); err != nil {
		appLog.Error("ics refresh: corrupt import ledger, starting fresh", err)
		return make(map[string]string)
	}
	return seen
}

func (im *Importer) saveSeen(seen map[string]string) error {
	data, err := json.MarshalIndent(seen, "", "  ")
	if err != nil {
		return err
	}
	return im.blobs.Write(importedBlob, data)
}
