// Package settings stores the widget's singleton configuration record.
package settings

import (
	"encoding/json"
	"fmt"

	appLog "dialcal/internal/log"
	"dialcal/internal/model"
	"dialcal/internal/store"
)

const blobName = "settings.json"

type Store struct {
	blobs *store.Store
}

func New(blobs *store.Store) *Store {
	return &Store{blobs: blobs}
}

// Default returns the settings used when nothing valid is persisted.
func Default() model.Settings {
	return model.Settings{
		AutoDelete: model.RepeatNever,
		ColorTheme: "default",
	}
}

// Load returns the persisted settings. It never fails: a missing,
// unreadable or malformed blob yields Default(), and individual fields
// with unknown values are reset to their defaults.
func (s *Store) Load() model.Settings {
	data, ok, err := s.blobs.Read(blobName)
	if err != nil {
		appLog.Error("settings: read failed, using defaults", err)
		return Default()
	}
	if !ok {
		return Default()
	}

	var st model.Settings
	if err := json.Unmarshal(data, &st); err != nil {
		appLog.Error("settings: corrupt blob, using defaults", err)
		return Default()
	}

	if !st.AutoDelete.Valid() {
		st.AutoDelete = model.RepeatNever
	}
	if st.ColorTheme == "" {
		st.ColorTheme = Default().ColorTheme
	}
	return st
}

// Save validates and persists the settings. Shape errors are returned
// as model.FieldError; write failures are wrapped and propagated.
func (s *Store) Save(st model.Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := s.blobs.Write(blobName, data); err != nil {
		return fmt.Errorf("settings: persist: %w", err)
	}
	return nil
}
