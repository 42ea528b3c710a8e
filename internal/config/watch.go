package config

import (
	"context"
	"crypto/sha256"
	"os"
	"reflect"
	"sort"
	"time"

	"grabbi/internal/model"
)

// CatalogChange lists the franchise ids that differ between two catalogs.
type CatalogChange struct {
	Added        []string `json:"added,omitempty"`
	Removed      []string `json:"removed,omitempty"`
	HoursChanged []string `json:"hours_changed,omitempty"`
	Updated      []string `json:"updated,omitempty"`
}

// Empty reports whether the catalogs serve the same franchises.
func (c CatalogChange) Empty() bool {
	return len(c.Added)+len(c.Removed)+len(c.HoursChanged)+len(c.Updated) == 0
}

// DiffFranchises compares two catalogs by franchise id. A franchise whose
// hours changed is listed in HoursChanged only; other field changes such
// as activation, fees or location go to Updated. prev may be nil.
func DiffFranchises(prev, next *FranchisesConfig) CatalogChange {
	before := map[string]*model.Franchise{}
	if prev != nil {
		for i := range prev.Franchises {
			before[prev.Franchises[i].ID] = &prev.Franchises[i]
		}
	}

	var change CatalogChange
	seen := map[string]bool{}
	if next != nil {
		for i := range next.Franchises {
			f := &next.Franchises[i]
			seen[f.ID] = true
			old, ok := before[f.ID]
			switch {
			case !ok:
				change.Added = append(change.Added, f.ID)
			case !reflect.DeepEqual(old.StoreHours, f.StoreHours):
				change.HoursChanged = append(change.HoursChanged, f.ID)
			case !reflect.DeepEqual(old, f):
				change.Updated = append(change.Updated, f.ID)
			}
		}
	}
	for id := range before {
		if !seen[id] {
			change.Removed = append(change.Removed, id)
		}
	}

	sort.Strings(change.Added)
	sort.Strings(change.Removed)
	sort.Strings(change.HoursChanged)
	sort.Strings(change.Updated)
	return change
}

// WatchFranchises loads franchises.yaml, then polls it and calls onUpdate
// whenever the served catalog changes. Edits that fail validation are
// skipped and the last good catalog stays in place. Edits that leave every
// franchise as it was, such as comments, do not trigger onUpdate.
func WatchFranchises(ctx context.Context, path string, interval time.Duration, onUpdate func(*FranchisesConfig, CatalogChange)) error {
	if path == "" {
		path = "configs/franchises.yaml"
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	current, err := ParseFranchisesConfig(data)
	if err != nil {
		return err
	}
	digest := sha256.Sum256(data)
	if onUpdate != nil {
		onUpdate(current, DiffFranchises(nil, current))
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			sum := sha256.Sum256(data)
			if sum == digest {
				continue
			}
			next, err := ParseFranchisesConfig(data)
			if err != nil {
				continue
			}
			digest = sum

			change := DiffFranchises(current, next)
			if change.Empty() {
				continue
			}
			current = next
			if onUpdate != nil {
				onUpdate(next, change)
			}
		}
	}()

	return nil
}
