// Package users resolves Slack user IDs to display names and keeps them for
// the life of the process.
package users

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/m96-chan/slackline/internal/model"
	"github.com/m96-chan/slackline/internal/paginate"
)

// Getter fetches the raw name fields for one user.
type Getter interface {
	GetUser(ctx context.Context, userID string) (model.UserFields, error)
}

// Directory is the user-name cache. Resolve and Seed are the only writers;
// entries are never evicted.
type Directory struct {
	getter Getter
	group  singleflight.Group

	mu    sync.RWMutex
	names map[string]string
}

// NewDirectory creates an empty Directory backed by getter.
func NewDirectory(getter Getter) *Directory {
	return &Directory{
		getter: getter,
		names:  make(map[string]string),
	}
}

// Resolve returns the display name for userID, fetching it on first use.
// It never fails: any lookup error caches and returns the ID itself.
func (d *Directory) Resolve(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}
	if name, ok := d.lookup(userID); ok {
		return name
	}

	v, _, _ := d.group.Do(userID, func() (any, error) {
		if name, ok := d.lookup(userID); ok {
			return name, nil
		}
		name := userID
		if d.getter != nil {
			fields, err := paginate.Do(ctx, func(ctx context.Context) (model.UserFields, error) {
				return d.getter.GetUser(ctx, userID)
			})
			if err != nil {
				slog.Warn("failed to resolve user", "user", userID, "error", err)
			} else {
				fields.ID = userID
				name = fields.DisplayName()
			}
		}
		d.store(userID, name)
		return name, nil
	})
	return v.(string)
}

// ReverseLookup finds a cached user whose display name matches name,
// ignoring case. It never triggers a network call.
func (d *Directory) ReverseLookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for id, n := range d.names {
		if strings.EqualFold(n, name) {
			return id, true
		}
	}
	return "", false
}

// Seed records a known name without a network call.
func (d *Directory) Seed(userID, name string) {
	if userID == "" || name == "" {
		return
	}
	d.store(userID, name)
}

// Names returns a copy of the cache for read-only use.
func (d *Directory) Names() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.names))
	for id, n := range d.names {
		out[id] = n
	}
	return out
}

// Len returns the number of cached entries.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}

func (d *Directory) lookup(userID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[userID]
	return name, ok
}

func (d *Directory) store(userID, name string) {
	d.mu.Lock()
	d.names[userID] = name
	d.mu.Unlock()
}
