// Package entitlement decides, per viewer and per media item, whether the
// full-resolution asset URL may be disclosed. It is a pure function over a
// pre-fetched snapshot: callers batch-load the buyer and approval markers
// up front so listing many media costs one query, not one per item.
package entitlement

import "eventphoto-backend/internal/models"

// Viewer identifies the caller. A nil *Viewer is an anonymous request.
type Viewer struct {
	UserID  int
	IsAdmin bool
}

// Item is one media record plus the markers the policy consults. The
// markers describe the snapshot the caller fetched, not live state.
type Item struct {
	Media models.Media

	// PayerID and OrderApproved describe the owning purchase order when
	// the item is rendered inside an order view; PayerID is zero otherwise.
	PayerID       int
	OrderApproved bool

	// BoughtByViewer is set when the viewer appears in this media's
	// buyers set (direct purchase, granted at approval).
	BoughtByViewer bool

	// EventBoughtByViewer is set when the viewer bought the event that
	// transitively contains this media.
	EventBoughtByViewer bool
}

// Resolution is the per-item verdict. Disclosed items keep FullVersion;
// redacted items have it cleared.
type Resolution struct {
	Media     models.Media
	Disclosed bool
}

// Resolve applies the disclosure policy to each item, first match wins:
// admin, approved order paid by the viewer, direct purchase, parent event
// purchase. Everything else is redacted, including all anonymous requests.
func Resolve(viewer *Viewer, items []Item) []Resolution {
	out := make([]Resolution, len(items))
	for i, item := range items {
		disclosed := disclose(viewer, item)
		media := item.Media
		if !disclosed {
			media.FullVersion = ""
		}
		out[i] = Resolution{Media: media, Disclosed: disclosed}
	}
	return out
}

func disclose(viewer *Viewer, item Item) bool {
	if viewer == nil {
		return false
	}
	if viewer.IsAdmin {
		return true
	}
	if item.OrderApproved && item.PayerID == viewer.UserID {
		return true
	}
	if item.BoughtByViewer {
		return true
	}
	return item.EventBoughtByViewer
}
