package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
	"github.com/Dakshesh-max/society-man/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	changes changefeed.Subscriber
	webpush *webpush.Options
	now     func() time.Time
}

// NewHandler creates a new API handler. changes may be nil, in which case the
// change stream endpoint reports 503.
func NewHandler(s store.Store, changes changefeed.Subscriber, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		changes: changes,
		webpush: webpushOptions,
		now:     time.Now,
	}
}
