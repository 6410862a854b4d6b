package api

import (
	"context"
	"log"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
	"github.com/Dakshesh-max/society-man/internal/model"
	"github.com/Dakshesh-max/society-man/internal/mw"
	"github.com/Dakshesh-max/society-man/internal/stats"
	"github.com/Dakshesh-max/society-man/internal/store"
)

// Options tunes the middleware of the router.
type Options struct {
	RateLimit rate.Limit
	Burst     int
	// CacheTTL enables the GET response cache when positive. Cached entries are
	// dropped by writes through this router and when the change channel reports
	// a write to their table.
	CacheTTL time.Duration
}

// tableRoutes are the cached route prefixes that read each table.
var tableRoutes = map[string][]string{
	model.TableMembers:         {"/api/members"},
	model.TableAnnouncements:   {"/api/announcements"},
	model.TableMaintenanceLogs: {"/api/maintenance"},
	model.TableVisitors:        {"/api/visitors"},
	model.TablePayments:        {"/api/payments"},
}

// NewRouter creates and configures a new Gin router. ctx bounds the cache
// invalidation watcher.
func NewRouter(ctx context.Context, s store.Store, changes changefeed.Subscriber, webpushOptions *webpush.Options, opts Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, changes, webpushOptions)

	caching := gin.HandlerFunc(mw.NoCache)
	if opts.CacheTTL > 0 && changes != nil {
		responses := mw.NewResponseCache(opts.CacheTTL, "/api/dashboard", "/api/reports")
		caching = responses.Handler()
		go func() {
			if err := responses.InvalidateOnChange(ctx, changes, tableRoutes); err != nil {
				log.Printf("Cache invalidation stopped: %v", err)
			}
		}()
	}

	api := r.Group("/api")
	if opts.RateLimit > 0 {
		api.Use(mw.RateLimiter(opts.RateLimit, opts.Burst))
	}
	{
		resource[model.Member, model.MemberInput]{
			repo:      s.Members(),
			summarize: func(items []model.Member, now time.Time) any { return stats.Members(items, now) },
			now:       handler.now,
		}.register(api.Group("/members"), caching)

		resource[model.Announcement, model.AnnouncementInput]{
			repo:      s.Announcements(),
			summarize: func(items []model.Announcement, _ time.Time) any { return stats.Announcements(items) },
			now:       handler.now,
		}.register(api.Group("/announcements"), caching)

		maintenance := api.Group("/maintenance")
		resource[model.MaintenanceLog, model.MaintenanceInput]{
			repo:      s.Maintenance(),
			summarize: func(items []model.MaintenanceLog, _ time.Time) any { return stats.Maintenance(items) },
			now:       handler.now,
			lister:    handler.ListMaintenance,
		}.register(maintenance, caching)
		maintenance.PATCH("/:id/status", caching, handler.UpdateMaintenanceStatus)

		visitors := api.Group("/visitors")
		resource[model.Visitor, model.VisitorInput]{
			repo:      s.Visitors(),
			summarize: func(items []model.Visitor, now time.Time) any { return stats.Visitors(items, now) },
			now:       handler.now,
		}.register(visitors, caching)
		visitors.POST("/:id/checkout", caching, handler.CheckOutVisitor)

		payments := api.Group("/payments")
		resource[model.Payment, model.PaymentInput]{
			repo:      s.Payments(),
			summarize: func(items []model.Payment, now time.Time) any { return stats.Payments(items, now) },
			now:       handler.now,
		}.register(payments, caching)
		payments.POST("/:id/pay", caching, handler.MarkPaymentPaid)

		api.GET("/dashboard", caching, handler.GetDashboard)
		api.GET("/reports/:kind", caching, handler.GetReport)
		api.GET("/changes", handler.StreamChanges)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
