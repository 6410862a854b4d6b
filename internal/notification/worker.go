package notification

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"github.com/Dakshesh-max/society-man/internal/changefeed"
	"github.com/Dakshesh-max/society-man/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Payload is the JSON body a subscribed browser receives.
type Payload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Priority string `json:"priority"`
	Pinned   bool   `json:"pinned"`
}

// WorkerPool pushes announcements to every stored subscription.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case announcementID := <-wp.jobs:
			log.Printf("Worker %d processing announcement %s", id, announcementID)
			wp.sendNotificationsForAnnouncement(ctx, announcementID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an announcement. It blocks while every worker is busy and
// the queue is full.
func (wp *WorkerPool) Dispatch(announcementID string) {
	wp.jobs <- announcementID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

// Watch dispatches every newly inserted announcement until ctx ends.
// Announcements that are neither urgent nor pinned are skipped by the workers.
func (wp *WorkerPool) Watch(ctx context.Context, sub changefeed.Subscriber) error {
	s, err := sub.Subscribe(ctx, model.TableAnnouncements)
	if err != nil {
		return err
	}
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.Events():
			if !ok {
				return nil
			}
			if ev.Op != changefeed.OpInsert {
				continue
			}
			select {
			case wp.jobs <- ev.ID:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (wp *WorkerPool) sendNotificationsForAnnouncement(ctx context.Context, announcementID string) {
	var announcement model.Announcement
	if err := wp.db.WithContext(ctx).Where("id = ?", announcementID).First(&announcement).Error; err != nil {
		log.Printf("Error fetching announcement %s: %v", announcementID, err)
		return
	}
	if !announcement.Broadcast() {
		return
	}

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for announcement %s: %v", announcementID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(Payload{
		ID:       announcement.ID,
		Title:    announcement.Title,
		Body:     announcement.Content,
		Priority: announcement.Priority,
		Pinned:   announcement.IsPinned,
	})
	if err != nil {
		log.Printf("Error encoding announcement %s: %v", announcementID, err)
		return
	}

	log.Printf("Sending %d notifications for announcement %s", len(subscriptions), announcementID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
