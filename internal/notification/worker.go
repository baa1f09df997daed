package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleetops-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Alert describes one event worth pushing to a depot's operators.
type Alert struct {
	DepotID int64
	Message string
}

// FlaggedAlert builds the message sent when schedules of a depot are flagged
// for reassignment.
func FlaggedAlert(depotID int64, count int64) Alert {
	msg := fmt.Sprintf("%d schedules at your depot need reassignment", count)
	if count == 1 {
		msg = "1 schedule at your depot needs reassignment"
	}
	return Alert{DepotID: depotID, Message: msg}
}

// WorkerPool delivers alerts to depot operators off the request path. The
// flagging itself is transactional; only the notification fan-out is
// asynchronous.
type WorkerPool struct {
	size    int
	jobs    chan Alert
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Alert, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	logrus.Debugf("notification worker %d started", id)
	for {
		select {
		case alert := <-wp.jobs:
			wp.deliver(ctx, alert)
		case <-ctx.Done():
			logrus.Debugf("notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an alert for delivery.
func (wp *WorkerPool) Dispatch(alert Alert) {
	wp.jobs <- alert
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Alert {
	return wp.jobs
}

// deliver fans one alert out to every subscription of the depot.
func (wp *WorkerPool) deliver(ctx context.Context, alert Alert) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("depot_id = ?", alert.DepotID).
		Find(&subscriptions).Error
	if err != nil {
		logrus.Errorf("failed to fetch subscriptions for depot %d: %v", alert.DepotID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	logrus.Infof("sending %d notifications for depot %d", len(subscriptions), alert.DepotID)
	for _, sub := range subscriptions {
		wp.send(ctx, sub, []byte(alert.Message))
	}
}

// send pushes a single notification, removing the subscription if the push
// service reports it gone.
func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		logrus.Errorf("failed to send notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		logrus.Infof("subscription %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			logrus.Errorf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
