package services

import (
	"fmt"
	"time"

	"tutorhub_go/database"
	"tutorhub_go/models"
	"tutorhub_go/services/notifications"
	"tutorhub_go/services/subscription"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the recurring background jobs: the subscription expiry
// sweep and activity log maintenance. Jobs only read subscription state
// and write notifications; they never flip subscription flags, the
// resolver decides activity at read time.
type Scheduler struct {
	cron       *cron.Cron
	logArchive *LogArchiveService
	notifier   *notifications.Service
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		logArchive: NewLogArchiveService(),
		notifier:   notifications.NewService(),
	}
}

// Start registers and starts all recurring jobs.
func (s *Scheduler) Start() {
	// hourly: flush Redis-cached activity logs into the database
	if _, err := s.cron.AddFunc("@hourly", func() {
		if err := s.logArchive.FlushCachedLogsToDatabase(); err != nil {
			logrus.WithError(err).Warn("Log flush failed")
		}
	}); err != nil {
		logrus.WithError(err).Error("Failed to schedule log flush job")
	}

	// nightly at 03:00: archive activity logs older than 30 days to S3
	if _, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.logArchive.ArchiveOldLogs(30); err != nil {
			logrus.WithError(err).Warn("Log archive failed")
		}
	}); err != nil {
		logrus.WithError(err).Error("Failed to schedule log archive job")
	}

	// daily at 08:00: notify owners about lapsed or soon-to-expire subscriptions
	if _, err := s.cron.AddFunc("0 8 * * *", func() {
		if err := s.RunExpirySweep(time.Now()); err != nil {
			logrus.WithError(err).Warn("Subscription expiry sweep failed")
		}
	}); err != nil {
		logrus.WithError(err).Error("Failed to schedule expiry sweep job")
	}

	s.cron.Start()
	logrus.Info("Background scheduler started")
}

// Stop halts the scheduler. Running jobs finish before Stop returns.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunExpirySweep notifies subscription owners whose active subscription has
// lapsed or expires within the next 7 days. It is idempotent per day: a
// repeat notification for the same subscription and day is skipped.
func (s *Scheduler) RunExpirySweep(now time.Time) error {
	horizon := now.AddDate(0, 0, 7)

	var subs []models.Subscription
	err := database.DB.
		Preload("Plan").
		Where("is_active = ? AND end_date IS NOT NULL AND end_date <= ?", true, horizon).
		Find(&subs).Error
	if err != nil {
		return err
	}

	var notified int
	for _, sub := range subs {
		recipients, err := s.subscriptionRecipients(&sub)
		if err != nil {
			logrus.WithError(err).Warnf("Skipping expiry notice for subscription %d", sub.ID)
			continue
		}
		if len(recipients) == 0 {
			continue
		}

		remaining := subscription.RemainingDays(&sub, now)
		if sub.EndDate != nil && sub.EndDate.Before(now) {
			remaining = -1
		}
		title, message, ntype := expiryNotice(sub.Plan.Name, remaining)

		if s.alreadyNotifiedToday(recipients[0], sub.ID, now) {
			continue
		}

		n := notifications.QueuedWithData(title, message, ntype, map[string]interface{}{
			"subscription_id": sub.ID,
			"plan_id":         sub.PlanID,
			"end_date":        sub.EndDate,
		})
		if err := s.notifier.EnqueueOrCreate(recipients, n); err != nil {
			logrus.WithError(err).Warnf("Failed to enqueue expiry notice for subscription %d", sub.ID)
			continue
		}
		notified++
	}

	if notified > 0 {
		logrus.Infof("Expiry sweep sent notices for %d subscriptions", notified)
	}
	return nil
}

// subscriptionRecipients resolves who should hear about a subscription:
// the owning user, or the center owner for center subscriptions.
func (s *Scheduler) subscriptionRecipients(sub *models.Subscription) ([]uint, error) {
	if sub.UserID != nil {
		return []uint{*sub.UserID}, nil
	}
	if sub.CenterID != nil {
		var center models.Center
		if err := database.DB.First(&center, *sub.CenterID).Error; err != nil {
			return nil, err
		}
		return []uint{center.OwnerID}, nil
	}
	return nil, nil
}

// alreadyNotifiedToday checks for an existing expiry notice created today
// for the same subscription, so repeated sweeps stay quiet.
func (s *Scheduler) alreadyNotifiedToday(userID, subscriptionID uint, now time.Time) bool {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var count int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND created_at >= ? AND data LIKE ?",
			userID, dayStart, fmt.Sprintf("%%\"subscription_id\":%d%%", subscriptionID)).
		Count(&count)
	return count > 0
}

func expiryNotice(planName string, remainingDays int) (title, message, ntype string) {
	if remainingDays < 0 {
		return "Subscription expired",
			fmt.Sprintf("Your %s subscription has expired. Renew to keep adding students and assistants.", planName),
			"error"
	}
	if remainingDays == 0 {
		return "Subscription expires today",
			fmt.Sprintf("Your %s subscription expires today. Renew now to avoid interruption.", planName),
			"warning"
	}
	return "Subscription expiring soon",
		fmt.Sprintf("Your %s subscription expires in %d day(s).", planName, remainingDays),
		"warning"
}
