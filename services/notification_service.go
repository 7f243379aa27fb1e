package services

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"eteeap-portfolio-api/config"
	"eteeap-portfolio-api/models"
)

// Message is the content of one notification event.
type Message struct {
	Title       string
	Body        string
	Type        string
	PortfolioID *uint
}

// Channel delivers a persisted notification outside the in-app inbox.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, recipient models.User, n models.Notification) error
}

// NotificationService fans events out to users. It is always called after the
// triggering transaction commits and never reports failure to the caller.
type NotificationService struct {
	db       *gorm.DB
	channels []Channel
}

func NewNotificationService(db *gorm.DB, channels ...Channel) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db, channels: channels}
}

// Notify stores msg for every user in userIDs and hands each row to the channels.
func (s *NotificationService) Notify(ctx context.Context, userIDs []uint, msg Message) {
	if s == nil {
		return
	}
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&users).Error; err != nil {
		log.Printf("notification recipients lookup failed (title=%q): %v", msg.Title, err)
		return
	}
	if len(users) == 0 {
		return
	}

	nType := msg.Type
	if nType == "" {
		nType = models.NotificationInfo
	}
	now := time.Now()
	rows := make([]models.Notification, len(users))
	for i, u := range users {
		rows[i] = models.Notification{
			UserID:             u.UserID,
			Title:              msg.Title,
			Message:            msg.Body,
			Type:               nType,
			RelatedPortfolioID: msg.PortfolioID,
			CreatedAt:          now,
		}
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		log.Printf("notification insert failed (title=%q): %v", msg.Title, err)
		return
	}

	for i, u := range users {
		for _, ch := range s.channels {
			if err := ch.Deliver(ctx, u, rows[i]); err != nil {
				log.Printf("notification %s delivery failed (user=%d title=%q): %v", ch.Name(), u.UserID, msg.Title, err)
			}
		}
	}
}

// NotifyAdmins sends msg to every admin and super-admin.
func (s *NotificationService) NotifyAdmins(ctx context.Context, msg Message, extra ...uint) {
	if s == nil {
		return
	}
	ids, err := s.AdminIDs(ctx)
	if err != nil {
		log.Printf("admin lookup for notification failed (title=%q): %v", msg.Title, err)
	}
	s.Notify(ctx, append(ids, extra...), msg)
}

// AdminIDs returns the ids of all admin and super-admin users.
func (s *NotificationService) AdminIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role IN ?", []models.Role{models.RoleAdmin, models.RoleSuperAdmin}).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// List returns a page of the user's notifications, newest first, plus the unread count.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	db := s.db.WithContext(ctx)
	q := db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	items := make([]models.Notification, 0)
	if err := q.Order("created_at DESC, notification_id DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, notFoundOr(err, "list notifications")
	}

	var unread int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, 0, notFoundOr(err, "count unread notifications")
	}
	return items, unread, nil
}

// MarkRead marks one of the user's notifications as read. Notifications owned
// by someone else are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	db := s.db.WithContext(ctx)

	var n models.Notification
	if err := db.Where("notification_id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
		return nil, notFoundOr(err, "load notification")
	}
	if n.IsRead {
		return &n, nil
	}

	now := time.Now()
	if err := db.Model(&n).Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, notFoundOr(err, "mark notification read")
	}
	n.IsRead = true
	n.ReadAt = &now
	return &n, nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return 0, notFoundOr(res.Error, "mark all notifications read")
	}
	return res.RowsAffected, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
