package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"businessconnect_backend/internal/config"
	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/metrics"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/payment"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

// Reconciliation outcomes, also used as metric labels.
const (
	OutcomeActivated      = "activated"
	OutcomeCancelled      = "cancelled"
	OutcomePending        = "pending"
	OutcomeAmountMismatch = "amount_mismatch"
	OutcomeNoop           = "noop"
)

type SubscriptionConfig struct {
	Plans         []config.Plan
	Currency      string
	ReminderDays  int
	WebhookSecret string
	SiteID        string
}

type SubscriptionService interface {
	Plans() []config.Plan
	Initiate(ctx context.Context, db *gorm.DB, actor Actor, req *dto.InitiateSubscriptionRequest) (*dto.InitiateSubscriptionResponse, error)

	// HandleWebhook verifies a CinetPay notification and reconciles the
	// subscription against the gateway. Repeated deliveries are no-ops.
	HandleWebhook(ctx context.Context, db *gorm.DB, req dto.WebhookRequest) (*dto.ReconcileResult, error)
	Verify(ctx context.Context, db *gorm.DB, actor Actor, transactionID string) (*dto.ReconcileResult, error)

	Current(db *gorm.DB, userID string) (*models.Subscription, error)
	Status(db *gorm.DB, userID string) (*dto.SubscriptionStatusResponse, error)
	History(db *gorm.DB, userID string) ([]models.Subscription, error)
	Cancel(ctx context.Context, db *gorm.DB, actor Actor) (*models.Subscription, error)
	AdminList(db *gorm.DB, actor Actor, req *dto.SubscriptionListRequest) (*dto.ListResponse[models.Subscription], error)

	// ExpireDue expires ended subscriptions and sends the one-time reminders.
	ExpireDue(ctx context.Context, db *gorm.DB) (*dto.ExpiryResult, error)
}

type SubscriptionServiceImpl struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
	gateway          payment.Gateway
	notifications    NotificationService
	emails           EmailService
	publisher        events.Publisher
	metrics          *metrics.Metrics
	config           SubscriptionConfig
	now              func() time.Time
	async            bool
}

func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
	gateway payment.Gateway,
	notifications NotificationService,
	emails EmailService,
	publisher events.Publisher,
	m *metrics.Metrics,
	cfg SubscriptionConfig,
) SubscriptionService {
	if cfg.Currency == "" {
		cfg.Currency = "XOF"
	}
	if cfg.ReminderDays <= 0 {
		cfg.ReminderDays = 3
	}
	if len(cfg.Plans) == 0 {
		cfg.Plans = config.DefaultPlans()
	}
	return &SubscriptionServiceImpl{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		gateway:          gateway,
		notifications:    notifications,
		emails:           emails,
		publisher:        publisher,
		metrics:          m,
		config:           cfg,
		now:              func() time.Time { return time.Now().UTC() },
		async:            true,
	}
}

func (s *SubscriptionServiceImpl) Plans() []config.Plan {
	return s.config.Plans
}

func (s *SubscriptionServiceImpl) Initiate(ctx context.Context, db *gorm.DB, actor Actor, req *dto.InitiateSubscriptionRequest) (*dto.InitiateSubscriptionResponse, error) {
	plan, ok := s.findPlan(req.Plan)
	if !ok {
		return nil, apperrors.ErrPlanNotFound
	}

	user, err := s.userRepo.FindByID(db, actor.UserID)
	if err != nil {
		return nil, handleUserError(err)
	}

	sub := &models.Subscription{
		UserID:    user.ID,
		Plan:      plan.ID,
		Status:    models.SubscriptionStatusPending,
		Amount:    plan.Price,
		Currency:  s.config.Currency,
		PaymentID: newTransactionID(),
	}
	if err := s.subscriptionRepo.Create(db, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}

	initReq := payment.InitRequest{
		TransactionID: sub.PaymentID,
		Amount:        int64(plan.Price),
		Currency:      sub.Currency,
		Description:   "Abonnement " + plan.Name,
		CustomerID:    user.ID,
		CustomerName:  user.FullName(),
		CustomerEmail: user.Email,
		Metadata:      sub.ID,
	}
	if user.Phone != nil {
		initReq.CustomerPhone = *user.Phone
	}

	result, err := s.gateway.InitPayment(ctx, initReq)
	if err != nil {
		logger.CtxWithError(ctx, "Payment initialization failed", err, "subscription_id", sub.ID, "plan", plan.ID)
		s.metrics.PaymentInitiated(plan.ID, "error")

		now := s.now()
		if _, tErr := s.subscriptionRepo.Transition(db, sub.ID, models.SubscriptionStatusPending, models.SubscriptionStatusCancelled,
			map[string]interface{}{"cancelled_at": now, "gateway_status": "INIT_FAILED"}); tErr != nil {
			logger.CtxWithError(ctx, "Failed to cancel subscription after gateway error", tErr, "subscription_id", sub.ID)
		}
		return nil, apperrors.ErrPaymentGateway.WithError(err)
	}

	sub.PaymentURL = result.PaymentURL
	if err := s.subscriptionRepo.Update(db, sub); err != nil {
		return nil, apperrors.InternalError(err)
	}
	s.metrics.PaymentInitiated(plan.ID, "ok")

	logger.CtxInfo(ctx, "Subscription payment initiated", "subscription_id", sub.ID, "transaction_id", sub.PaymentID, "plan", plan.ID)
	return &dto.InitiateSubscriptionResponse{
		Subscription:  sub,
		PaymentURL:    result.PaymentURL,
		TransactionID: sub.PaymentID,
	}, nil
}

func (s *SubscriptionServiceImpl) HandleWebhook(ctx context.Context, db *gorm.DB, req dto.WebhookRequest) (*dto.ReconcileResult, error) {
	n, err := payment.ParseCinetPayNotification(s.config.WebhookSecret, s.config.SiteID, req.Token, req.Form)
	if err != nil {
		s.metrics.WebhookHandled("rejected")
		if errors.Is(err, payment.ErrMissingField) {
			return nil, apperrors.NewBadRequestError("cpm_trans_id is required")
		}
		logger.CtxWarn(ctx, "Rejected payment notification", "error", err.Error())
		return nil, apperrors.ErrInvalidWebhookSignature
	}

	sub, err := s.subscriptionRepo.FindByPaymentID(db, n.TransactionID)
	if err != nil {
		s.metrics.WebhookHandled("unknown")
		return nil, handleSubscriptionError(err)
	}

	result, err := s.reconcile(ctx, db, sub)
	if err != nil {
		s.metrics.WebhookHandled("error")
		return nil, err
	}
	s.metrics.WebhookHandled(result.Outcome)
	return result, nil
}

func (s *SubscriptionServiceImpl) Verify(ctx context.Context, db *gorm.DB, actor Actor, transactionID string) (*dto.ReconcileResult, error) {
	sub, err := s.subscriptionRepo.FindByPaymentID(db, transactionID)
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	if !actor.CanModify(sub.UserID) {
		return nil, apperrors.ErrSubscriptionNotFound
	}
	return s.reconcile(ctx, db, sub)
}

// reconcile trusts only the gateway's check API. Only pending subscriptions
// move, so an active one is never downgraded by a late failure notice.
func (s *SubscriptionServiceImpl) reconcile(ctx context.Context, db *gorm.DB, sub *models.Subscription) (*dto.ReconcileResult, error) {
	if sub.Status != models.SubscriptionStatusPending {
		return &dto.ReconcileResult{Subscription: sub, Outcome: OutcomeNoop}, nil
	}

	check, err := s.gateway.CheckPayment(ctx, sub.PaymentID)
	if err != nil {
		logger.CtxWithError(ctx, "Payment check failed", err, "transaction_id", sub.PaymentID)
		return nil, apperrors.ErrPaymentGateway.WithError(err)
	}

	switch check.Status {
	case payment.StatusSucceeded:
		if float64(check.Amount) < sub.Amount {
			logger.CtxWarn(ctx, "Paid amount below subscription price",
				"transaction_id", sub.PaymentID, "paid", check.Amount, "expected", sub.Amount)
			return &dto.ReconcileResult{Subscription: sub, Outcome: OutcomeAmountMismatch}, nil
		}
		return s.activate(ctx, db, sub, check)

	case payment.StatusFailed:
		moved, err := s.subscriptionRepo.Transition(db, sub.ID, models.SubscriptionStatusPending, models.SubscriptionStatusCancelled,
			map[string]interface{}{"cancelled_at": s.now(), "gateway_status": check.RawStatus})
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		outcome := OutcomeNoop
		if moved {
			outcome = OutcomeCancelled
			s.metrics.SubscriptionTransition(string(models.SubscriptionStatusCancelled))
			logger.CtxInfo(ctx, "Subscription payment refused", "subscription_id", sub.ID, "gateway_status", check.RawStatus)
		}
		return s.reloadResult(db, sub.ID, outcome)
	}

	if check.RawStatus != "" && check.RawStatus != sub.GatewayStatus {
		sub.GatewayStatus = check.RawStatus
		if err := s.subscriptionRepo.Update(db, sub); err != nil {
			return nil, apperrors.InternalError(err)
		}
	}
	return &dto.ReconcileResult{Subscription: sub, Outcome: OutcomePending}, nil
}

// activate stacks the remaining time of the previous current subscription
// onto the new one and cancels the previous one.
func (s *SubscriptionServiceImpl) activate(ctx context.Context, db *gorm.DB, sub *models.Subscription, check *payment.CheckResult) (*dto.ReconcileResult, error) {
	plan := s.planFor(sub.Plan)
	now := s.now()

	var (
		moved    bool
		previous *models.Subscription
		user     *models.User
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		prev, err := s.subscriptionRepo.FindCurrent(tx, sub.UserID, now)
		if err != nil && !errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return err
		}

		end := now.AddDate(0, 0, plan.DurationDays)
		if prev != nil && prev.ID != sub.ID && prev.EndDate != nil {
			end = end.Add(prev.EndDate.Sub(now))
			previous = prev
		}

		moved, err = s.subscriptionRepo.Transition(tx, sub.ID, models.SubscriptionStatusPending, models.SubscriptionStatusActive,
			map[string]interface{}{
				"start_date":     now,
				"end_date":       end,
				"gateway_status": check.RawStatus,
				"payment_method": check.PaymentMethod,
			})
		if err != nil || !moved {
			return err
		}

		if previous != nil {
			if _, err := s.subscriptionRepo.Transition(tx, previous.ID, models.SubscriptionStatusActive, models.SubscriptionStatusCancelled,
				map[string]interface{}{"cancelled_at": now}); err != nil {
				return err
			}
		}

		user, err = s.userRepo.FindByID(tx, sub.UserID)
		if err != nil {
			return err
		}
		if user.Role == models.UserRoleUser && plan.Role != "" {
			role := models.UserRole(plan.Role)
			if role.IsValid() && role != models.UserRoleAdmin {
				if err := s.userRepo.UpdateFields(tx, user.ID, map[string]interface{}{"role": role}); err != nil {
					return err
				}
				user.Role = role
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !moved {
		return s.reloadResult(db, sub.ID, OutcomeNoop)
	}

	result, err := s.reloadResult(db, sub.ID, OutcomeActivated)
	if err != nil {
		return nil, err
	}
	active := result.Subscription

	s.metrics.SubscriptionTransition(string(models.SubscriptionStatusActive))
	logger.CtxInfo(ctx, "Subscription activated", "subscription_id", active.ID, "user_id", active.UserID,
		"plan", plan.ID, "end_date", active.EndDate, "extended_from", previousID(previous))

	s.notify(ctx, db, Notice{
		UserID:  active.UserID,
		Type:    models.NotificationSubscriptionActive,
		Title:   "Abonnement activé",
		Message: fmt.Sprintf("Votre abonnement %s est actif jusqu'au %s.", plan.Name, formatDate(active.EndDate)),
		Data:    map[string]interface{}{"subscriptionId": active.ID, "plan": plan.ID},
		Link:    "/subscription",
	})
	if s.emails != nil && user.Preferences.Data().EmailNotifications {
		detach(ctx, s.async, "subscription_activated_email", func(ctx context.Context) error {
			return s.emails.SendSubscriptionActivated(ctx, user, active, plan.Name)
		})
	}
	events.Emit(ctx, s.publisher, events.SubjectSubscriptionActivated, map[string]interface{}{
		"subscriptionId": active.ID,
		"userId":         active.UserID,
		"plan":           active.Plan,
		"amount":         active.Amount,
		"endDate":        active.EndDate,
	})
	return result, nil
}

func (s *SubscriptionServiceImpl) Current(db *gorm.DB, userID string) (*models.Subscription, error) {
	sub, err := s.subscriptionRepo.FindCurrent(db, userID, s.now())
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	return sub, nil
}

func (s *SubscriptionServiceImpl) Status(db *gorm.DB, userID string) (*dto.SubscriptionStatusResponse, error) {
	now := s.now()
	sub, err := s.subscriptionRepo.FindCurrent(db, userID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return &dto.SubscriptionStatusResponse{Active: false}, nil
		}
		return nil, apperrors.InternalError(err)
	}
	return &dto.SubscriptionStatusResponse{
		Active:        true,
		Plan:          sub.Plan,
		DaysRemaining: sub.DaysRemaining(now),
		Subscription:  sub,
	}, nil
}

func (s *SubscriptionServiceImpl) History(db *gorm.DB, userID string) ([]models.Subscription, error) {
	subs, err := s.subscriptionRepo.FindByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return subs, nil
}

func (s *SubscriptionServiceImpl) Cancel(ctx context.Context, db *gorm.DB, actor Actor) (*models.Subscription, error) {
	now := s.now()
	sub, err := s.subscriptionRepo.FindCurrent(db, actor.UserID, now)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return nil, apperrors.ErrNoActiveSubscription
		}
		return nil, apperrors.InternalError(err)
	}

	moved, err := s.subscriptionRepo.Transition(db, sub.ID, models.SubscriptionStatusActive, models.SubscriptionStatusCancelled,
		map[string]interface{}{"cancelled_at": now})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !moved {
		return nil, apperrors.ErrSubscriptionNotActive
	}
	s.metrics.SubscriptionTransition(string(models.SubscriptionStatusCancelled))
	logger.CtxInfo(ctx, "Subscription cancelled by user", "subscription_id", sub.ID)

	cancelled, err := s.subscriptionRepo.FindByID(db, sub.ID)
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	return cancelled, nil
}

func (s *SubscriptionServiceImpl) AdminList(db *gorm.DB, actor Actor, req *dto.SubscriptionListRequest) (*dto.ListResponse[models.Subscription], error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrInsufficientPermissions
	}
	req.Normalize()
	subs, total, err := s.subscriptionRepo.FindWithFilter(db, repositories.SubscriptionFilter{
		Status:   req.Status,
		UserID:   req.UserID,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewListResponse(subs, req.Page, req.PageSize, total), nil
}

func (s *SubscriptionServiceImpl) ExpireDue(ctx context.Context, db *gorm.DB) (*dto.ExpiryResult, error) {
	now := s.now()
	result := &dto.ExpiryResult{}

	due, err := s.subscriptionRepo.FindExpired(db, now)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	for i := range due {
		sub := &due[i]
		moved, err := s.subscriptionRepo.Transition(db, sub.ID, models.SubscriptionStatusActive, models.SubscriptionStatusExpired, nil)
		if err != nil {
			logger.CtxWithError(ctx, "Failed to expire subscription", err, "subscription_id", sub.ID)
			continue
		}
		if !moved {
			continue
		}
		result.Expired++
		s.metrics.SubscriptionTransition(string(models.SubscriptionStatusExpired))

		plan := s.planFor(sub.Plan)
		s.notify(ctx, db, Notice{
			UserID:  sub.UserID,
			Type:    models.NotificationSubscriptionExpired,
			Title:   "Abonnement expiré",
			Message: fmt.Sprintf("Votre abonnement %s a expiré. Renouvelez-le pour continuer à profiter de vos avantages.", plan.Name),
			Data:    map[string]interface{}{"subscriptionId": sub.ID, "plan": sub.Plan},
			Link:    "/subscription",
		})
		events.Emit(ctx, s.publisher, events.SubjectSubscriptionExpired, map[string]interface{}{
			"subscriptionId": sub.ID,
			"userId":         sub.UserID,
			"plan":           sub.Plan,
		})
	}

	until := now.AddDate(0, 0, s.config.ReminderDays)
	expiring, err := s.subscriptionRepo.FindExpiringWithoutReminder(db, now, until)
	if err != nil {
		return result, apperrors.InternalError(err)
	}
	for i := range expiring {
		sub := &expiring[i]
		if err := s.subscriptionRepo.MarkReminderSent(db, sub.ID, now); err != nil {
			logger.CtxWithError(ctx, "Failed to mark reminder", err, "subscription_id", sub.ID)
			continue
		}
		result.Reminders++
		s.remind(ctx, db, sub, now)
	}

	if result.Expired > 0 || result.Reminders > 0 {
		logger.CtxInfo(ctx, "Subscription expiry pass done", "expired", result.Expired, "reminders", result.Reminders)
	}
	return result, nil
}

func (s *SubscriptionServiceImpl) remind(ctx context.Context, db *gorm.DB, sub *models.Subscription, now time.Time) {
	plan := s.planFor(sub.Plan)
	s.notify(ctx, db, Notice{
		UserID: sub.UserID,
		Type:   models.NotificationSubscriptionExpiring,
		Title:  "Votre abonnement expire bientôt",
		Message: fmt.Sprintf("Votre abonnement %s expire dans %d jour(s), le %s.",
			plan.Name, sub.DaysRemaining(now), formatDate(sub.EndDate)),
		Data: map[string]interface{}{"subscriptionId": sub.ID, "plan": sub.Plan},
		Link: "/subscription",
	})

	if s.emails == nil {
		return
	}
	user, err := s.userRepo.FindByID(db, sub.UserID)
	if err != nil {
		logger.CtxWithError(ctx, "Reminder recipient lookup failed", err, "user_id", sub.UserID)
		return
	}
	if !user.Preferences.Data().EmailNotifications {
		return
	}
	detach(ctx, s.async, "subscription_expiring_email", func(ctx context.Context) error {
		return s.emails.SendSubscriptionExpiring(ctx, user, sub, plan.Name)
	})
}

// ---------------- helpers ----------------

func (s *SubscriptionServiceImpl) findPlan(id string) (config.Plan, bool) {
	for _, p := range s.config.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return config.Plan{}, false
}

// planFor tolerates plans removed from the catalog after purchase.
func (s *SubscriptionServiceImpl) planFor(id string) config.Plan {
	if p, ok := s.findPlan(id); ok {
		return p
	}
	return config.Plan{ID: id, Name: id, DurationDays: 30}
}

func (s *SubscriptionServiceImpl) reloadResult(db *gorm.DB, id, outcome string) (*dto.ReconcileResult, error) {
	sub, err := s.subscriptionRepo.FindByID(db, id)
	if err != nil {
		return nil, handleSubscriptionError(err)
	}
	return &dto.ReconcileResult{Subscription: sub, Outcome: outcome}, nil
}

func (s *SubscriptionServiceImpl) notify(ctx context.Context, db *gorm.DB, notice Notice) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Notify(ctx, db, notice); err != nil {
		logger.CtxWithError(ctx, "Failed to notify user", err, "recipient", notice.UserID, "type", notice.Type)
	}
}

// newTransactionID returns an id accepted by CinetPay (alphanumeric, unique).
func newTransactionID() string {
	return "BC" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func handleSubscriptionError(err error) error {
	if errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return apperrors.ErrSubscriptionNotFound
	}
	return apperrors.InternalError(err)
}

func previousID(sub *models.Subscription) string {
	if sub == nil {
		return ""
	}
	return sub.ID
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
