package notification

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/contract"
	"github.com/installments/backend/internal/domain/notification"
	"github.com/installments/backend/internal/domain/setting"
	"go.uber.org/zap"
)

var dateTokens = strings.NewReplacer("YYYY", "2006", "MM", "01", "DD", "02")

// SendReminders notifies customers of unpaid installments due within the
// reminder window
func (s *NotificationService) SendReminders(ctx context.Context, req NoticeRequest) (*BatchResult, error) {
	settings := s.settings(ctx)
	now := s.deps.Clock.Now()
	until := now.AddDate(0, 0, settings.ReminderDaysBefore())

	filter := contract.InstallmentFilter{
		Statuses: []contract.InstallmentStatus{contract.InstallmentStatusUnpaid},
		DueFrom:  &now,
		DueTo:    &until,
	}
	filter.OrderBy = "due_date"
	filter.OrderDir = "asc"
	installments, _, err := s.deps.Installments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	formatter := formatterFor(settings)
	return s.sendBatch(ctx, req, notification.TypeReminder, installments, func(inst *contract.Installment) string {
		return formatter.Reminder(inst.InstallmentNumber, inst.OutstandingAmount(), inst.DueDate)
	})
}

// SendOverdueNotices notifies customers of installments past their due date.
// The overdue sweep runs first.
func (s *NotificationService) SendOverdueNotices(ctx context.Context, req NoticeRequest) (*BatchResult, error) {
	if s.deps.Sweeper != nil {
		if _, err := s.deps.Sweeper.Sweep(ctx); err != nil {
			return nil, err
		}
	}
	settings := s.settings(ctx)
	now := s.deps.Clock.Now()

	filter := contract.InstallmentFilter{
		Statuses:  []contract.InstallmentStatus{contract.InstallmentStatusUnpaid, contract.InstallmentStatusOverdue},
		DueBefore: &now,
	}
	filter.OrderBy = "due_date"
	filter.OrderDir = "asc"
	installments, _, err := s.deps.Installments.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	formatter := formatterFor(settings)
	return s.sendBatch(ctx, req, notification.TypeOverdue, installments, func(inst *contract.Installment) string {
		return formatter.Overdue(inst.InstallmentNumber, inst.OutstandingAmount(), inst.DaysOverdue(now))
	})
}

// sendBatch sends one notice per installment to the contract's customer.
// Installments whose contract is gone are skipped.
func (s *NotificationService) sendBatch(
	ctx context.Context,
	req NoticeRequest,
	typ notification.Type,
	installments []contract.Installment,
	render func(*contract.Installment) string,
) (*BatchResult, error) {
	channel := notification.Channel(req.Channel)
	if channel == "" {
		channel = s.deps.DefaultChannel
	}

	result := &BatchResult{Considered: len(installments), Items: []NotificationResponse{}}
	owners := make(map[uuid.UUID]uuid.UUID)
	for i := range installments {
		inst := &installments[i]
		customerID, ok := owners[inst.ContractID]
		if !ok {
			c, err := s.deps.Contracts.FindByID(ctx, inst.ContractID)
			if err != nil {
				s.logger.Warn("skipping notice, contract not readable",
					zap.String("installment_id", inst.ID.String()), zap.Error(err))
				result.Skipped++
				continue
			}
			customerID = c.CustomerID
			owners[inst.ContractID] = customerID
		}

		contractID, installmentID := inst.ContractID, inst.ID
		n, err := s.Notify(ctx, Message{
			CustomerID:    customerID,
			ContractID:    &contractID,
			InstallmentID: &installmentID,
			Type:          typ,
			Channel:       channel,
			Text:          render(inst),
		})
		if err != nil {
			s.logger.Warn("notice not stored", zap.String("installment_id", inst.ID.String()), zap.Error(err))
			result.Skipped++
			continue
		}
		if n.Status == notification.StatusSent {
			result.Sent++
		} else {
			result.Failed++
		}
		result.Items = append(result.Items, ToNotificationResponse(n))
	}

	s.logger.Info("notices sent",
		zap.String("type", typ.String()),
		zap.Int("considered", result.Considered),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *NotificationService) settings(ctx context.Context) setting.Settings {
	if s.deps.Settings == nil {
		return setting.Merge(nil)
	}
	current, err := s.deps.Settings.Current(ctx)
	if err != nil {
		s.logger.Warn("read settings failed, using defaults", zap.Error(err))
		return setting.Merge(nil)
	}
	return current
}

func formatterFor(settings setting.Settings) *notification.Formatter {
	layout := dateTokens.Replace(settings.String(setting.KeyDateFormat, "YYYY-MM-DD"))
	return notification.NewFormatter(settings.CurrencySymbol(), layout)
}
