package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/utils"
	"github.com/vipogroup/vipo-api/internal/worker"
)

// Sender delivers a plain text message to the admin channel.
type Sender interface {
	Send(ctx context.Context, text string) error
}

type TelegramSender struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSender) Send(ctx context.Context, text string) error {
	_, err := s.bot.SendMessage(ctx, tu.Message(tu.ID(s.chatID), text))
	return err
}

// LogSender writes notifications to the log when Telegram is not configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, text string) error {
	utils.Zlog.Info("Admin notification", zap.String("text", text))
	return nil
}

// Notifier formats domain events and hands delivery to the worker pool.
type Notifier struct {
	sender Sender
	pool   *worker.Pool
}

func NewNotifier(sender Sender, pool *worker.Pool) *Notifier {
	if sender == nil {
		sender = LogSender{}
	}
	return &Notifier{sender: sender, pool: pool}
}

func (n *Notifier) dispatch(name, text string) {
	if n == nil {
		return
	}
	job := worker.NewJob("notify:"+name, func(ctx context.Context) error {
		return n.sender.Send(ctx, text)
	})
	if n.pool == nil || !n.pool.Enqueue(job) {
		utils.Zlog.Warn("Notification dropped", zap.String("event", name))
	}
}

func (n *Notifier) UserRegistered(fullName, role, contact string) {
	n.dispatch("user_registered", fmt.Sprintf("New %s registered: %s (%s)", role, nonEmpty(fullName), contact))
}

func (n *Notifier) OrderCreated(orderNumber string, total float64, couponCode string) {
	text := fmt.Sprintf("New order #%s: %.2f ILS", orderNumber, total)
	if couponCode != "" {
		text += " (coupon " + strings.ToUpper(couponCode) + ")"
	}
	n.dispatch("order_created", text)
}

func (n *Notifier) WithdrawalRequested(agentName string, amount float64) {
	n.dispatch("withdrawal_requested", fmt.Sprintf("Withdrawal request from %s: %.2f ILS", nonEmpty(agentName), amount))
}

func (n *Notifier) BackupFinished(name string, err error) {
	if err != nil {
		n.dispatch("backup_failed", fmt.Sprintf("Backup failed: %v", err))
		return
	}
	n.dispatch("backup_created", "Backup created: "+name)
}

func nonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
