package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/likegate/internal/domain"
	"go.uber.org/zap"
)

// ConversationHandler receives decoded user events, one session at a time
type ConversationHandler interface {
	HandleStart(ctx context.Context, sid domain.SessionID) error
	HandleHelp(ctx context.Context, sid domain.SessionID) error
	HandleText(ctx context.Context, sid domain.SessionID, text string) error
	HandleChoice(ctx context.Context, sid domain.SessionID, token string) error
}

// botClient is the subset of *tgbotapi.BotAPI used by the update loop
type botClient interface {
	botSender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// TelegramBot long-polls the Bot API and dispatches updates to a handler.
// Updates of one chat are handled sequentially; different chats run in parallel.
type TelegramBot struct {
	client      botClient
	channel     *TelegramChannel
	pollTimeout int
	logger      *zap.Logger

	locksMu sync.Mutex
	locks   map[domain.SessionID]*sessionLock
	running atomic.Bool
	wg      sync.WaitGroup
}

// sessionLock is dropped from the map once no handler holds or waits on it
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewTelegramBot authenticates with the Bot API
func NewTelegramBot(config *domain.TelegramConfig, logger *zap.Logger) (*TelegramBot, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	api, err := tgbotapi.NewBotAPI(config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	api.Debug = config.Debug

	bot := newTelegramBot(api, config.PollTimeout, logger)
	bot.logger.Info("Authorized on telegram", zap.String("account", api.Self.UserName))
	return bot, nil
}

func newTelegramBot(client botClient, pollTimeout int, logger *zap.Logger) *TelegramBot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramBot{
		client:      client,
		channel:     NewTelegramChannel(client, logger),
		pollTimeout: pollTimeout,
		logger:      logger,
		locks:       make(map[domain.SessionID]*sessionLock),
	}
}

// Channel returns the transport bound to this bot
func (b *TelegramBot) Channel() *TelegramChannel {
	return b.channel
}

// IsRunning reports whether the update loop is active
func (b *TelegramBot) IsRunning() bool {
	return b.running.Load()
}

// Run polls updates until ctx is cancelled, then waits for in-flight handlers
func (b *TelegramBot) Run(ctx context.Context, handler ConversationHandler) error {
	if !b.running.CompareAndSwap(false, true) {
		return fmt.Errorf("bot is already running")
	}
	defer b.running.Store(false)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.client.GetUpdatesChan(u)

	b.logger.Info("Telegram update loop started", zap.Int("poll_timeout", b.pollTimeout))

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			b.wg.Wait()
			b.logger.Info("Telegram update loop stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			b.wg.Add(1)
			go func(update tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdate(ctx, handler, update)
			}(update)
		}
	}
}

// handleUpdate decodes one update and invokes the handler under the session lock
func (b *TelegramBot) handleUpdate(ctx context.Context, handler ConversationHandler, update tgbotapi.Update) {
	sid, ok := sessionOf(update)
	if !ok {
		return
	}

	unlock := b.lockSession(sid)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Handler panicked",
				zap.Int64("session", int64(sid)),
				zap.Any("panic", r))
		}
	}()

	var err error
	var event string
	switch {
	case update.CallbackQuery != nil:
		event = "choice"
		query := update.CallbackQuery
		if ackErr := b.channel.AnswerCallback(query.ID); ackErr != nil {
			b.logger.Debug("Failed to answer callback", zap.Error(ackErr))
		}
		if query.Message != nil {
			b.channel.TrackMessage(sid, query.Message.MessageID)
		}
		err = handler.HandleChoice(ctx, sid, query.Data)

	case update.Message.IsCommand():
		event = "command"
		switch update.Message.Command() {
		case "start":
			err = handler.HandleStart(ctx, sid)
		default:
			err = handler.HandleHelp(ctx, sid)
		}

	default:
		event = "text"
		err = handler.HandleText(ctx, sid, update.Message.Text)
	}

	b.logOutcome(sid, event, err)
}

func (b *TelegramBot) logOutcome(sid domain.SessionID, event string, err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.Int64("session", int64(sid)),
		zap.String("event", event),
		zap.Error(err),
	}
	if isUserFacing(err) {
		b.logger.Debug("Request rejected", fields...)
		return
	}
	b.logger.Warn("Handler failed", fields...)
}

// lockSession serializes handlers of one chat and returns the release func
func (b *TelegramBot) lockSession(sid domain.SessionID) func() {
	b.locksMu.Lock()
	lock, ok := b.locks[sid]
	if !ok {
		lock = &sessionLock{}
		b.locks[sid] = lock
	}
	lock.refs++
	b.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		b.locksMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(b.locks, sid)
		}
		b.locksMu.Unlock()
	}
}

func (b *TelegramBot) lockCount() int {
	b.locksMu.Lock()
	defer b.locksMu.Unlock()
	return len(b.locks)
}

// sessionOf returns the chat an update belongs to
func sessionOf(update tgbotapi.Update) (domain.SessionID, bool) {
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil {
			return domain.SessionID(update.CallbackQuery.Message.Chat.ID), true
		}
		if update.CallbackQuery.From != nil {
			return domain.SessionID(update.CallbackQuery.From.ID), true
		}
	case update.Message != nil && update.Message.Chat != nil:
		if update.Message.IsCommand() || strings.TrimSpace(update.Message.Text) != "" {
			return domain.SessionID(update.Message.Chat.ID), true
		}
	}
	return 0, false
}

// isUserFacing reports whether err is an expected outcome already reported to the user
func isUserFacing(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidURL,
		domain.ErrResolutionFailed,
		domain.ErrBelowThreshold,
		domain.ErrSessionExpired,
		domain.ErrUnknownChoice,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
