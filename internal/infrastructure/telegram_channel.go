package infrastructure

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/yourusername/likegate/internal/domain"
	"go.uber.org/zap"
)

// botSender is the subset of *tgbotapi.BotAPI the channel needs
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramChannel implements domain.Channel on top of the Bot API.
// It remembers the last message it sent (or was told about) per chat so
// status updates edit in place instead of piling up.
type TelegramChannel struct {
	bot          botSender
	lastMessages sync.Map // domain.SessionID -> int
	logger       *zap.Logger
}

// NewTelegramChannel creates a channel sending through bot
func NewTelegramChannel(bot botSender, logger *zap.Logger) *TelegramChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramChannel{bot: bot, logger: logger}
}

// TrackMessage records messageID as the most recent message of a session
func (c *TelegramChannel) TrackMessage(sid domain.SessionID, messageID int) {
	c.lastMessages.Store(sid, messageID)
}

// LastMessage returns the tracked message id for a session
func (c *TelegramChannel) LastMessage(sid domain.SessionID) (int, bool) {
	v, ok := c.lastMessages.Load(sid)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// SendText sends a new text message and tracks it
func (c *TelegramChannel) SendText(ctx context.Context, sid domain.SessionID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sent, err := c.bot.Send(tgbotapi.NewMessage(int64(sid), text))
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	c.TrackMessage(sid, sent.MessageID)
	return nil
}

// PresentChoice shows text with an inline keyboard. The last message is
// edited when there is one, otherwise a new message is sent.
func (c *TelegramChannel) PresentChoice(ctx context.Context, sid domain.SessionID, text string, options [][]domain.ChoiceOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	markup := buildKeyboard(options)

	if messageID, ok := c.LastMessage(sid); ok {
		edit := tgbotapi.NewEditMessageTextAndMarkup(int64(sid), messageID, text, markup)
		_, err := c.bot.Request(edit)
		if err == nil {
			return nil
		}
		c.logger.Debug("Edit with keyboard failed, sending new message",
			zap.Int64("session", int64(sid)), zap.Error(err))
	}

	msg := tgbotapi.NewMessage(int64(sid), text)
	msg.ReplyMarkup = markup
	sent, err := c.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send choice: %w", err)
	}
	c.TrackMessage(sid, sent.MessageID)
	return nil
}

// EditLastMessage replaces the text of the last message, dropping its
// keyboard. Without a tracked message it falls back to SendText.
func (c *TelegramChannel) EditLastMessage(ctx context.Context, sid domain.SessionID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messageID, ok := c.LastMessage(sid)
	if !ok {
		return c.SendText(ctx, sid, text)
	}
	if _, err := c.bot.Request(tgbotapi.NewEditMessageText(int64(sid), messageID, text)); err != nil {
		c.logger.Debug("Edit failed, sending new message",
			zap.Int64("session", int64(sid)), zap.Error(err))
		return c.SendText(ctx, sid, text)
	}
	return nil
}

// SendMediaFile uploads a local file as a video or audio message
func (c *TelegramChannel) SendMediaFile(ctx context.Context, sid domain.SessionID, kind domain.MediaKind, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var upload tgbotapi.Chattable
	switch kind {
	case domain.KindVideo:
		video := tgbotapi.NewVideo(int64(sid), tgbotapi.FilePath(path))
		video.Caption = caption
		video.SupportsStreaming = true
		upload = video
	case domain.KindAudio:
		audio := tgbotapi.NewAudio(int64(sid), tgbotapi.FilePath(path))
		audio.Caption = caption
		upload = audio
	default:
		return fmt.Errorf("unsupported media kind: %s", kind)
	}

	if _, err := c.bot.Send(upload); err != nil {
		return fmt.Errorf("failed to upload %s: %w", kind, err)
	}
	return nil
}

// AnswerCallback acknowledges a button press so the client stops its spinner
func (c *TelegramChannel) AnswerCallback(callbackID string) error {
	_, err := c.bot.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

func buildKeyboard(options [][]domain.ChoiceOption) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, row := range options {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, opt := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.Token))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
