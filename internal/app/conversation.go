package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/likegate/internal/domain"
	"go.uber.org/zap"
)

// Resolver turns a supported URL into metadata
type Resolver interface {
	Resolve(ctx context.Context, url string) (domain.VideoMetadata, error)
}

// DownloadSubmitter schedules a download and its delivery
type DownloadSubmitter interface {
	Submit(ctx context.Context, sid domain.SessionID, req domain.DownloadRequest, deliver DeliverFunc) string
}

// ConversationController drives the per-session flow:
// Idle -> Resolving -> AwaitingFormatChoice -> Idle.
// Calls for one session must not overlap; the transport serializes them.
type ConversationController struct {
	channel   domain.Channel
	sessions  domain.SessionStore
	resolver  Resolver
	downloads DownloadSubmitter
	threshold int
	logger    *zap.Logger
}

// NewConversationController creates a new controller
func NewConversationController(
	channel domain.Channel,
	sessions domain.SessionStore,
	resolver Resolver,
	downloads DownloadSubmitter,
	threshold int,
	logger *zap.Logger,
) *ConversationController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationController{
		channel:   channel,
		sessions:  sessions,
		resolver:  resolver,
		downloads: downloads,
		threshold: threshold,
		logger:    logger,
	}
}

// HandleStart greets the user
func (c *ConversationController) HandleStart(ctx context.Context, sid domain.SessionID) error {
	return c.channel.SendText(ctx, sid, welcomeMessage(c.threshold))
}

// HandleHelp explains usage and the supported URL shapes
func (c *ConversationController) HandleHelp(ctx context.Context, sid domain.SessionID) error {
	return c.channel.SendText(ctx, sid, helpMessage(c.threshold))
}

// HandleText processes a free-text message. A supported URL replaces
// whatever was pending for the session.
func (c *ConversationController) HandleText(ctx context.Context, sid domain.SessionID, text string) error {
	url := strings.TrimSpace(text)
	if !domain.IsSupportedURL(url) {
		return withReply(domain.ErrInvalidURL, c.channel.SendText(ctx, sid, invalidURLMessage))
	}

	logger := c.logger.With(zap.Int64("session_id", int64(sid)), zap.String("url", url))
	if id, ok := domain.ExtractVideoID(url); ok {
		logger = logger.With(zap.String("video_id", id))
	}

	c.sessions.Begin(sid)
	if err := c.channel.SendText(ctx, sid, checkingMessage); err != nil {
		c.sessions.Clear(sid)
		return fmt.Errorf("failed to send status: %w", err)
	}

	meta, err := c.resolver.Resolve(ctx, url)
	if err != nil {
		c.sessions.Clear(sid)
		if !errors.Is(err, domain.ErrResolutionFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrResolutionFailed, err)
		}
		logger.Info("Resolution failed", zap.Error(err))
		return withReply(err, c.channel.EditLastMessage(ctx, sid, resolutionFailedMessage))
	}

	if !domain.Allow(meta, c.threshold) {
		c.sessions.Clear(sid)
		logger.Info("Video below likes threshold",
			zap.Int64("likes", meta.LikeCount),
			zap.Int("required", c.threshold))
		gateErr := &domain.BelowThresholdError{Likes: meta.LikeCount, Required: c.threshold}
		return withReply(gateErr, c.channel.EditLastMessage(ctx, sid, belowThresholdMessage(meta, c.threshold)))
	}

	c.sessions.Put(sid, meta)
	if err := c.channel.PresentChoice(ctx, sid, approvedMessage(meta), formatOptions); err != nil {
		c.sessions.Clear(sid)
		return fmt.Errorf("failed to present choices: %w", err)
	}
	logger.Info("Video approved", zap.Int64("likes", meta.LikeCount))
	return nil
}

// HandleChoice processes a button press
func (c *ConversationController) HandleChoice(ctx context.Context, sid domain.SessionID, token string) error {
	var kind domain.MediaKind
	switch token {
	case domain.ChoiceCancel:
		c.sessions.Clear(sid)
		return c.channel.EditLastMessage(ctx, sid, cancelledMessage)
	case domain.ChoiceVideo:
		kind = domain.KindVideo
	case domain.ChoiceAudio:
		kind = domain.KindAudio
	default:
		err := fmt.Errorf("%w: %q", domain.ErrUnknownChoice, token)
		return withReply(err, c.channel.EditLastMessage(ctx, sid, unknownMessage))
	}

	meta, ok := c.sessions.Take(sid)
	if !ok {
		return withReply(domain.ErrSessionExpired, c.channel.EditLastMessage(ctx, sid, expiredMessage))
	}

	req := domain.DownloadRequest{Metadata: meta, Kind: kind}
	if err := c.channel.EditLastMessage(ctx, sid, downloadingMessage(kind, meta.Title)); err != nil {
		c.logger.Warn("Failed to show download status", zap.Error(err))
	}

	id := c.downloads.Submit(ctx, sid, req, c.deliverTo(sid, req))
	c.logger.Info("Download submitted",
		zap.String("id", id),
		zap.Int64("session_id", int64(sid)),
		zap.String("kind", string(kind)))
	return nil
}

// deliverTo sends a finished download to the session and reports the outcome
func (c *ConversationController) deliverTo(sid domain.SessionID, req domain.DownloadRequest) DeliverFunc {
	title := req.Metadata.Title
	return func(ctx context.Context, result domain.DownloadResult) error {
		if !result.Success {
			return c.channel.EditLastMessage(ctx, sid, downloadFailedMessage(req.Kind))
		}

		if err := c.channel.EditLastMessage(ctx, sid, sendingMessage(req.Kind, title)); err != nil {
			c.logger.Warn("Failed to show sending status", zap.Error(err))
		}

		if err := c.channel.SendMediaFile(ctx, sid, req.Kind, result.FilePath, mediaCaption(req.Kind, title)); err != nil {
			if editErr := c.channel.EditLastMessage(ctx, sid, downloadFailedMessage(req.Kind)); editErr != nil {
				c.logger.Warn("Failed to report delivery error", zap.Error(editErr))
			}
			return err
		}

		return c.channel.EditLastMessage(ctx, sid, sentMessage(req.Kind, title))
	}
}

// withReply returns cause, joined with the transport error if the user
// could not be told about it.
func withReply(cause, replyErr error) error {
	if replyErr == nil {
		return cause
	}
	return errors.Join(cause, fmt.Errorf("failed to reply: %w", replyErr))
}
