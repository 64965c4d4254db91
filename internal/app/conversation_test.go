package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/likegate/internal/domain"
)

// channelCall is one recorded transport interaction
type channelCall struct {
	op      string
	text    string
	options [][]domain.ChoiceOption
	kind    domain.MediaKind
	path    string
}

// mockChannel implements domain.Channel for testing
// With honorCtx set it drops calls made with a finished context, as the
// Telegram adapter does.
type mockChannel struct {
	mu        sync.Mutex
	calls     []channelCall
	failMedia bool
	honorCtx  bool
}

func (m *mockChannel) add(ctx context.Context, call channelCall) error {
	if m.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	return nil
}

func (m *mockChannel) SendText(ctx context.Context, sid domain.SessionID, text string) error {
	return m.add(ctx, channelCall{op: "send", text: text})
}

func (m *mockChannel) PresentChoice(ctx context.Context, sid domain.SessionID, text string, options [][]domain.ChoiceOption) error {
	return m.add(ctx, channelCall{op: "choice", text: text, options: options})
}

func (m *mockChannel) EditLastMessage(ctx context.Context, sid domain.SessionID, text string) error {
	return m.add(ctx, channelCall{op: "edit", text: text})
}

func (m *mockChannel) SendMediaFile(ctx context.Context, sid domain.SessionID, kind domain.MediaKind, path, caption string) error {
	if err := m.add(ctx, channelCall{op: "media", kind: kind, path: path, text: caption}); err != nil {
		return err
	}
	if m.failMedia {
		return errors.New("file too big")
	}
	return nil
}

func (m *mockChannel) last() channelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

// mockResolver implements Resolver for testing
type mockResolver struct {
	metadata map[string]domain.VideoMetadata
	calls    int
}

func (r *mockResolver) Resolve(ctx context.Context, url string) (domain.VideoMetadata, error) {
	r.calls++
	if meta, ok := r.metadata[url]; ok {
		meta.SourceURL = url
		return meta, nil
	}
	return domain.VideoMetadata{}, &domain.ResolutionError{URL: url}
}

// mockSubmitter runs the delivery synchronously with a canned result
type mockSubmitter struct {
	requests   []domain.DownloadRequest
	result     domain.DownloadResult
	deliverErr error
}

func (s *mockSubmitter) Submit(ctx context.Context, sid domain.SessionID, req domain.DownloadRequest, deliver DeliverFunc) string {
	s.requests = append(s.requests, req)
	s.deliverErr = deliver(ctx, s.result)
	return "job-1"
}

const (
	popularURL = "https://www.youtube.com/watch?v=popular1"
	nicheURL   = "https://youtu.be/niche01"
	otherURL   = "https://youtube.com/shorts/other01"
)

type conversationFixture struct {
	channel    *mockChannel
	sessions   *MemorySessionStore
	resolver   *mockResolver
	downloads  *mockSubmitter
	controller *ConversationController
}

func newConversationFixture() *conversationFixture {
	f := &conversationFixture{
		channel:  &mockChannel{},
		sessions: NewMemorySessionStore(0),
		resolver: &mockResolver{metadata: map[string]domain.VideoMetadata{
			popularURL: {ID: "popular1", Title: "Popular", Uploader: "Chan", DurationSeconds: 3725, LikeCount: 12345},
			nicheURL:   {ID: "niche01", Title: "Niche", Uploader: "Someone", LikeCount: 3},
			otherURL:   {ID: "other01", Title: "Other", LikeCount: 10},
		}},
		downloads: &mockSubmitter{result: domain.DownloadResult{Success: true, FilePath: "/tmp/x/Popular.mp4"}},
	}
	f.controller = NewConversationController(f.channel, f.sessions, f.resolver, f.downloads, 10, nil)
	return f
}

func TestHandleStartAndHelp(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()

	require.NoError(t, f.controller.HandleStart(ctx, 1))
	assert.Contains(t, f.channel.last().text, "Minimum likes required: 10")

	require.NoError(t, f.controller.HandleHelp(ctx, 1))
	assert.Contains(t, f.channel.last().text, "https://youtu.be/VIDEO_ID")
}

func TestHandleText_InvalidURL(t *testing.T) {
	f := newConversationFixture()

	err := f.controller.HandleText(context.Background(), 1, "hello there")
	assert.ErrorIs(t, err, domain.ErrInvalidURL)
	assert.Equal(t, "send", f.channel.last().op)
	assert.Contains(t, f.channel.last().text, "valid YouTube URL")
	assert.Equal(t, 0, f.resolver.calls)
	assert.Equal(t, domain.StateIdle, f.sessions.State(1))
}

func TestHandleText_Approved(t *testing.T) {
	f := newConversationFixture()

	require.NoError(t, f.controller.HandleText(context.Background(), 1, "  "+popularURL+"\n"))

	require.Len(t, f.channel.calls, 2)
	assert.Equal(t, checkingMessage, f.channel.calls[0].text)
	choice := f.channel.calls[1]
	assert.Equal(t, "choice", choice.op)
	assert.Contains(t, choice.text, "Title: Popular")
	assert.Contains(t, choice.text, "Duration: 01:02:05")
	assert.Contains(t, choice.text, "Likes: 12,345")
	require.Len(t, choice.options, 2)
	assert.Equal(t, domain.ChoiceVideo, choice.options[0][0].Token)
	assert.Equal(t, domain.ChoiceAudio, choice.options[0][1].Token)
	assert.Equal(t, domain.ChoiceCancel, choice.options[1][0].Token)

	assert.Equal(t, domain.StateAwaitingFormatChoice, f.sessions.State(1))
}

func TestHandleText_BelowThreshold(t *testing.T) {
	f := newConversationFixture()

	err := f.controller.HandleText(context.Background(), 1, nicheURL)
	assert.ErrorIs(t, err, domain.ErrBelowThreshold)

	var gateErr *domain.BelowThresholdError
	require.True(t, errors.As(err, &gateErr))
	assert.Equal(t, int64(3), gateErr.Likes)
	assert.Equal(t, 10, gateErr.Required)

	msg := f.channel.last().text
	assert.Contains(t, msg, "Likes: 3")
	assert.Contains(t, msg, "Required: 10")
	assert.Equal(t, domain.StateIdle, f.sessions.State(1))
}

func TestHandleText_ExactlyAtThresholdPasses(t *testing.T) {
	f := newConversationFixture()
	require.NoError(t, f.controller.HandleText(context.Background(), 1, otherURL))
	assert.Equal(t, domain.StateAwaitingFormatChoice, f.sessions.State(1))
}

func TestHandleText_ResolutionFailure(t *testing.T) {
	f := newConversationFixture()

	err := f.controller.HandleText(context.Background(), 1, "https://youtu.be/missing")
	assert.ErrorIs(t, err, domain.ErrResolutionFailed)
	assert.Equal(t, resolutionFailedMessage, f.channel.last().text)
	assert.False(t, strings.Contains(f.channel.last().text, "tried"), "diagnostics stay out of user text")
	assert.Equal(t, domain.StateIdle, f.sessions.State(1))
}

func TestHandleText_SecondURLReplacesPending(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()

	require.NoError(t, f.controller.HandleText(ctx, 1, popularURL))
	require.NoError(t, f.controller.HandleText(ctx, 1, otherURL))
	require.NoError(t, f.controller.HandleChoice(ctx, 1, domain.ChoiceAudio))

	require.Len(t, f.downloads.requests, 1)
	assert.Equal(t, "Other", f.downloads.requests[0].Metadata.Title)
	assert.Equal(t, domain.KindAudio, f.downloads.requests[0].Kind)
}

func TestHandleText_FailedSecondURLDropsPending(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()

	require.NoError(t, f.controller.HandleText(ctx, 1, popularURL))
	assert.Error(t, f.controller.HandleText(ctx, 1, nicheURL))

	err := f.controller.HandleChoice(ctx, 1, domain.ChoiceVideo)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Empty(t, f.downloads.requests)
}

func TestHandleChoice_DownloadAndDeliver(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()

	require.NoError(t, f.controller.HandleText(ctx, 1, popularURL))
	require.NoError(t, f.controller.HandleChoice(ctx, 1, domain.ChoiceVideo))

	require.Len(t, f.downloads.requests, 1)
	assert.Equal(t, domain.KindVideo, f.downloads.requests[0].Kind)
	assert.Equal(t, popularURL, f.downloads.requests[0].Metadata.SourceURL)
	require.NoError(t, f.downloads.deliverErr)

	ops := []string{}
	for _, call := range f.channel.calls[2:] {
		ops = append(ops, call.op)
	}
	assert.Equal(t, []string{"edit", "edit", "media", "edit"}, ops)

	media := f.channel.calls[4]
	assert.Equal(t, "/tmp/x/Popular.mp4", media.path)
	assert.Equal(t, "🎥 Popular", media.text)
	assert.Contains(t, f.channel.last().text, "MP4 sent successfully")

	// the selection was consumed
	err := f.controller.HandleChoice(ctx, 1, domain.ChoiceVideo)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Len(t, f.downloads.requests, 1)
}

func TestHandleChoice_DownloadFailure(t *testing.T) {
	f := newConversationFixture()
	f.downloads.result = domain.FailedDownload(domain.ErrDownloadFailed)
	ctx := context.Background()

	require.NoError(t, f.controller.HandleText(ctx, 1, popularURL))
	require.NoError(t, f.controller.HandleChoice(ctx, 1, domain.ChoiceAudio))

	assert.Equal(t, "❌ Error downloading MP3.\nPlease try again later.", f.channel.last().text)
	for _, call := range f.channel.calls {
		assert.NotEqual(t, "media", call.op)
	}
}

func TestHandleChoice_ShutdownMidDownloadReportsFailure(t *testing.T) {
	f := newConversationFixture()
	f.channel.honorCtx = true
	downloader := &fileDownloader{block: make(chan struct{})}
	dm := NewDownloadManager(downloader, newMockDeliveryRepo(), testDownloadConfig(t, 1), nil)
	controller := NewConversationController(f.channel, f.sessions, f.resolver, dm, 10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, controller.HandleText(ctx, 1, popularURL))
	require.NoError(t, controller.HandleChoice(ctx, 1, domain.ChoiceVideo))
	require.Eventually(t, func() bool { return downloader.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	// the update context ends with the process signal; the grace period then expires
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	assert.Error(t, dm.Shutdown(shutdownCtx))

	assert.Equal(t, "edit", f.channel.last().op)
	assert.Equal(t, downloadFailedMessage(domain.KindVideo), f.channel.last().text)
}

func TestHandleChoice_SignalDuringDownloadStillDelivers(t *testing.T) {
	f := newConversationFixture()
	f.channel.honorCtx = true
	downloader := &fileDownloader{block: make(chan struct{})}
	dm := NewDownloadManager(downloader, newMockDeliveryRepo(), testDownloadConfig(t, 1), nil)
	controller := NewConversationController(f.channel, f.sessions, f.resolver, dm, 10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, controller.HandleText(ctx, 1, popularURL))
	require.NoError(t, controller.HandleChoice(ctx, 1, domain.ChoiceAudio))
	require.Eventually(t, func() bool { return downloader.running.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	close(downloader.block)
	require.NoError(t, dm.Shutdown(context.Background()))

	assert.Equal(t, sentMessage(domain.KindAudio, "Popular"), f.channel.last().text)
}

func TestHandleChoice_UploadFailure(t *testing.T) {
	f := newConversationFixture()
	f.channel.failMedia = true
	ctx := context.Background()

	require.NoError(t, f.controller.HandleText(ctx, 1, popularURL))
	require.NoError(t, f.controller.HandleChoice(ctx, 1, domain.ChoiceVideo))

	assert.Error(t, f.downloads.deliverErr)
	assert.Contains(t, f.channel.last().text, "Error downloading MP4")
}

func TestHandleChoice_Cancel(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()

	require.NoError(t, f.controller.HandleText(ctx, 1, popularURL))
	require.NoError(t, f.controller.HandleChoice(ctx, 1, domain.ChoiceCancel))
	assert.Equal(t, cancelledMessage, f.channel.last().text)
	assert.Equal(t, domain.StateIdle, f.sessions.State(1))

	err := f.controller.HandleChoice(ctx, 1, domain.ChoiceAudio)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, expiredMessage, f.channel.last().text)
}

func TestHandleChoice_WithoutPending(t *testing.T) {
	f := newConversationFixture()

	err := f.controller.HandleChoice(context.Background(), 1, domain.ChoiceVideo)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Empty(t, f.downloads.requests)
}

func TestHandleChoice_UnknownToken(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()
	require.NoError(t, f.controller.HandleText(ctx, 1, popularURL))

	err := f.controller.HandleChoice(ctx, 1, "download_gif")
	assert.ErrorIs(t, err, domain.ErrUnknownChoice)
	assert.Equal(t, domain.StateAwaitingFormatChoice, f.sessions.State(1), "pending selection kept")
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newConversationFixture()
	ctx := context.Background()

	require.NoError(t, f.controller.HandleText(ctx, 1, popularURL))
	require.NoError(t, f.controller.HandleText(ctx, 2, otherURL))
	require.NoError(t, f.controller.HandleChoice(ctx, 1, domain.ChoiceVideo))

	assert.Equal(t, "Popular", f.downloads.requests[0].Metadata.Title)
	assert.Equal(t, domain.StateAwaitingFormatChoice, f.sessions.State(2))
}

func TestWithReply(t *testing.T) {
	assert.Equal(t, domain.ErrInvalidURL, withReply(domain.ErrInvalidURL, nil))

	joined := withReply(domain.ErrInvalidURL, errors.New("network"))
	assert.ErrorIs(t, joined, domain.ErrInvalidURL)
	assert.Contains(t, joined.Error(), "network")
}
