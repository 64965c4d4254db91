package app

import (
	"fmt"
	"strings"

	"github.com/yourusername/likegate/internal/domain"
)

const supportedFormats = "• https://www.youtube.com/watch?v=VIDEO_ID\n" +
	"• https://youtu.be/VIDEO_ID\n" +
	"• https://www.youtube.com/shorts/VIDEO_ID\n" +
	"• https://m.youtube.com/watch?v=VIDEO_ID"

const (
	checkingMessage = "🔍 Checking video information..."

	resolutionFailedMessage = "❌ Error: Could not retrieve video information.\n\n" +
		"This could be due to:\n" +
		"• Video is private or restricted\n" +
		"• Invalid YouTube URL\n" +
		"• yt-dlp needs updating\n\n" +
		"Please try:\n" +
		"1. A different video\n" +
		"2. Updating the bot (if you're the admin)\n" +
		"3. Checking if the video is publicly accessible"

	cancelledMessage = "❌ Download cancelled."
	expiredMessage   = "❌ Error: Video information not found. Please try again."
	unknownMessage   = "❌ Unknown option. Please send the link again."

	invalidURLMessage = "Please send me a valid YouTube URL.\n\nSupported formats:\n" + supportedFormats
)

func welcomeMessage(threshold int) string {
	return "🎥 Welcome to YouTube Downloader Bot!\n\n" +
		"Send me a YouTube URL and I'll help you download it if it has enough likes.\n\n" +
		fmt.Sprintf("📊 Minimum likes required: %s\n\n", domain.FormatCount(int64(threshold))) +
		"Use /help for more information."
}

func helpMessage(threshold int) string {
	return "📋 How to use this bot:\n\n" +
		"1. Send me a YouTube URL\n" +
		"2. I'll check if the video has enough likes\n" +
		fmt.Sprintf("3. If it has at least %s likes, you can download it\n", domain.FormatCount(int64(threshold))) +
		"4. Choose between MP4 (video) or MP3 (audio) format\n" +
		"5. I'll send you the file directly\n\n" +
		"🔗 Supported formats:\n" + supportedFormats + "\n\n" +
		"⚠️ Note: Only videos with sufficient likes can be downloaded."
}

func belowThresholdMessage(meta domain.VideoMetadata, threshold int) string {
	var b strings.Builder
	b.WriteString("❌ Sorry, this video doesn't meet the minimum likes requirement.\n\n")
	fmt.Fprintf(&b, "📺 Title: %s\n", meta.Title)
	fmt.Fprintf(&b, "👤 Uploader: %s\n", meta.Uploader)
	fmt.Fprintf(&b, "👍 Likes: %s\n", domain.FormatCount(meta.LikeCount))
	fmt.Fprintf(&b, "📊 Required: %s\n\n", domain.FormatCount(int64(threshold)))
	b.WriteString("Please try a video with more likes.")
	return b.String()
}

func approvedMessage(meta domain.VideoMetadata) string {
	var b strings.Builder
	b.WriteString("✅ Video approved for download!\n\n")
	fmt.Fprintf(&b, "📺 Title: %s\n", meta.Title)
	fmt.Fprintf(&b, "👤 Uploader: %s\n", meta.Uploader)
	fmt.Fprintf(&b, "⏱️ Duration: %s\n", domain.FormatDuration(meta.DurationSeconds))
	fmt.Fprintf(&b, "👍 Likes: %s\n\n", domain.FormatCount(meta.LikeCount))
	b.WriteString("Choose your preferred format:")
	return b.String()
}

// formatOptions are the buttons offered once a video passes the gate
var formatOptions = [][]domain.ChoiceOption{
	{
		{Label: "🎥 Download MP4 (Video)", Token: domain.ChoiceVideo},
		{Label: "🎵 Download MP3 (Audio)", Token: domain.ChoiceAudio},
	},
	{
		{Label: "❌ Cancel", Token: domain.ChoiceCancel},
	},
}

func downloadingMessage(kind domain.MediaKind, title string) string {
	return fmt.Sprintf("⬇️ Downloading %s...\n\n📺 Title: %s\nPlease wait, this may take a few moments.", kind.Label(), title)
}

func sendingMessage(kind domain.MediaKind, title string) string {
	return fmt.Sprintf("📤 Sending %s file...\n\n📺 Title: %s", kind.Label(), title)
}

func sentMessage(kind domain.MediaKind, title string) string {
	return fmt.Sprintf("✅ %s sent successfully!\n\n📺 Title: %s", kind.Label(), title)
}

func downloadFailedMessage(kind domain.MediaKind) string {
	return fmt.Sprintf("❌ Error downloading %s.\nPlease try again later.", kind.Label())
}

func mediaCaption(kind domain.MediaKind, title string) string {
	if kind == domain.KindAudio {
		return "🎵 " + title
	}
	return "🎥 " + title
}
