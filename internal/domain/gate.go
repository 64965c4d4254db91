package domain

// Allow is the popularity gate: a video passes when its likes meet the threshold
func Allow(meta VideoMetadata, threshold int) bool {
	return meta.LikeCount >= int64(threshold)
}
