package consts

import (
	"os"
	"path/filepath"
)

const Name = "slackline"

var CacheDir string

func init() {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	CacheDir = filepath.Join(dir, Name)
	os.MkdirAll(CacheDir, 0o700)
}

// ChannelCachePath returns the default location of the channel-list cache.
func ChannelCachePath() string {
	return filepath.Join(CacheDir, "channels.db")
}
