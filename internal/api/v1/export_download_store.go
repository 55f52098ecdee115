package v1

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type exportDownload struct {
	filePath  string
	filename  string
	expiresAt time.Time
}

// exportDownloadStore 一次性下载令牌
type exportDownloadStore struct {
	mu    sync.Mutex
	items map[string]exportDownload
}

func newExportDownloadStore() *exportDownloadStore {
	return &exportDownloadStore{
		items: make(map[string]exportDownload),
	}
}

// put 登记文件，返回令牌与过期时间；顺带清理已过期的条目
func (s *exportDownloadStore) put(filePath, filename string, ttl time.Duration) (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.purgeExpiredLocked(now)

	token := uuid.NewString()
	expiresAt := now.Add(ttl)
	s.items[token] = exportDownload{
		filePath:  filePath,
		filename:  filename,
		expiresAt: expiresAt,
	}
	return token, expiresAt
}

// take 取出并移除令牌，过期视为不存在
func (s *exportDownloadStore) take(token string) (exportDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(time.Now())

	v, ok := s.items[token]
	if !ok {
		return exportDownload{}, false
	}
	delete(s.items, token)
	return v, true
}

// purgeExpiredLocked 移除过期条目并删除对应文件
func (s *exportDownloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			_ = os.Remove(v.filePath)
			delete(s.items, k)
		}
	}
}
