package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/models"
)

func newTestStore(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	return NewService(path, ttl, arbor.NewLogger()).(*Service)
}

func sampleSession() *models.SessionData {
	return &models.SessionData{
		CurrentURL: "https://jobs.example.com/search",
		Cookies: []models.SessionCookie{
			{Name: "token", Value: "abc123", Domain: ".example.com", Path: "/"},
		},
		LocalStorage:   map[string]string{"pref": "zh-CN"},
		SessionStorage: map[string]string{},
		UserAgent:      "Mozilla/5.0 test",
		WindowSize:     models.WindowSize{Width: 1920, Height: 1080},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t, time.Hour)

	saved := sampleSession()
	require.NoError(t, store.Save(saved))
	assert.False(t, saved.Timestamp.IsZero(), "save stamps the snapshot time")

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, saved.CurrentURL, loaded.CurrentURL)
	require.Len(t, loaded.Cookies, 1)
	assert.Equal(t, "token", loaded.Cookies[0].Name)
	assert.Equal(t, "zh-CN", loaded.LocalStorage["pref"])
	assert.True(t, store.Valid(loaded))
}

func TestLoadMissingFileIsNotError(t *testing.T) {
	store := newTestStore(t, time.Hour)

	data, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestValidRejectsExpiredSession(t *testing.T) {
	store := newTestStore(t, time.Hour)

	old := sampleSession()
	old.Timestamp = time.Now().Add(-2 * time.Hour)
	assert.False(t, store.Valid(old))

	fresh := sampleSession()
	fresh.Timestamp = time.Now().Add(-30 * time.Minute)
	assert.True(t, store.Valid(fresh))
}

func TestValidRejectsCookielessSession(t *testing.T) {
	store := newTestStore(t, time.Hour)

	data := sampleSession()
	data.Timestamp = time.Now()
	data.Cookies = nil
	assert.False(t, store.Valid(data))
	assert.False(t, store.Valid(nil))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	store := newTestStore(t, time.Hour)
	require.NoError(t, store.Save(sampleSession()))

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.json", entries[0].Name())
}

func TestInfoAndClear(t *testing.T) {
	store := newTestStore(t, time.Hour)

	info, err := store.Info()
	require.NoError(t, err)
	assert.Nil(t, info, "no session yet")

	require.NoError(t, store.Save(sampleSession()))

	info, err = store.Info()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, 1, info.CookieCount)
	assert.False(t, info.Expired)
	assert.Equal(t, store.Path(), info.Path)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")

	data, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestListSessions(t *testing.T) {
	store := newTestStore(t, time.Hour)
	dir := filepath.Dir(store.Path())

	infos, err := store.ListSessions()
	require.NoError(t, err)
	assert.Empty(t, infos, "empty directory lists nothing")

	require.NoError(t, store.Save(sampleSession()))

	older := sampleSession()
	older.Timestamp = time.Now().Add(-2 * time.Hour)
	raw, err := json.Marshal(older)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backup.json"), raw, 0644))

	// Non-session noise in the directory is ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))

	infos, err = store.ListSessions()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, store.Path(), infos[0].Path, "newest snapshot listed first")
	assert.False(t, infos[0].Expired)
	assert.True(t, infos[1].Expired)
	assert.Equal(t, 1, infos[1].CookieCount)
}

func TestCorruptSessionFileReportsError(t *testing.T) {
	store := newTestStore(t, time.Hour)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))

	_, err := store.Load()
	assert.Error(t, err)
}
