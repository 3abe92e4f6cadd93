package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/soiree-app/soiree/internal/auth"
	"github.com/soiree-app/soiree/internal/cache"
	"github.com/soiree-app/soiree/internal/database"
	"github.com/soiree-app/soiree/internal/middleware"
	"github.com/soiree-app/soiree/internal/services"
	"github.com/soiree-app/soiree/internal/storage"
	"github.com/soiree-app/soiree/pkg/mail"
)

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// fixtureDBSeq gives each fixture its own named in-memory database, so rows
// never leak between tests while gorm's pooled connections still share state.
var fixtureDBSeq atomic.Int64

// captureMailer records outbound messages for assertions.
type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

func (m *captureMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	match := codePattern.FindStringSubmatch(m.sent[len(m.sent)-1].Body)
	require.Len(t, match, 2)
	return match[1]
}

// fixture bundles the wired services and a router with the real route layout.
type fixture struct {
	router *gin.Engine
	codec  *auth.TokenCodec
	mailer *captureMailer
	db     *gorm.DB
	albums *services.AlbumService
	photos *services.PhotoService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handlers%d?mode=memory&cache=shared", fixtureDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	codec, err := auth.NewTokenCodec("handler-test-secret")
	require.NoError(t, err)

	hosts, err := auth.NewHostService(auth.HostConfig{Username: "host", Password: "pw"}, codec)
	require.NoError(t, err)

	mailer := &captureMailer{}
	rsvps, err := services.NewRsvpService(db)
	require.NoError(t, err)
	otp, err := auth.NewOTPService(cache.NewMemoryStore(), mailer, codec, rsvps, "noreply@example.com")
	require.NoError(t, err)

	albums, err := services.NewAlbumService(db)
	require.NoError(t, err)

	store, err := storage.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	signer, err := storage.NewURLSigner("handler-test-secret")
	require.NoError(t, err)
	photos, err := services.NewPhotoService(store, signer)
	require.NoError(t, err)

	broadcasts, err := services.NewBroadcastService(mailer, "noreply@example.com")
	require.NoError(t, err)

	authHandler := NewAuthHandler(hosts)
	galleryAuth := NewGalleryAuthHandler(otp)
	rsvpHandler := NewRsvpHandler(rsvps)
	exportHandler := NewExportHandler(rsvps)
	albumHandler := NewAlbumHandler(albums, photos)
	photoHandler := NewPhotoHandler(albums, photos)
	broadcastHandler := NewBroadcastHandler(broadcasts)

	requireHost := middleware.HostAuth(hosts)
	requireGuest := middleware.GuestAuth(otp)
	requireAny := middleware.HostOrGuestAuth(hosts, otp)

	r := gin.New()
	r.POST("/api/rsvp", rsvpHandler.Create)
	r.POST("/api/auth/login", authHandler.Login)
	r.POST("/api/auth/logout", authHandler.Logout)
	r.GET("/api/auth/check", requireHost, authHandler.Check)
	r.POST("/api/gallery/verify", galleryAuth.Verify)
	r.POST("/api/gallery/logout", galleryAuth.Logout)
	r.GET("/api/gallery/media/:token", photoHandler.Media)
	r.GET("/api/gallery/albums", requireGuest, albumHandler.ListForGuest)
	r.GET("/api/rsvp", requireHost, rsvpHandler.List)
	r.GET("/api/export", requireHost, exportHandler.Xlsx)
	r.GET("/api/export/json", requireHost, exportHandler.JSON)
	r.POST("/api/albums", requireHost, albumHandler.Create)
	r.GET("/api/albums", requireHost, albumHandler.List)
	r.PUT("/api/albums/:id", requireHost, albumHandler.Rename)
	r.DELETE("/api/albums/:id", requireHost, albumHandler.Delete)
	r.GET("/api/albums/:id/shares", requireHost, albumHandler.ListShares)
	r.POST("/api/albums/:id/shares", requireHost, albumHandler.Share)
	r.DELETE("/api/albums/:id/shares/:email", requireHost, albumHandler.Revoke)
	r.POST("/api/albums/:id/photos", requireHost, photoHandler.Upload)
	r.GET("/api/albums/:id/photos", requireAny, photoHandler.List)
	r.DELETE("/api/albums/:id/photos/*path", requireHost, photoHandler.Delete)
	r.POST("/api/photos/move", requireHost, photoHandler.Move)
	r.POST("/api/broadcast/reminders", requireHost, broadcastHandler.Reminders)
	r.POST("/api/broadcast/thankyou", requireHost, broadcastHandler.ThankYou)

	return &fixture{router: r, codec: codec, mailer: mailer, db: db, albums: albums, photos: photos}
}

func (f *fixture) hostCookie(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := f.codec.Issue(auth.SessionClaims{})
	require.NoError(t, err)
	return &http.Cookie{Name: auth.HostCookieName, Value: token}
}

func (f *fixture) guestCookie(t *testing.T, email string) *http.Cookie {
	t.Helper()
	token, err := f.codec.Issue(auth.SessionClaims{Email: email})
	require.NoError(t, err)
	return &http.Cookie{Name: auth.GuestCookieName, Value: token}
}

func (f *fixture) do(t *testing.T, method, path string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}
