package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/soiree-app/soiree/internal/models"
)

func TestRsvpCreateAndList(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/rsvp", gin.H{
		"name":      "Ada Lovelace",
		"email":     "ada@example.com",
		"attending": "Yes",
		"message":   "Can't wait!",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeData(t, w)
	require.Equal(t, "yes", data["attending"])
	require.NotEmpty(t, data["id"])

	f.submitRSVP(t, "Grace Hopper", "grace@example.com", "maybe")

	list := f.do(t, http.MethodGet, "/api/rsvp", nil, f.hostCookie(t))
	require.Equal(t, http.StatusOK, list.Code)

	var envelope struct {
		Data []models.Rsvp `json:"data"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	require.Equal(t, "ada@example.com", envelope.Data[0].Email)
	require.Equal(t, "grace@example.com", envelope.Data[1].Email)
}

func TestRsvpCreateValidation(t *testing.T) {
	f := newFixture(t)

	for _, payload := range []gin.H{
		{"email": "ada@example.com", "attending": "yes"},
		{"name": "Ada", "attending": "yes"},
		{"name": "Ada", "email": "not-an-email", "attending": "yes"},
		{"name": "Ada", "email": "ada@example.com", "attending": "perhaps"},
		{"name": "Ada", "email": "ada@example.com"},
	} {
		w := f.do(t, http.MethodPost, "/api/rsvp", payload)
		require.Equal(t, http.StatusBadRequest, w.Code, "payload %v", payload)
	}
}

func TestFixtureDatabasesAreIsolated(t *testing.T) {
	first := newFixture(t)
	first.submitRSVP(t, "Ada Lovelace", "ada@example.com", "yes")

	second := newFixture(t)
	var count int64
	require.NoError(t, second.db.Model(&models.Rsvp{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRsvpListRequiresHost(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/rsvp", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Guest sessions cannot see the dashboard list either.
	w = f.do(t, http.MethodGet, "/api/rsvp", nil, f.guestCookie(t, "ada@example.com"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
