package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/soiree-app/soiree/internal/models"
)

func TestExportXlsx(t *testing.T) {
	f := newFixture(t)
	f.submitRSVP(t, "Ada Lovelace", "ada@example.com", "yes")
	f.submitRSVP(t, "Grace Hopper", "grace@example.com", "no")

	w := f.do(t, http.MethodGet, "/api/export", nil, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "rsvps.xlsx")

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("RSVPs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"Timestamp", "Name", "Email", "Attending", "Message"}, rows[0])
	require.Equal(t, "ada@example.com", rows[1][2])
}

func TestExportJSON(t *testing.T) {
	f := newFixture(t)
	f.submitRSVP(t, "Ada Lovelace", "ada@example.com", "yes")

	w := f.do(t, http.MethodGet, "/api/export/json", nil, f.hostCookie(t))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "rsvps.json")

	var rsvps []models.Rsvp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsvps))
	require.Len(t, rsvps, 1)
	require.Equal(t, "Ada Lovelace", rsvps[0].Name)
}

func TestExportRequiresHost(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/export/json", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
