package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faultdesk/internal/models"
	"faultdesk/internal/services"
)

type notesBody struct {
	Notes []models.Note `json:"notes"`
}

func TestNoteHandler_Board(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login("alice")
	bob := ts.login("bob")

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		w := ts.do(http.MethodPost, "/v1/notes", services.NoteInput{Title: title}, alice...)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		note := decode[models.Note](t, w)
		assert.Equal(t, models.NoteYellow, note.Color)
		ids = append(ids, note.ID)
	}

	w := ts.do(http.MethodPost, "/v1/notes", map[string]string{"title": "x", "color": "black"}, alice...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPut, "/v1/notes/order", ReorderNotesRequest{IDs: []string{ids[2], ids[0], ids[1]}}, alice...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(http.MethodGet, "/v1/notes", nil, alice...)
	require.Equal(t, http.StatusOK, w.Code)
	var titles []string
	for _, n := range decode[notesBody](t, w).Notes {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"c", "a", "b"}, titles)

	w = ts.do(http.MethodPut, "/v1/notes/"+ids[0], services.NoteInput{Title: "a2", Color: models.NoteBlue}, alice...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.NoteBlue, decode[models.Note](t, w).Color)

	// notes are private to their owner
	w = ts.do(http.MethodGet, "/v1/notes", nil, bob...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[notesBody](t, w).Notes)
	w = ts.do(http.MethodDelete, "/v1/notes/"+ids[0], nil, bob...)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodDelete, "/v1/notes/"+ids[0], nil, alice...)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestContentHandler_Announcements(t *testing.T) {
	ts := newTestServer(t)
	mgr := ts.login("mgr")
	alice := ts.login("alice")

	w := ts.do(http.MethodPost, "/v1/announcements", services.AnnouncementInput{Title: "Outage"}, alice...)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPost, "/v1/announcements", services.AnnouncementInput{Title: "Routine", Content: "Weekly sync"}, mgr...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	routine := decode[models.Announcement](t, w)

	w = ts.do(http.MethodPost, "/v1/announcements", services.AnnouncementInput{Title: "Outage", IsImportant: true}, mgr...)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "mgr name", decode[models.Announcement](t, w).AuthorName)

	w = ts.do(http.MethodGet, "/v1/announcements", nil, alice...)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Announcements []models.Announcement `json:"announcements"`
	}](t, w).Announcements
	require.Len(t, list, 2)
	assert.Equal(t, "Outage", list[0].Title, "important first")

	w = ts.do(http.MethodDelete, "/v1/announcements/"+routine.ID, nil, mgr...)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(http.MethodDelete, "/v1/announcements/"+routine.ID, nil, mgr...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentHandler_Articles(t *testing.T) {
	ts := newTestServer(t)
	mgr := ts.login("mgr")

	w := ts.do(http.MethodPost, "/v1/articles", map[string]string{"content": "no title"}, mgr...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/v1/articles", services.ArticleInput{Title: "Refund policy", Category: " Billing "}, mgr...)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	article := decode[models.Article](t, w)
	assert.Equal(t, "Billing", article.Category)

	w = ts.do(http.MethodGet, "/v1/articles", nil, ts.login("alice")...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Articles []models.Article `json:"articles"`
	}](t, w).Articles, 1)

	w = ts.do(http.MethodDelete, "/v1/articles/"+article.ID, nil, mgr...)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAIHandler_FallsBackWhenDisabled(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.login("alice")

	w := ts.do(http.MethodPost, "/v1/ai/refine", RefineRequest{Text: "  he was rude  "}, alice...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "  he was rude  ", decode[map[string]string](t, w)["text"], "original text is returned unchanged")

	w = ts.do(http.MethodPost, "/v1/ai/coach", CoachRequest{Text: "missed escalation"}, alice...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.FallbackCoaching, decode[map[string]string](t, w)["text"])

	w = ts.do(http.MethodPost, "/v1/ai/refine", map[string]string{}, alice...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/v1/ai/refine", RefineRequest{Text: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVoiceHandler_Disabled(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/v1/voice/session", nil, ts.login("alice")...)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestVoiceHandler_CheckOrigin(t *testing.T) {
	h := NewVoiceHandler(nil, []string{"https://app.example"}, nil)

	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "api.example", true},
		{"https://app.example", "api.example", true},
		{"https://api.example", "api.example", true},
		{"https://evil.example", "api.example", false},
	}
	for _, tt := range tests {
		r, err := http.NewRequest(http.MethodGet, "http://"+tt.host+"/v1/voice/session", nil)
		require.NoError(t, err)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, h.checkOrigin(r), tt.origin)
	}
}
