package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-store/internal/domain"
	"github.com/tbourn/go-telegram-store/internal/store"
	"github.com/tbourn/go-telegram-store/internal/telegram"
)

// ---------- fake service ----------

type fakeService struct {
	insertErr  error
	lastUpdate *telegram.Update
	lastFilter store.ChatsFilter
	chats      []store.ChatRecord
	ledger     []domain.TelegramUpdate

	lastMethod string
	lastData   map[string]any

	lastFields map[string]any
	lastWhere  map[string]any

	convUserID, convChatID int64
	convCommand            string

	shortUserID int64
	shortURL    string
	shortShort  string
}

func (f *fakeService) InsertRequest(_ context.Context, u *telegram.Update) error {
	f.lastUpdate = u
	return f.insertErr
}

func (f *fakeService) SelectTelegramUpdates(_ context.Context, _ int, _ *int64) ([]domain.TelegramUpdate, error) {
	return f.ledger, nil
}

func (f *fakeService) SelectMessages(_ context.Context, _ int) ([]domain.Message, error) {
	return nil, nil
}

func (f *fakeService) SelectChats(_ context.Context, filter store.ChatsFilter) ([]store.ChatRecord, error) {
	f.lastFilter = filter
	if !filter.Groups && !filter.Supergroups && !filter.Channels && !filter.Users {
		return nil, store.ErrEmptyChatScope
	}
	return f.chats, nil
}

func (f *fakeService) GetTelegramRequestCount(_ context.Context, _, _ string) (store.RequestCount, error) {
	return store.RequestCount{LimitPerSecAll: 3, LimitPerSec: 1, LimitPerMinute: 9}, nil
}

func (f *fakeService) InsertTelegramRequest(_ context.Context, method string, data map[string]any) error {
	f.lastMethod = method
	f.lastData = data
	return nil
}

func (f *fakeService) InsertShortURL(_ context.Context, userID int64, url, shortURL string) error {
	f.shortUserID, f.shortURL, f.shortShort = userID, url, shortURL
	return nil
}

func (f *fakeService) SelectShortURL(_ context.Context, url string, userID int64) (string, error) {
	if url == f.shortURL && userID == f.shortUserID {
		return f.shortShort, nil
	}
	return "", nil
}

func (f *fakeService) InsertConversation(_ context.Context, userID, chatID int64, command string) error {
	f.convUserID, f.convChatID, f.convCommand = userID, chatID, command
	return nil
}

func (f *fakeService) SelectConversation(_ context.Context, _, _ int64, _ int) ([]domain.Conversation, error) {
	return []domain.Conversation{{UserID: 11, ChatID: -10, Status: domain.ConversationActive}}, nil
}

func (f *fakeService) UpdateConversation(_ context.Context, fields, where map[string]any) error {
	f.lastFields = fields
	f.lastWhere = where
	return nil
}

// ---------- harness ----------

func newRouter(f *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(f)
	r.POST("/updates", h.IngestUpdate)
	r.GET("/updates", h.ListUpdates)
	r.GET("/messages", h.ListMessages)
	r.GET("/chats", h.ListChats)
	r.GET("/requests/count", h.GetRequestCount)
	r.POST("/requests", h.RecordRequest)
	r.POST("/conversations", h.StartConversation)
	r.GET("/conversations", h.ListConversations)
	r.PATCH("/conversations", h.UpdateConversation)
	r.POST("/shorturls", h.RecordShortURL)
	r.GET("/shorturls", h.GetShortURL)
	return r
}

func do(t *testing.T, r *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ---------- updates ----------

func TestIngestUpdate_Created(t *testing.T) {
	f := &fakeService{}
	r := newRouter(f)

	w := do(t, r, http.MethodPost, "/updates", map[string]any{
		"update_id": 900,
		"message": map[string]any{
			"message_id": 5,
			"date":       1441645532,
			"chat":       map[string]any{"id": -100, "type": "group"},
			"text":       "hi",
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp IngestUpdateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.UpdateID != 900 || resp.Type != telegram.UpdateMessage {
		t.Fatalf("resp = %+v", resp)
	}
	if f.lastUpdate == nil || f.lastUpdate.Message == nil {
		t.Fatal("service did not receive the decoded update")
	}
}

func TestIngestUpdate_InvalidJSON(t *testing.T) {
	r := newRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/updates", bytes.NewBufferString("{nope"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestIngestUpdate_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{store.ErrUnsupportedUpdate, http.StatusUnprocessableEntity},
		{store.ErrNoUpdateReference, http.StatusUnprocessableEntity},
		{store.ErrNotConnected, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		f := &fakeService{insertErr: tc.err}
		w := do(t, newRouter(f), http.MethodPost, "/updates", map[string]any{"update_id": 1})
		if w.Code != tc.code {
			t.Fatalf("%v: status = %d, want %d", tc.err, w.Code, tc.code)
		}
	}
}

func TestListUpdates_BadID(t *testing.T) {
	w := do(t, newRouter(&fakeService{}), http.MethodGet, "/updates?id=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListUpdates_EmptyIsList(t *testing.T) {
	w := do(t, newRouter(&fakeService{}), http.MethodGet, "/updates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ListUpdatesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Updates == nil {
		t.Fatal("updates must serialize as [], not null")
	}
}

// ---------- chats ----------

func TestListChats_DefaultScopes(t *testing.T) {
	f := &fakeService{}
	w := do(t, newRouter(f), http.MethodGet, "/chats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	flt := f.lastFilter
	if !flt.Groups || !flt.Supergroups || !flt.Channels || !flt.Users {
		t.Fatalf("default filter = %+v, want all scopes on", flt)
	}
}

func TestListChats_EmptyScope(t *testing.T) {
	f := &fakeService{}
	w := do(t, newRouter(f), http.MethodGet,
		"/chats?groups=false&supergroups=false&channels=false&users=false", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListChats_Filters(t *testing.T) {
	f := &fakeService{}
	w := do(t, newRouter(f), http.MethodGet,
		"/chats?users=false&chat_id=-40&text=news&date_from=2015-09-07T17:05:32Z", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	flt := f.lastFilter
	if flt.Users {
		t.Fatal("users scope not disabled")
	}
	if flt.ChatID == nil || *flt.ChatID != -40 {
		t.Fatalf("chat_id = %v", flt.ChatID)
	}
	if flt.Text != "news" {
		t.Fatalf("text = %q", flt.Text)
	}
	if flt.DateFrom == nil {
		t.Fatal("date_from not parsed")
	}
}

func TestListChats_BadDate(t *testing.T) {
	w := do(t, newRouter(&fakeService{}), http.MethodGet, "/chats?date_from=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

// ---------- requests ----------

func TestGetRequestCount(t *testing.T) {
	w := do(t, newRouter(&fakeService{}), http.MethodGet, "/requests/count?chat_id=-100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rc store.RequestCount
	if err := json.Unmarshal(w.Body.Bytes(), &rc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rc.LimitPerMinute != 9 {
		t.Fatalf("limit_per_minute = %d", rc.LimitPerMinute)
	}
}

func TestRecordRequest(t *testing.T) {
	f := &fakeService{}
	w := do(t, newRouter(f), http.MethodPost, "/requests", map[string]any{
		"method": "sendMessage",
		"data":   map[string]any{"chat_id": -100},
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if f.lastMethod != "sendMessage" {
		t.Fatalf("method = %s", f.lastMethod)
	}

	w = do(t, newRouter(f), http.MethodPost, "/requests", map[string]any{"data": map[string]any{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing method: status = %d, want 400", w.Code)
	}
}

// ---------- conversations ----------

func TestStartConversation(t *testing.T) {
	f := &fakeService{}
	w := do(t, newRouter(f), http.MethodPost, "/conversations", map[string]any{
		"user_id": 11, "chat_id": -10, "command": "/survey",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if f.convUserID != 11 || f.convChatID != -10 || f.convCommand != "/survey" {
		t.Fatalf("conversation args = %d/%d/%s", f.convUserID, f.convChatID, f.convCommand)
	}
}

func TestListConversations_RequiresPair(t *testing.T) {
	w := do(t, newRouter(&fakeService{}), http.MethodGet, "/conversations?user_id=11", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	w = do(t, newRouter(&fakeService{}), http.MethodGet, "/conversations?user_id=11&chat_id=-10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestUpdateConversation(t *testing.T) {
	f := &fakeService{}
	w := do(t, newRouter(f), http.MethodPatch, "/conversations", map[string]any{
		"user_id": 11, "chat_id": -10, "status": "stopped",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if f.lastFields["status"] != "stopped" {
		t.Fatalf("fields = %v", f.lastFields)
	}
	if f.lastWhere["user_id"] != int64(11) {
		t.Fatalf("where = %v", f.lastWhere)
	}

	w = do(t, newRouter(f), http.MethodPatch, "/conversations", map[string]any{
		"user_id": 11, "chat_id": -10, "status": "paused",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: status = %d, want 400", w.Code)
	}
}

// ---------- short urls ----------

func TestRecordShortURL(t *testing.T) {
	f := &fakeService{}
	r := newRouter(f)

	w := do(t, r, http.MethodPost, "/shorturls", map[string]any{
		"user_id":   11,
		"url":       "https://example.com/long",
		"short_url": "https://sho.rt/a",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if f.shortUserID != 11 || f.shortShort != "https://sho.rt/a" {
		t.Fatalf("recorded = %d %q", f.shortUserID, f.shortShort)
	}

	w = do(t, r, http.MethodPost, "/shorturls", map[string]any{"user_id": 11})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields status = %d", w.Code)
	}
}

func TestGetShortURL(t *testing.T) {
	f := &fakeService{shortUserID: 11, shortURL: "https://example.com/long", shortShort: "https://sho.rt/a"}
	r := newRouter(f)

	w := do(t, r, http.MethodGet, "/shorturls?user_id=11&url=https%3A%2F%2Fexample.com%2Flong", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp ShortURLResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ShortURL != "https://sho.rt/a" {
		t.Fatalf("resp = %+v", resp)
	}

	w = do(t, r, http.MethodGet, "/shorturls?user_id=11&url=https%3A%2F%2Fexample.com%2Fother", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("miss status = %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/shorturls?url=x", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing user_id status = %d", w.Code)
	}
}
