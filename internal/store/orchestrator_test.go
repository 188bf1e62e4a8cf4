package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-telegram-store/internal/domain"
	"github.com/tbourn/go-telegram-store/internal/telegram"
)

// fakeStore records every call in order so tests can assert the pipeline
// sequencing without a real database.
type fakeStore struct {
	connected bool
	calls     []string

	chats    []domain.Chat
	profiles []*domain.User
	users    []domain.User
	rels     [][2]int64
	messages []domain.Message
	edited   []domain.EditedMessage
	inline   []domain.InlineQuery
	chosen   []domain.ChosenInlineResult
	callback []domain.CallbackQuery
	ledger   []domain.TelegramUpdate
	limiter  []domain.RequestLimiter
	convs    []domain.Conversation
	shorts   []domain.ShortURL

	hasMessage bool

	lastChatsFilter ChatsFilter
	lastUpdateTable string
	lastFields      map[string]any
	lastWhere       map[string]any

	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{connected: true}
}

func (f *fakeStore) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn != "" && f.failOn == call {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeStore) Connected() bool { return f.connected }
func (f *fakeStore) Tables() Tables  { return Tables{} }

func (f *fakeStore) InsertChat(_ context.Context, chat *domain.Chat, profile *domain.User) error {
	f.chats = append(f.chats, *chat)
	f.profiles = append(f.profiles, profile)
	return f.record("chat")
}

func (f *fakeStore) InsertUser(_ context.Context, user *domain.User) error {
	f.users = append(f.users, *user)
	return f.record("user")
}

func (f *fakeStore) InsertUserChat(_ context.Context, userID, chatID int64) error {
	f.rels = append(f.rels, [2]int64{userID, chatID})
	return f.record("user_chat")
}

func (f *fakeStore) InsertMessage(_ context.Context, msg *domain.Message) error {
	f.messages = append(f.messages, *msg)
	return f.record("message")
}

func (f *fakeStore) HasMessage(_ context.Context, _, _ int64) (bool, error) {
	if err := f.record("has_message"); err != nil {
		return false, err
	}
	return f.hasMessage, nil
}

func (f *fakeStore) InsertEditedMessage(_ context.Context, em *domain.EditedMessage) (string, error) {
	f.edited = append(f.edited, *em)
	if err := f.record("edited_message"); err != nil {
		return "", err
	}
	return "42", nil
}

func (f *fakeStore) InsertInlineQuery(_ context.Context, iq *domain.InlineQuery) error {
	f.inline = append(f.inline, *iq)
	return f.record("inline_query")
}

func (f *fakeStore) InsertChosenInlineResult(_ context.Context, r *domain.ChosenInlineResult) (string, error) {
	f.chosen = append(f.chosen, *r)
	if err := f.record("chosen_inline_result"); err != nil {
		return "", err
	}
	return "7", nil
}

func (f *fakeStore) InsertCallbackQuery(_ context.Context, cq *domain.CallbackQuery) error {
	f.callback = append(f.callback, *cq)
	return f.record("callback_query")
}

func (f *fakeStore) InsertTelegramUpdate(_ context.Context, u *domain.TelegramUpdate) error {
	f.ledger = append(f.ledger, *u)
	return f.record("telegram_update")
}

func (f *fakeStore) SelectTelegramUpdates(_ context.Context, _ int, _ *int64) ([]domain.TelegramUpdate, error) {
	return f.ledger, f.record("select_updates")
}

func (f *fakeStore) SelectMessages(_ context.Context, _ int) ([]domain.Message, error) {
	return f.messages, f.record("select_messages")
}

func (f *fakeStore) SelectChats(_ context.Context, filter ChatsFilter) ([]ChatRecord, error) {
	f.lastChatsFilter = filter
	return nil, f.record("select_chats")
}

func (f *fakeStore) RequestCount(_ context.Context, _, _ string, _ time.Time) (RequestCount, error) {
	return RequestCount{LimitPerSecAll: 3, LimitPerSec: 1, LimitPerMinute: 9}, f.record("request_count")
}

func (f *fakeStore) InsertRequestLimiter(_ context.Context, entry *domain.RequestLimiter) error {
	f.limiter = append(f.limiter, *entry)
	return f.record("request_limiter")
}

func (f *fakeStore) Update(_ context.Context, table string, fields, where map[string]any) error {
	f.lastUpdateTable = table
	f.lastFields = fields
	f.lastWhere = where
	return f.record("update")
}

func (f *fakeStore) InsertShortURL(_ context.Context, su *domain.ShortURL) error {
	f.shorts = append(f.shorts, *su)
	return f.record("short_url")
}

func (f *fakeStore) SelectShortURL(_ context.Context, url string, userID int64) (string, error) {
	if err := f.record("select_short_url"); err != nil {
		return "", err
	}
	for i := len(f.shorts) - 1; i >= 0; i-- {
		if f.shorts[i].URL == url && f.shorts[i].UserID == userID {
			return f.shorts[i].ShortURL, nil
		}
	}
	return "", nil
}

func (f *fakeStore) InsertConversation(_ context.Context, c *domain.Conversation) error {
	f.convs = append(f.convs, *c)
	return f.record("conversation")
}

func (f *fakeStore) SelectConversations(_ context.Context, _, _ int64, _ int) ([]domain.Conversation, error) {
	return f.convs, f.record("select_conversations")
}

func newTestOrchestrator(f *fakeStore) *Orchestrator {
	return NewOrchestrator(f, zerolog.Nop())
}

func messageUpdate(updateID, chatID, messageID int64, text string) *telegram.Update {
	return &telegram.Update{
		UpdateID: updateID,
		Message: &telegram.Message{
			MessageID: messageID,
			From:      &telegram.User{ID: 11, FirstName: "Ada"},
			Date:      1441645532,
			Chat:      telegram.Chat{ID: chatID, Type: "group", Title: "people"},
			Text:      text,
		},
	}
}

func TestInsertRequest_MessageOrder(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	if err := o.InsertRequest(context.Background(), messageUpdate(900, -100, 5, "hi")); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	want := []string{"chat", "user", "user_chat", "message", "telegram_update"}
	if got := strings.Join(f.calls, ","); got != strings.Join(want, ",") {
		t.Fatalf("call order = %s, want %s", got, strings.Join(want, ","))
	}

	led := f.ledger[0]
	if led.ID != 900 || led.ChatID == nil || *led.ChatID != -100 || led.MessageID == nil || *led.MessageID != 5 {
		t.Fatalf("ledger row = %+v", led)
	}
	if led.InlineQueryID != nil || led.CallbackQueryID != nil || led.EditedMessageID != nil {
		t.Fatalf("ledger row references more than one entity: %+v", led)
	}

	msg := f.messages[0]
	if msg.ChatID != -100 || msg.ID != 5 || msg.Text == nil || *msg.Text != "hi" {
		t.Fatalf("message row = %+v", msg)
	}
	wantDate := time.Date(2015, 9, 7, 17, 5, 32, 0, time.UTC)
	if !msg.Date.Equal(wantDate) {
		t.Fatalf("message date = %v, want %v", msg.Date, wantDate)
	}
}

func TestInsertRequest_LedgerOnlyAfterEntity(t *testing.T) {
	f := newFakeStore()
	f.failOn = "message"
	o := newTestOrchestrator(f)

	if err := o.InsertRequest(context.Background(), messageUpdate(901, -100, 6, "x")); err == nil {
		t.Fatal("expected error from failing message insert")
	}
	if len(f.ledger) != 0 {
		t.Fatalf("ledger written despite failed entity insert: %+v", f.ledger)
	}
}

func TestInsertRequest_Migration(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	u := messageUpdate(902, -200, 7, "")
	u.Message.MigrateToChatID = -100200

	if err := o.InsertRequest(context.Background(), u); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	chat := f.chats[0]
	if chat.ID != -100200 {
		t.Fatalf("chat id = %d, want migration target", chat.ID)
	}
	if chat.Type != "supergroup" {
		t.Fatalf("chat type = %s, want supergroup", chat.Type)
	}
	if chat.OldID == nil || *chat.OldID != -200 {
		t.Fatalf("old id = %v, want -200", chat.OldID)
	}

	if rel := f.rels[0]; rel[1] != -100200 {
		t.Fatalf("relation chat id = %d, want migration target", rel[1])
	}
	if led := f.ledger[0]; led.ChatID == nil || *led.ChatID != -100200 {
		t.Fatalf("ledger chat id = %v, want migration target", led.ChatID)
	}
}

func TestInsertRequest_ReplyPersistedFirst(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	u := messageUpdate(903, -300, 21, "answer")
	u.Message.ReplyToMessage = &telegram.Message{
		MessageID: 20,
		From:      &telegram.User{ID: 12, FirstName: "Bob"},
		Date:      1441645500,
		Chat:      telegram.Chat{ID: -300, Type: "group"},
		Text:      "question",
	}

	if err := o.InsertRequest(context.Background(), u); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	if len(f.messages) != 2 {
		t.Fatalf("message rows = %d, want 2", len(f.messages))
	}
	if f.messages[0].ID != 20 {
		t.Fatalf("reply was not persisted before the outer message")
	}
	outer := f.messages[1]
	if outer.ReplyToMessage == nil || *outer.ReplyToMessage != 20 {
		t.Fatalf("outer reply_to_message = %v, want 20", outer.ReplyToMessage)
	}
	if outer.ReplyToChat == nil || *outer.ReplyToChat != -300 {
		t.Fatalf("outer reply_to_chat = %v, want -300", outer.ReplyToChat)
	}
}

func TestInsertRequest_ForwardEntitiesFirst(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	u := messageUpdate(904, -400, 30, "")
	u.Message.ForwardFrom = &telegram.User{ID: 77, FirstName: "Src"}
	u.Message.ForwardFromChat = &telegram.Chat{ID: -500, Type: "channel", Title: "news"}
	u.Message.ForwardDate = 1441645000

	if err := o.InsertRequest(context.Background(), u); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	// Forward origin user and chat come after sender but before the message.
	want := "chat,user,user_chat,user,chat,message,telegram_update"
	if got := strings.Join(f.calls, ","); got != want {
		t.Fatalf("call order = %s, want %s", got, want)
	}

	msg := f.messages[0]
	if msg.ForwardFrom == nil || *msg.ForwardFrom != 77 {
		t.Fatalf("forward_from = %v, want 77", msg.ForwardFrom)
	}
	if msg.ForwardFromChat == nil || *msg.ForwardFromChat != -500 {
		t.Fatalf("forward_from_chat = %v, want -500", msg.ForwardFromChat)
	}
	if msg.ForwardDate == nil {
		t.Fatal("forward_date not set")
	}
	// The forward origin chat must not carry the message sender profile.
	if f.profiles[1] != nil {
		t.Fatalf("forward chat profile = %+v, want nil", f.profiles[1])
	}
}

func TestInsertRequest_NewChatMembers(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	u := messageUpdate(905, -600, 40, "")
	u.Message.NewChatMembers = []telegram.User{
		{ID: 101, FirstName: "A"},
		{ID: 102, FirstName: "B"},
	}

	if err := o.InsertRequest(context.Background(), u); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	if len(f.rels) != 3 { // sender plus two members
		t.Fatalf("relations = %d, want 3", len(f.rels))
	}
	msg := f.messages[0]
	if msg.NewChatMembers == nil || *msg.NewChatMembers != "101,102" {
		t.Fatalf("new_chat_members = %v, want 101,102", msg.NewChatMembers)
	}
}

func TestInsertRequest_EditedMessage(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	u := &telegram.Update{
		UpdateID: 906,
		EditedMessage: &telegram.Message{
			MessageID: 50,
			From:      &telegram.User{ID: 11, FirstName: "Ada"},
			Date:      1441645532,
			EditDate:  1441645600,
			Chat:      telegram.Chat{ID: -700, Type: "group"},
			Text:      "fixed",
		},
	}

	if err := o.InsertRequest(context.Background(), u); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	if len(f.messages) != 0 {
		t.Fatalf("edit produced a primary message row: %+v", f.messages)
	}
	em := f.edited[0]
	if em.ChatID != -700 || em.MessageID != 50 {
		t.Fatalf("edited row = %+v", em)
	}
	if !em.EditDate.Equal(time.Unix(1441645600, 0).UTC()) {
		t.Fatalf("edit date = %v", em.EditDate)
	}
	led := f.ledger[0]
	if led.EditedMessageID == nil || *led.EditedMessageID != "42" {
		t.Fatalf("ledger edited id = %v, want generated 42", led.EditedMessageID)
	}
	if led.MessageID != nil {
		t.Fatalf("edit ledger row references a message: %+v", led)
	}
}

func TestInsertRequest_InlineQuery(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	u := &telegram.Update{
		UpdateID: 907,
		InlineQuery: &telegram.InlineQuery{
			ID:    "iq-1",
			From:  &telegram.User{ID: 13, FirstName: "Eve"},
			Query: "cats",
		},
	}

	if err := o.InsertRequest(context.Background(), u); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	want := "user,inline_query,telegram_update"
	if got := strings.Join(f.calls, ","); got != want {
		t.Fatalf("call order = %s, want %s", got, want)
	}
	if led := f.ledger[0]; led.InlineQueryID == nil || *led.InlineQueryID != "iq-1" {
		t.Fatalf("ledger inline query id = %v", led.InlineQueryID)
	}
}

func TestInsertRequest_ChosenInlineResult(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	u := &telegram.Update{
		UpdateID: 908,
		ChosenInlineResult: &telegram.ChosenInlineResult{
			ResultID: "r-9",
			From:     &telegram.User{ID: 13, FirstName: "Eve"},
			Query:    "cats",
		},
	}

	if err := o.InsertRequest(context.Background(), u); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	if f.chosen[0].ResultID != "r-9" {
		t.Fatalf("chosen row = %+v", f.chosen[0])
	}
	if led := f.ledger[0]; led.ChosenInlineResultID == nil || *led.ChosenInlineResultID != "7" {
		t.Fatalf("ledger chosen id = %v, want generated 7", led.ChosenInlineResultID)
	}
}

func callbackUpdate(updateID int64) *telegram.Update {
	return &telegram.Update{
		UpdateID: updateID,
		CallbackQuery: &telegram.CallbackQuery{
			ID:   "cb-1",
			From: &telegram.User{ID: 14, FirstName: "Kim"},
			Message: &telegram.Message{
				MessageID: 60,
				From:      &telegram.User{ID: 1, FirstName: "Bot", IsBot: true},
				Date:      1441645532,
				Chat:      telegram.Chat{ID: -800, Type: "group"},
				Text:      "pick one",
			},
			Data: "opt-a",
		},
	}
}

func TestInsertRequest_CallbackQuery_FreshMessage(t *testing.T) {
	f := newFakeStore()
	f.hasMessage = false
	o := newTestOrchestrator(f)

	if err := o.InsertRequest(context.Background(), callbackUpdate(909)); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	if len(f.messages) != 1 || len(f.edited) != 0 {
		t.Fatalf("unknown attached message must insert a message row, got %d messages %d edits",
			len(f.messages), len(f.edited))
	}
	cb := f.callback[0]
	if cb.ChatID == nil || *cb.ChatID != -800 || cb.MessageID == nil || *cb.MessageID != 60 {
		t.Fatalf("callback row = %+v", cb)
	}
	if led := f.ledger[0]; led.CallbackQueryID == nil || *led.CallbackQueryID != "cb-1" {
		t.Fatalf("ledger callback id = %v", led.CallbackQueryID)
	}
}

func TestInsertRequest_CallbackQuery_KnownMessage(t *testing.T) {
	f := newFakeStore()
	f.hasMessage = true
	o := newTestOrchestrator(f)

	if err := o.InsertRequest(context.Background(), callbackUpdate(910)); err != nil {
		t.Fatalf("InsertRequest: %v", err)
	}

	if len(f.messages) != 0 || len(f.edited) != 1 {
		t.Fatalf("known attached message must insert an edit, got %d messages %d edits",
			len(f.messages), len(f.edited))
	}
}

func TestInsertRequest_Unsupported(t *testing.T) {
	o := newTestOrchestrator(newFakeStore())

	err := o.InsertRequest(context.Background(), &telegram.Update{UpdateID: 911})
	if !errors.Is(err, ErrUnsupportedUpdate) {
		t.Fatalf("err = %v, want ErrUnsupportedUpdate", err)
	}
}

func TestInsertRequest_NotConnected(t *testing.T) {
	f := newFakeStore()
	f.connected = false
	o := newTestOrchestrator(f)

	err := o.InsertRequest(context.Background(), messageUpdate(912, -1, 1, ""))
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("store touched while disconnected: %v", f.calls)
	}
}

func TestInsertTelegramUpdate_RequiresReference(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	err := o.InsertTelegramUpdate(context.Background(), &domain.TelegramUpdate{ID: 913})
	if !errors.Is(err, ErrNoUpdateReference) {
		t.Fatalf("err = %v, want ErrNoUpdateReference", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("store touched for invalid ledger row: %v", f.calls)
	}
}

func TestSelectChats_EmptyScope(t *testing.T) {
	o := newTestOrchestrator(newFakeStore())

	_, err := o.SelectChats(context.Background(), ChatsFilter{Text: "x"})
	if !errors.Is(err, ErrEmptyChatScope) {
		t.Fatalf("err = %v, want ErrEmptyChatScope", err)
	}
}

func TestSelectChats_FoldsText(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	filter := DefaultChatsFilter()
	filter.Text = "Straße"
	if _, err := o.SelectChats(context.Background(), filter); err != nil {
		t.Fatalf("SelectChats: %v", err)
	}
	if f.lastChatsFilter.Text != "strasse" {
		t.Fatalf("text passed to store = %q, want folded", f.lastChatsFilter.Text)
	}
}

func TestUpdate_Validation(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)
	ctx := context.Background()

	if err := o.Update(ctx, TableChat, nil, nil); !errors.Is(err, ErrNoFields) {
		t.Fatalf("empty fields: err = %v, want ErrNoFields", err)
	}
	if err := o.Update(ctx, "nope", map[string]any{"title": "x"}, nil); !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("unknown table: err = %v, want ErrUnknownTable", err)
	}
	if len(f.calls) != 0 {
		t.Fatalf("store touched on invalid update: %v", f.calls)
	}

	if err := o.Update(ctx, TableChat, map[string]any{"title": "x"}, map[string]any{"id": 1}); err != nil {
		t.Fatalf("valid update: %v", err)
	}
	if f.lastUpdateTable != TableChat {
		t.Fatalf("table = %s", f.lastUpdateTable)
	}
}

func TestInsertTelegramRequest_ExtractsTargets(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)

	// Values arrive as decoded JSON, so numbers are float64.
	data := map[string]any{"chat_id": float64(-100), "text": "hi"}
	if err := o.InsertTelegramRequest(context.Background(), "sendMessage", data); err != nil {
		t.Fatalf("InsertTelegramRequest: %v", err)
	}

	entry := f.limiter[0]
	if entry.Method != "sendMessage" {
		t.Fatalf("method = %s", entry.Method)
	}
	if entry.ChatID == nil || *entry.ChatID != "-100" {
		t.Fatalf("chat id = %v, want -100", entry.ChatID)
	}
	if entry.InlineMessageID != nil {
		t.Fatalf("inline message id = %v, want nil", entry.InlineMessageID)
	}

	data = map[string]any{"chat_id": "@channel", "inline_message_id": "im-1"}
	if err := o.InsertTelegramRequest(context.Background(), "editMessageText", data); err != nil {
		t.Fatalf("InsertTelegramRequest: %v", err)
	}
	entry = f.limiter[1]
	if entry.ChatID == nil || *entry.ChatID != "@channel" {
		t.Fatalf("chat id = %v, want @channel", entry.ChatID)
	}
	if entry.InlineMessageID == nil || *entry.InlineMessageID != "im-1" {
		t.Fatalf("inline message id = %v, want im-1", entry.InlineMessageID)
	}
}

func TestGetTelegramRequestCount(t *testing.T) {
	o := newTestOrchestrator(newFakeStore())

	rc, err := o.GetTelegramRequestCount(context.Background(), "-100", "")
	if err != nil {
		t.Fatalf("GetTelegramRequestCount: %v", err)
	}
	if rc.LimitPerSecAll < rc.LimitPerSec {
		t.Fatalf("limit_per_sec_all %d < limit_per_sec %d", rc.LimitPerSecAll, rc.LimitPerSec)
	}
}

func TestConversationLifecycle(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)
	ctx := context.Background()

	if err := o.InsertConversation(ctx, 11, -100, "/survey"); err != nil {
		t.Fatalf("InsertConversation: %v", err)
	}
	c := f.convs[0]
	if c.Status != domain.ConversationActive {
		t.Fatalf("status = %s, want active", c.Status)
	}
	if c.Notes != "[]" {
		t.Fatalf("notes = %q, want empty JSON list", c.Notes)
	}
	var notes []any
	if err := json.Unmarshal([]byte(c.Notes), &notes); err != nil {
		t.Fatalf("notes are not valid JSON: %v", err)
	}

	err := o.UpdateConversation(ctx,
		map[string]any{"status": domain.ConversationStopped},
		map[string]any{"user_id": 11, "chat_id": -100})
	if err != nil {
		t.Fatalf("UpdateConversation: %v", err)
	}
	if f.lastUpdateTable != TableConversation {
		t.Fatalf("update table = %s", f.lastUpdateTable)
	}
	if _, ok := f.lastFields["updated_at"]; !ok {
		t.Fatal("updated_at not stamped")
	}
	if f.lastFields["status"] != domain.ConversationStopped {
		t.Fatalf("status field = %v", f.lastFields["status"])
	}
}

func TestShortURLCache(t *testing.T) {
	f := newFakeStore()
	o := newTestOrchestrator(f)
	ctx := context.Background()

	if err := o.InsertShortURL(ctx, 11, "https://example.com/a/very/long/path", "https://sho.rt/x"); err != nil {
		t.Fatalf("InsertShortURL: %v", err)
	}
	su := f.shorts[0]
	if su.UserID != 11 || su.ShortURL != "https://sho.rt/x" {
		t.Fatalf("stored entry = %+v", su)
	}
	if su.CreatedAt.IsZero() {
		t.Fatal("created_at not stamped")
	}

	got, err := o.SelectShortURL(ctx, "https://example.com/a/very/long/path", 11)
	if err != nil {
		t.Fatalf("SelectShortURL: %v", err)
	}
	if got != "https://sho.rt/x" {
		t.Fatalf("short = %q", got)
	}

	got, err = o.SelectShortURL(ctx, "https://example.com/other", 11)
	if err != nil {
		t.Fatalf("SelectShortURL miss: %v", err)
	}
	if got != "" {
		t.Fatalf("miss returned %q, want empty", got)
	}

	f.connected = false
	if err := o.InsertShortURL(ctx, 11, "u", "s"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if _, err := o.SelectShortURL(ctx, "u", 11); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}
