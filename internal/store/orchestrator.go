// Package store: backend-independent write pipeline.
//
// Orchestrator implements the ordered, idempotent persistence of inbound
// Telegram updates on top of the Store contract: chat upsert (with migration
// re-keying), user upsert, user-chat relation, dependent users/chats
// (forwards, membership changes), a depth-limited reply-to-message recursion,
// the primary entity insert, and finally the deduplicated update-ledger row.
// The ledger row is written only after the primary entity persisted, so the
// ledger never references a missing entity. There is no automatic rollback of
// the primary insert if the ledger write fails: the write is already durable
// and a caller retry converges (every write is an upsert or insert-ignore).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-telegram-store/internal/domain"
	"github.com/tbourn/go-telegram-store/internal/normalize"
	"github.com/tbourn/go-telegram-store/internal/telegram"
)

// maxReplyDepth bounds the reply-to-message recursion. The Bot API strips
// reply_to_message from embedded replies, but the bound is enforced here
// rather than trusted.
const maxReplyDepth = 1

// Orchestrator drives the write pipeline against a Store. It is stateless
// apart from the injected store and logger, and safe for concurrent use.
type Orchestrator struct {
	store Store
	log   zerolog.Logger
}

// NewOrchestrator returns an Orchestrator writing through s.
func NewOrchestrator(s Store, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{store: s, log: log}
}

// InsertRequest is the single entry point for any inbound update. It
// dispatches on the update kind, persists the primary entity (and its
// dependencies, in order), then records the ledger row referencing it.
// A channel post is persisted as a message; an edited channel post as an
// edited message.
func (o *Orchestrator) InsertRequest(ctx context.Context, u *telegram.Update) error {
	if !o.store.Connected() {
		return ErrNotConnected
	}

	ledger := domain.TelegramUpdate{ID: u.UpdateID}

	switch u.Type() {
	case telegram.UpdateMessage, telegram.UpdateChannelPost:
		msg := u.Message
		if msg == nil {
			msg = u.ChannelPost
		}
		if err := o.insertMessage(ctx, msg, 0); err != nil {
			return err
		}
		chatID, _, _ := normalize.ResolveChatMigration(&msg.Chat, msg.MigrateToChatID)
		ledger.ChatID = &chatID
		ledger.MessageID = &msg.MessageID

	case telegram.UpdateEditedMessage, telegram.UpdateEditedChannelPost:
		msg := u.EditedMessage
		if msg == nil {
			msg = u.EditedChannelPost
		}
		localID, err := o.InsertEditedMessageRequest(ctx, msg)
		if err != nil {
			return err
		}
		ledger.ChatID = &msg.Chat.ID
		ledger.EditedMessageID = &localID

	case telegram.UpdateInlineQuery:
		if err := o.InsertInlineQueryRequest(ctx, u.InlineQuery); err != nil {
			return err
		}
		ledger.InlineQueryID = &u.InlineQuery.ID

	case telegram.UpdateChosenInlineResult:
		localID, err := o.InsertChosenInlineResultRequest(ctx, u.ChosenInlineResult)
		if err != nil {
			return err
		}
		ledger.ChosenInlineResultID = &localID

	case telegram.UpdateCallbackQuery:
		if err := o.InsertCallbackQueryRequest(ctx, u.CallbackQuery); err != nil {
			return err
		}
		ledger.CallbackQueryID = &u.CallbackQuery.ID

	default:
		return ErrUnsupportedUpdate
	}

	if err := o.InsertTelegramUpdate(ctx, &ledger); err != nil {
		return fmt.Errorf("log update %d: %w", u.UpdateID, err)
	}
	o.log.Debug().Int64("update_id", u.UpdateID).Str("type", u.Type()).Msg("update persisted")
	return nil
}

// InsertTelegramUpdate appends one ledger row, deduplicated by update id.
// A row referencing no entity is rejected before any storage call.
func (o *Orchestrator) InsertTelegramUpdate(ctx context.Context, u *domain.TelegramUpdate) error {
	if u.MessageID == nil && u.InlineQueryID == nil && u.ChosenInlineResultID == nil &&
		u.CallbackQueryID == nil && u.EditedMessageID == nil {
		return ErrNoUpdateReference
	}
	if !o.store.Connected() {
		return ErrNotConnected
	}
	return o.store.InsertTelegramUpdate(ctx, u)
}

// InsertMessageRequest persists one message together with its dependent
// entities, in dependency order.
func (o *Orchestrator) InsertMessageRequest(ctx context.Context, m *telegram.Message) error {
	if !o.store.Connected() {
		return ErrNotConnected
	}
	return o.insertMessage(ctx, m, 0)
}

// insertMessage is the ordered pipeline body. depth counts reply nesting;
// replies beyond maxReplyDepth are not followed.
func (o *Orchestrator) insertMessage(ctx context.Context, m *telegram.Message, depth int) error {
	date := normalize.Timestamp(m.Date)

	// Chat first, re-keyed if this message carries a migration.
	chatID, oldID, chatType := normalize.ResolveChatMigration(&m.Chat, m.MigrateToChatID)
	chat := &domain.Chat{
		ID:                          chatID,
		Type:                        chatType,
		Title:                       strPtr(m.Chat.Title),
		Username:                    strPtr(m.Chat.Username),
		AllMembersAreAdministrators: m.Chat.AllMembersAreAdministrators,
		OldID:                       oldID,
		CreatedAt:                   date,
		UpdatedAt:                   date,
	}
	if err := o.store.InsertChat(ctx, chat, domainUser(m.From, date)); err != nil {
		return fmt.Errorf("upsert chat %d: %w", chatID, err)
	}

	// Sender and the user-chat relation.
	if m.From != nil {
		if err := o.insertUserWithRelation(ctx, m.From, date, chatID); err != nil {
			return err
		}
	}

	// Forward origin user/chat must exist before the message references them.
	var forwardDate *time.Time
	if m.ForwardFrom != nil || m.ForwardFromChat != nil {
		fd := normalize.Timestamp(m.ForwardDate)
		forwardDate = &fd
	}
	if m.ForwardFrom != nil {
		if err := o.store.InsertUser(ctx, domainUser(m.ForwardFrom, *forwardDate)); err != nil {
			return fmt.Errorf("upsert forward user %d: %w", m.ForwardFrom.ID, err)
		}
	}
	if fc := m.ForwardFromChat; fc != nil {
		fchat := &domain.Chat{
			ID:                          fc.ID,
			Type:                        fc.Type,
			Title:                       strPtr(fc.Title),
			Username:                    strPtr(fc.Username),
			AllMembersAreAdministrators: fc.AllMembersAreAdministrators,
			CreatedAt:                   *forwardDate,
			UpdatedAt:                   *forwardDate,
		}
		if err := o.store.InsertChat(ctx, fchat, nil); err != nil {
			return fmt.Errorf("upsert forward chat %d: %w", fc.ID, err)
		}
	}

	// Membership changes.
	var leftChatMember *int64
	for i := range m.NewChatMembers {
		member := &m.NewChatMembers[i]
		if err := o.insertUserWithRelation(ctx, member, date, chatID); err != nil {
			return err
		}
	}
	if lm := m.LeftChatMember; lm != nil {
		if err := o.insertUserWithRelation(ctx, lm, date, chatID); err != nil {
			return err
		}
		leftChatMember = &lm.ID
	}

	// Reply chain, one level only.
	var replyToMessage, replyToChat *int64
	if r := m.ReplyToMessage; r != nil {
		if depth < maxReplyDepth {
			if err := o.insertMessage(ctx, r, depth+1); err != nil {
				return fmt.Errorf("insert reply %d: %w", r.MessageID, err)
			}
			replyToMessage = &r.MessageID
			replyToChat = &chatID
		} else {
			// Upstream guarantees replies are never nested deeper;
			// if one ever is, record the message without the link.
			o.log.Warn().
				Int64("chat_id", chatID).
				Int64("message_id", m.MessageID).
				Msg("reply depth exceeded, link dropped")
		}
	}

	row := &domain.Message{
		ChatID:                chatID,
		ID:                    m.MessageID,
		UserID:                userID(m.From),
		Date:                  date,
		ForwardFrom:           userID(m.ForwardFrom),
		ForwardFromChat:       chatIDPtr(m.ForwardFromChat),
		ForwardFromMessageID:  i64Ptr(m.ForwardFromMessageID),
		ForwardDate:           forwardDate,
		ReplyToChat:           replyToChat,
		ReplyToMessage:        replyToMessage,
		MediaGroupID:          strPtr(m.MediaGroupID),
		Text:                  strPtr(m.Text),
		Entities:              normalize.EntityListJSON(m.Entities),
		Audio:                 normalize.RawJSON(m.Audio),
		Document:              normalize.RawJSON(m.Document),
		Animation:             normalize.RawJSON(m.Animation),
		Game:                  normalize.RawJSON(m.Game),
		Photo:                 normalize.EntityListJSON(m.Photo),
		Sticker:               normalize.RawJSON(m.Sticker),
		Video:                 normalize.RawJSON(m.Video),
		Voice:                 normalize.RawJSON(m.Voice),
		VideoNote:             normalize.RawJSON(m.VideoNote),
		Caption:               strPtr(m.Caption),
		Contact:               normalize.RawJSON(m.Contact),
		Location:              locationJSON(m.Location),
		Venue:                 normalize.RawJSON(m.Venue),
		NewChatMembers:        normalize.JoinMemberIDs(m.NewChatMembers),
		LeftChatMember:        leftChatMember,
		NewChatTitle:          strPtr(m.NewChatTitle),
		NewChatPhoto:          normalize.EntityListJSON(m.NewChatPhoto),
		DeleteChatPhoto:       m.DeleteChatPhoto,
		GroupChatCreated:      m.GroupChatCreated,
		SupergroupChatCreated: m.SupergroupChatCreated,
		ChannelChatCreated:    m.ChannelChatCreated,
		MigrateFromChatID:     i64Ptr(m.MigrateFromChatID),
		MigrateToChatID:       i64Ptr(m.MigrateToChatID),
		PinnedMessage:         normalize.RawJSON(m.PinnedMessage),
		ConnectedWebsite:      strPtr(m.ConnectedWebsite),
		PassportData:          normalize.RawJSON(m.PassportData),
	}
	if err := o.store.InsertMessage(ctx, row); err != nil {
		return fmt.Errorf("insert message %d/%d: %w", chatID, m.MessageID, err)
	}
	return nil
}

// InsertEditedMessageRequest persists one edit event and returns the
// generated edited-message id the ledger references.
func (o *Orchestrator) InsertEditedMessageRequest(ctx context.Context, m *telegram.Message) (string, error) {
	if !o.store.Connected() {
		return "", ErrNotConnected
	}

	editDate := normalize.Timestamp(m.EditDate)

	chat := &domain.Chat{
		ID:                          m.Chat.ID,
		Type:                        m.Chat.Type,
		Title:                       strPtr(m.Chat.Title),
		Username:                    strPtr(m.Chat.Username),
		AllMembersAreAdministrators: m.Chat.AllMembersAreAdministrators,
		CreatedAt:                   editDate,
		UpdatedAt:                   editDate,
	}
	if err := o.store.InsertChat(ctx, chat, domainUser(m.From, editDate)); err != nil {
		return "", fmt.Errorf("upsert chat %d: %w", m.Chat.ID, err)
	}
	if m.From != nil {
		if err := o.insertUserWithRelation(ctx, m.From, editDate, m.Chat.ID); err != nil {
			return "", err
		}
	}

	row := &domain.EditedMessage{
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		UserID:    userID(m.From),
		EditDate:  editDate,
		Text:      strPtr(m.Text),
		Entities:  normalize.EntityListJSON(m.Entities),
		Caption:   strPtr(m.Caption),
	}
	id, err := o.store.InsertEditedMessage(ctx, row)
	if err != nil {
		return "", fmt.Errorf("insert edited message %d/%d: %w", m.Chat.ID, m.MessageID, err)
	}
	return id, nil
}

// InsertInlineQueryRequest persists an inline query after upserting its
// sender.
func (o *Orchestrator) InsertInlineQueryRequest(ctx context.Context, q *telegram.InlineQuery) error {
	if !o.store.Connected() {
		return ErrNotConnected
	}

	now := normalize.Timestamp(0)
	if q.From != nil {
		if err := o.store.InsertUser(ctx, domainUser(q.From, now)); err != nil {
			return fmt.Errorf("upsert user %d: %w", q.From.ID, err)
		}
	}

	row := &domain.InlineQuery{
		ID:        q.ID,
		UserID:    userID(q.From),
		Location:  locationJSON(q.Location),
		Query:     q.Query,
		Offset:    strPtr(q.Offset),
		CreatedAt: now,
	}
	if err := o.store.InsertInlineQuery(ctx, row); err != nil {
		return fmt.Errorf("insert inline query %s: %w", q.ID, err)
	}
	return nil
}

// InsertChosenInlineResultRequest persists a chosen inline result after
// upserting its sender, returning the generated row id.
func (o *Orchestrator) InsertChosenInlineResultRequest(ctx context.Context, r *telegram.ChosenInlineResult) (string, error) {
	if !o.store.Connected() {
		return "", ErrNotConnected
	}

	now := normalize.Timestamp(0)
	if r.From != nil {
		if err := o.store.InsertUser(ctx, domainUser(r.From, now)); err != nil {
			return "", fmt.Errorf("upsert user %d: %w", r.From.ID, err)
		}
	}

	row := &domain.ChosenInlineResult{
		ResultID:        r.ResultID,
		UserID:          userID(r.From),
		Location:        locationJSON(r.Location),
		InlineMessageID: strPtr(r.InlineMessageID),
		Query:           r.Query,
		CreatedAt:       now,
	}
	id, err := o.store.InsertChosenInlineResult(ctx, row)
	if err != nil {
		return "", fmt.Errorf("insert chosen inline result %s: %w", r.ResultID, err)
	}
	return id, nil
}

// InsertCallbackQueryRequest persists a callback query. When the callback
// carries an attached message, the message is recorded as an edit if a row
// with its (chat_id, message_id) already exists, and as a fresh message
// otherwise. This existence check is the one place the pipeline branches on
// storage state rather than event shape.
func (o *Orchestrator) InsertCallbackQueryRequest(ctx context.Context, cq *telegram.CallbackQuery) error {
	if !o.store.Connected() {
		return ErrNotConnected
	}

	now := normalize.Timestamp(0)
	if cq.From != nil {
		if err := o.store.InsertUser(ctx, domainUser(cq.From, now)); err != nil {
			return fmt.Errorf("upsert user %d: %w", cq.From.ID, err)
		}
	}

	var chatID, messageID *int64
	if m := cq.Message; m != nil {
		chatID = &m.Chat.ID
		messageID = &m.MessageID

		exists, err := o.store.HasMessage(ctx, m.Chat.ID, m.MessageID)
		if err != nil {
			return fmt.Errorf("check message %d/%d: %w", m.Chat.ID, m.MessageID, err)
		}
		if exists {
			if _, err := o.InsertEditedMessageRequest(ctx, m); err != nil {
				return err
			}
		} else {
			if err := o.insertMessage(ctx, m, 0); err != nil {
				return err
			}
		}
	}

	row := &domain.CallbackQuery{
		ID:              cq.ID,
		UserID:          userID(cq.From),
		ChatID:          chatID,
		MessageID:       messageID,
		InlineMessageID: strPtr(cq.InlineMessageID),
		Data:            strPtr(cq.Data),
		CreatedAt:       now,
	}
	if err := o.store.InsertCallbackQuery(ctx, row); err != nil {
		return fmt.Errorf("insert callback query %s: %w", cq.ID, err)
	}
	return nil
}

// insertUserWithRelation upserts a user and its relation to the chat.
func (o *Orchestrator) insertUserWithRelation(ctx context.Context, u *telegram.User, date time.Time, chatID int64) error {
	if err := o.store.InsertUser(ctx, domainUser(u, date)); err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	if err := o.store.InsertUserChat(ctx, u.ID, chatID); err != nil {
		return fmt.Errorf("relate user %d to chat %d: %w", u.ID, chatID, err)
	}
	return nil
}

// SelectChats returns chats matching the filter. At least one type scope
// must be enabled; the text term is Unicode case-folded before matching.
func (o *Orchestrator) SelectChats(ctx context.Context, filter ChatsFilter) ([]ChatRecord, error) {
	if !o.store.Connected() {
		return nil, ErrNotConnected
	}
	if !filter.Groups && !filter.Supergroups && !filter.Channels && !filter.Users {
		return nil, ErrEmptyChatScope
	}
	filter.Text = normalize.FoldText(filter.Text)
	return o.store.SelectChats(ctx, filter)
}

// SelectTelegramUpdates fetches ledger rows, newest first, or the single row
// matching id when id is non-nil. Callers use it to resume processing after
// a restart.
func (o *Orchestrator) SelectTelegramUpdates(ctx context.Context, limit int, id *int64) ([]domain.TelegramUpdate, error) {
	if !o.store.Connected() {
		return nil, ErrNotConnected
	}
	return o.store.SelectTelegramUpdates(ctx, limit, id)
}

// SelectMessages fetches stored messages, newest first.
func (o *Orchestrator) SelectMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	if !o.store.Connected() {
		return nil, ErrNotConnected
	}
	return o.store.SelectMessages(ctx, limit)
}

// GetTelegramRequestCount computes the three request-rate counters for the
// given chat or inline message. It only counts; enforcement is the caller's.
func (o *Orchestrator) GetTelegramRequestCount(ctx context.Context, chatID, inlineMessageID string) (RequestCount, error) {
	if !o.store.Connected() {
		return RequestCount{}, ErrNotConnected
	}
	return o.store.RequestCount(ctx, chatID, inlineMessageID, normalize.Timestamp(0))
}

// InsertTelegramRequest records one outbound Bot API call for rate
// accounting. data is the request payload; only chat_id and
// inline_message_id are extracted from it.
func (o *Orchestrator) InsertTelegramRequest(ctx context.Context, method string, data map[string]any) error {
	if !o.store.Connected() {
		return ErrNotConnected
	}
	entry := &domain.RequestLimiter{
		ChatID:          stringify(data["chat_id"]),
		InlineMessageID: stringify(data["inline_message_id"]),
		Method:          method,
		CreatedAt:       normalize.Timestamp(0),
	}
	return o.store.InsertRequestLimiter(ctx, entry)
}

// InsertShortURL caches the shortened form of url for the user.
func (o *Orchestrator) InsertShortURL(ctx context.Context, userID int64, url, shortURL string) error {
	if !o.store.Connected() {
		return ErrNotConnected
	}
	return o.store.InsertShortURL(ctx, &domain.ShortURL{
		UserID:    userID,
		URL:       url,
		ShortURL:  shortURL,
		CreatedAt: normalize.Timestamp(0),
	})
}

// SelectShortURL returns the most recently cached shortened form of url for
// the user, or the empty string when none is cached.
func (o *Orchestrator) SelectShortURL(ctx context.Context, url string, userID int64) (string, error) {
	if !o.store.Connected() {
		return "", ErrNotConnected
	}
	return o.store.SelectShortURL(ctx, url, userID)
}

// Update is the generic field-level update escape hatch, addressed by
// logical table name.
func (o *Orchestrator) Update(ctx context.Context, table string, fields, where map[string]any) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	if !KnownTable(table) {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if !o.store.Connected() {
		return ErrNotConnected
	}
	return o.store.Update(ctx, table, fields, where)
}

// InsertConversation opens a new active conversation for the pair.
func (o *Orchestrator) InsertConversation(ctx context.Context, userID, chatID int64, command string) error {
	if !o.store.Connected() {
		return ErrNotConnected
	}
	now := normalize.Timestamp(0)
	return o.store.InsertConversation(ctx, &domain.Conversation{
		UserID:    userID,
		ChatID:    chatID,
		Status:    domain.ConversationActive,
		Command:   command,
		Notes:     "[]",
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// SelectConversation returns active conversations for the pair, capped at
// limit when limit > 0.
func (o *Orchestrator) SelectConversation(ctx context.Context, userID, chatID int64, limit int) ([]domain.Conversation, error) {
	if !o.store.Connected() {
		return nil, ErrNotConnected
	}
	return o.store.SelectConversations(ctx, userID, chatID, limit)
}

// UpdateConversation applies fields to conversations matching where,
// stamping updated_at.
func (o *Orchestrator) UpdateConversation(ctx context.Context, fields, where map[string]any) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	merged := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["updated_at"] = normalize.Timestamp(0)
	return o.Update(ctx, TableConversation, merged, where)
}

//
// conversion helpers
//

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func i64Ptr(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func userID(u *telegram.User) *int64 {
	if u == nil {
		return nil
	}
	return &u.ID
}

func chatIDPtr(c *telegram.Chat) *int64 {
	if c == nil {
		return nil
	}
	return &c.ID
}

// domainUser converts an event user into its persistence shape with both
// timestamps set to date; the store's upsert keeps the original created_at
// for existing rows.
func domainUser(u *telegram.User, date time.Time) *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:           u.ID,
		IsBot:        u.IsBot,
		Username:     strPtr(u.Username),
		FirstName:    u.FirstName,
		LastName:     strPtr(u.LastName),
		LanguageCode: strPtr(u.LanguageCode),
		CreatedAt:    date,
		UpdatedAt:    date,
	}
}

// locationJSON serializes a location to its stored JSON form.
func locationJSON(l *telegram.Location) *string {
	if l == nil {
		return nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil
	}
	out := string(b)
	return &out
}

// stringify renders a payload value (string or JSON number) as the stored
// string form, nil when absent.
func stringify(v any) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return &t
	case int64:
		s := strconv.FormatInt(t, 10)
		return &s
	case int:
		s := strconv.Itoa(t)
		return &s
	case float64:
		s := strconv.FormatInt(int64(t), 10)
		return &s
	default:
		return nil
	}
}
