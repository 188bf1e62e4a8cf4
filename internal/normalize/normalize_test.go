package normalize

import (
	"testing"
	"time"

	"github.com/tbourn/go-telegram-store/internal/telegram"
)

func TestTimestamp_ZeroMeansNow(t *testing.T) {
	before := time.Now().UTC().Add(-2 * time.Second)
	got := Timestamp(0)
	after := time.Now().UTC().Add(2 * time.Second)
	if got.Before(before) || got.After(after) {
		t.Fatalf("Timestamp(0) = %v, not near now", got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}
	if got.Nanosecond() != 0 {
		t.Fatalf("expected second precision, got %dns", got.Nanosecond())
	}
}

func TestTimestamp_ConvertsEpoch(t *testing.T) {
	got := Timestamp(1441645532)
	want := time.Date(2015, 9, 7, 17, 5, 32, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Timestamp = %v, want %v", got, want)
	}
}

func TestEntityListJSON(t *testing.T) {
	if got := EntityListJSON[telegram.MessageEntity](nil); got != nil {
		t.Fatalf("nil list should serialize to nil, got %q", *got)
	}
	if got := EntityListJSON([]telegram.MessageEntity{}); got != nil {
		t.Fatalf("empty list should serialize to nil, got %q", *got)
	}
	got := EntityListJSON([]telegram.MessageEntity{{Type: "bold", Offset: 0, Length: 5}})
	if got == nil {
		t.Fatal("expected serialized entities")
	}
	want := `[{"type":"bold","offset":0,"length":5}]`
	if *got != want {
		t.Fatalf("serialized = %s, want %s", *got, want)
	}
}

func TestResolveChatMigration_Passthrough(t *testing.T) {
	chat := &telegram.Chat{ID: 10, Type: "group"}
	id, oldID, typ := ResolveChatMigration(chat, 0)
	if id != 10 || oldID != nil || typ != "group" {
		t.Fatalf("passthrough broken: id=%d oldID=%v type=%s", id, oldID, typ)
	}
}

func TestResolveChatMigration_Rekeys(t *testing.T) {
	chat := &telegram.Chat{ID: 10, Type: "group"}
	id, oldID, typ := ResolveChatMigration(chat, -100500)
	if id != -100500 {
		t.Fatalf("id = %d, want migration target", id)
	}
	if oldID == nil || *oldID != 10 {
		t.Fatalf("oldID = %v, want original id", oldID)
	}
	if typ != "supergroup" {
		t.Fatalf("type = %s, want supergroup", typ)
	}
}

func TestJoinMemberIDs(t *testing.T) {
	if JoinMemberIDs(nil) != nil {
		t.Fatal("nil members should join to nil")
	}
	got := JoinMemberIDs([]telegram.User{{ID: 1}, {ID: 22}, {ID: 333}})
	if got == nil || *got != "1,22,333" {
		t.Fatalf("JoinMemberIDs = %v", got)
	}
}

func TestFoldText(t *testing.T) {
	if FoldText("Straße") != FoldText("STRASSE") {
		t.Fatal("case folding should equate ß and SS")
	}
	if FoldText("MyChat") != "mychat" {
		t.Fatalf("FoldText(MyChat) = %q", FoldText("MyChat"))
	}
}
