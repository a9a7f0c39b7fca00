package store

import (
	"context"
	"testing"

	"github.com/socia-app/relay/internal/domain"
)

func TestSQLite_AppendSystemMessage(t *testing.T) {
	st, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	msg := domain.Message{
		Sender:          domain.UserRef{ID: "u1"},
		Chat:            domain.ChatRef{ID: "c1"},
		Content:         "📞 Call (2:05)",
		IsSystemMessage: true,
		CallInfo:        &domain.CallInfo{Type: domain.CallAudio, Duration: 125},
	}
	if err := st.AppendSystemMessage(context.Background(), msg); err != nil {
		t.Fatalf("AppendSystemMessage() error = %v", err)
	}

	var recs []messageRecord
	if err := st.db.Find(&recs).Error; err != nil {
		t.Fatalf("query records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("stored records = %d, want 1", len(recs))
	}
	rec := recs[0]
	if rec.SenderID != "u1" || rec.ChatID != "c1" || !rec.System {
		t.Errorf("record = %+v, want sender u1 chat c1 system", rec)
	}
	if rec.CallType != "audio" || rec.CallDuration != 125 {
		t.Errorf("call info = %s/%d, want audio/125", rec.CallType, rec.CallDuration)
	}
}

func TestSQLite_AppendWithoutCallInfo(t *testing.T) {
	st, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	msg := domain.Message{
		Sender:          domain.UserRef{ID: "u1"},
		Chat:            domain.ChatRef{ID: "c1"},
		Content:         "no call info",
		IsSystemMessage: true,
	}
	if err := st.AppendSystemMessage(context.Background(), msg); err != nil {
		t.Fatalf("AppendSystemMessage() error = %v", err)
	}
}
