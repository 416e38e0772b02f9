package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func keys(t *testing.T, v interface{}) map[string]json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return out
}

func TestWireKeys(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
		want []string
	}{
		{
			"direct message",
			&Message{ID: "m1", Sender: "alice", Receiver: "bob", Text: "hi", Timestamp: time.Now()},
			[]string{"id", "senderUsername", "receiverUsername", "messageText", "file", "timestamp"},
		},
		{
			"group message",
			&Message{ID: "m2", Sender: "alice", GroupID: "g1", File: &File{URL: "/u/a", Name: "a", Type: "text/plain", Size: 1}},
			[]string{"senderUsername", "groupId", "file"},
		},
		{
			"upload result",
			UploadResult{FileURL: "/u/a", FileName: "a", FileType: "text/plain", FileSize: 1},
			[]string{"fileUrl", "fileName", "fileType", "fileSize"},
		},
		{
			"message deleted",
			&MessageDeletedOut{Type: MsgTypeMessageDeleted, MessageID: "m1"},
			[]string{"type", "messageId"},
		},
		{
			"typing",
			&TypingOut{Type: MsgTypeTyping, Sender: "alice", GroupID: "g1"},
			[]string{"type", "sender", "groupId"},
		},
		{
			"add members",
			&AddMembersRequest{NewMembers: []string{"carol"}},
			[]string{"newMembers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keys(t, tt.v)
			for _, k := range tt.want {
				if _, ok := got[k]; !ok {
					t.Errorf("missing key %q in %v", k, got)
				}
			}
		})
	}
}

func TestSendRequestsDecode(t *testing.T) {
	var direct SendDirectRequest
	body := `{"receiverUsername":"bob","messageText":"hi","file":{"url":"/u/a","name":"a","type":"text/plain","size":3}}`
	if err := json.Unmarshal([]byte(body), &direct); err != nil {
		t.Fatal(err)
	}
	if direct.Receiver != "bob" || direct.Text != "hi" || direct.File == nil || direct.File.Size != 3 {
		t.Errorf("direct = %+v", direct)
	}

	var grp SendGroupRequest
	if err := json.Unmarshal([]byte(`{"groupId":"g1","messageText":"hey"}`), &grp); err != nil {
		t.Fatal(err)
	}
	if grp.GroupID != "g1" || grp.Text != "hey" {
		t.Errorf("group = %+v", grp)
	}
}

func TestEventDecodesEveryServerMessage(t *testing.T) {
	msg := &Message{ID: "m1", Sender: "alice", Receiver: "bob", Text: "hi"}
	tests := []struct {
		name  string
		v     interface{}
		check func(t *testing.T, ev Event)
	}{
		{"receive", &ReceiveMessageOut{Type: MsgTypeReceiveMessage, Message: msg}, func(t *testing.T, ev Event) {
			if ev.Message == nil || ev.Message.Sender != "alice" || ev.Message.Text != "hi" {
				t.Errorf("message = %+v", ev.Message)
			}
		}},
		{"deleted", &MessageDeletedOut{Type: MsgTypeMessageDeleted, MessageID: "m1"}, func(t *testing.T, ev Event) {
			if ev.MessageID != "m1" {
				t.Errorf("messageId = %q", ev.MessageID)
			}
		}},
		{"typing", &TypingOut{Type: MsgTypeTyping, Sender: "bob", Receiver: "alice"}, func(t *testing.T, ev Event) {
			if ev.Sender != "bob" || ev.Receiver != "alice" {
				t.Errorf("typing = %+v", ev)
			}
		}},
		{"error", NewErrorMessage(ErrCodeForbidden, "only the sender can delete this message"), func(t *testing.T, ev Event) {
			if ev.Code != ErrCodeForbidden || ev.Error == "" || ev.Message != nil {
				t.Errorf("error event = %+v", ev)
			}
		}},
		{"pong", &PongOut{Type: MsgTypePong}, func(t *testing.T, ev Event) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatal(err)
			}
			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("decode %s: %v", data, err)
			}
			tt.check(t, ev)
		})
	}
}
