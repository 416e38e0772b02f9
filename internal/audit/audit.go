package audit

import (
	"context"

	"github.com/weiawesome/duochat/pkg/log"
)

const (
	ActionRegister      = "user.register"
	ActionLogin         = "user.login"
	ActionLoginFailed   = "user.login_failed"
	ActionUpdateProfile = "user.update_profile"
	ActionSendMessage   = "chat.send_message"
	ActionDeleteMessage = "chat.delete_message"
	ActionCreateGroup   = "group.create"
	ActionAddMembers    = "group.add_members"
	ActionUpload        = "file.upload"
	ActionConnect       = "ws.connect"
	ActionDisconnect    = "ws.disconnect"
)

const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, username, targetID, msg string) {
	l := log.Ctx(ctx)
	evt := l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username)
	if targetID != "" {
		evt = evt.Str(FieldTargetID, targetID)
	}
	evt.Msg(msg)
}

// LogWithDetail is Log with an extra free-form detail field.
func LogWithDetail(ctx context.Context, action, username, targetID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username).
		Str(FieldTargetID, targetID).
		Str(FieldDetail, detail).
		Msg(msg)
}
