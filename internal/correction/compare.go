package correction

import (
	"github.com/google/uuid"
	"github.com/skillrecordings/support-sub010/internal/model"
)

// CompareInput is what the send webhook reports: the draft the engine stored
// for a conversation, if any, and the message that was actually sent.
type CompareInput struct {
	AppID          string         `json:"app_id"`
	ConversationID string         `json:"conversation_id"`
	Category       model.Category `json:"category"`
	Draft          string         `json:"draft,omitempty"`
	Sent           string         `json:"sent"`
	// SendID identifies the send so a redelivered webhook is applied once.
	SendID string `json:"send_id,omitempty"`
}

// HasDraft reports whether the engine produced a draft for this send.
func (in CompareInput) HasDraft() bool {
	return in.Draft != ""
}

// CaptureResult reports whether a send diverged meaningfully from its draft.
type CaptureResult struct {
	Correction *model.Correction `json:"correction,omitempty"`
	Captured   bool              `json:"captured"`
}

// CompareAndCapture compares a stored draft with the sent message. Sends with
// no stored draft and sends that only differ trivially are not captured.
func (c *Capturer) CompareAndCapture(in CompareInput) CaptureResult {
	if !in.HasDraft() {
		return CaptureResult{}
	}

	corr, ok := c.DraftEdit(DraftEditInput{
		AppID:          in.AppID,
		ConversationID: in.ConversationID,
		Category:       in.Category,
		Draft:          in.Draft,
		Sent:           in.Sent,
	})
	if !ok {
		return CaptureResult{}
	}
	if in.SendID != "" {
		corr.ID = SendCorrectionID(in.AppID, in.SendID)
	}
	return CaptureResult{Captured: true, Correction: corr}
}

// sendNamespace scopes correction IDs derived from send IDs.
var sendNamespace = uuid.MustParse("6f1c2b8e-4d3a-5b7c-9e21-0a8d4f6b3c15")

// SendCorrectionID returns the stable correction ID for a send, so every
// delivery of the same send names the same correction.
func SendCorrectionID(appID, sendID string) string {
	return uuid.NewSHA1(sendNamespace, []byte(appID+"/"+sendID)).String()
}
