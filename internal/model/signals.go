package model

// ThreadSignals is a derived snapshot of a thread. It is a pure function of the
// thread it was computed from and carries no hidden state.
type ThreadSignals struct {
	TriggerText string `json:"trigger_text"`
	Subject     string `json:"subject,omitempty"`

	ThreadLength     int `json:"thread_length"`
	InboundCount     int `json:"inbound_count"`
	OutboundCount    int `json:"outbound_count"`
	TriggerWordCount int `json:"trigger_word_count"`

	Bidirectional       bool `json:"bidirectional"`
	TeammateEngaged     bool `json:"teammate_engaged"`
	HasQuestion         bool `json:"has_question"`
	HasThankYou         bool `json:"has_thank_you"`
	HasResolutionPhrase bool `json:"has_resolution_phrase"`
	IsAcknowledgement   bool `json:"is_acknowledgement"`
	HasUrgency          bool `json:"has_urgency"`
	HasRefundIntent     bool `json:"has_refund_intent"`
	HasTransferIntent   bool `json:"has_transfer_intent"`
	HasBillingIntent    bool `json:"has_billing_intent"`
	HasAccessIssue      bool `json:"has_access_issue"`
	HasTechnicalIssue   bool `json:"has_technical_issue"`
	HasPresalesQuestion bool `json:"has_presales_question"`
	HasTeamInquiry      bool `json:"has_team_inquiry"`
	HasConsultInquiry   bool `json:"has_consult_inquiry"`
	HasFanMail          bool `json:"has_fan_mail"`
	LooksLikeSpam       bool `json:"looks_like_spam"`
	LooksAutomated      bool `json:"looks_automated"`
}
