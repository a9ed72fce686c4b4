package correction

import (
	"testing"
	"time"

	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestCapturer(t *testing.T) *Capturer {
	t.Helper()
	c, err := NewCapturer(DefaultConfig(),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "corr-1" }))
	require.NoError(t, err)
	return c
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "hello", b: "hello", want: 0},
		{name: "case and whitespace only", a: "Hello   there\n", b: "  hello there", want: 0},
		{name: "both empty", a: "", b: "  ", want: 0},
		{name: "one of ten", a: "abcdefghij", b: "abcdefghiX", want: 0.1},
		{name: "fully different", a: "abc", b: "xyz", want: 1},
		{name: "against empty", a: "abc", b: "", want: 1},
		{name: "runes not bytes", a: "café", b: "cafe", want: 0.25},
		{name: "punctuation on a short draft", a: "Hi", b: "Hi!", want: 0},
		{name: "punctuation swap", a: "Thanks.", b: "Thanks!", want: 0},
		{name: "punctuation only", a: "!!", b: "?", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EditDistance(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCapturer_DraftEdit(t *testing.T) {
	tests := []struct {
		name         string
		draft        string
		sent         string
		wantSeverity model.Severity
		wantCaptured bool
	}{
		{
			name:  "punctuation fix is not meaningful",
			draft: "Hi there, thanks for reaching out. Your login link is on its way.",
			sent:  "Hi there, thanks for reaching out! Your login link is on its way.",
		},
		{name: "punctuation on a short draft", draft: "Hi", sent: "Hi!"},
		{
			name:  "reformatting is not meaningful",
			draft: "Hi there,\n\nThanks for reaching out.",
			sent:  "hi there, thanks for reaching out.",
		},
		{name: "exactly at threshold", draft: "abcdefghij", sent: "abcdefghiX", wantCaptured: true, wantSeverity: model.SeverityMinor},
		{name: "lower moderate boundary", draft: "abcdefghij", sent: "abcdefghXY", wantCaptured: true, wantSeverity: model.SeverityModerate},
		{name: "moderate", draft: "abcdefghij", sent: "abcdeXYZij", wantCaptured: true, wantSeverity: model.SeverityModerate},
		{name: "upper moderate boundary", draft: "abcdefghij", sent: "abcdeVWXYZ", wantCaptured: true, wantSeverity: model.SeverityModerate},
		{
			name:         "rewrite is major",
			draft:        "Thanks for reaching out. You can reset your password from the login page.",
			sent:         "Sorry about that! I've issued a full refund; it should land in 5-7 days.",
			wantCaptured: true,
			wantSeverity: model.SeverityMajor,
		},
	}

	c := newTestCapturer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corr, ok := c.DraftEdit(DraftEditInput{
				AppID:          "app",
				ConversationID: "conv",
				Category:       model.CategorySupportAccess,
				Draft:          tt.draft,
				Sent:           tt.sent,
			})
			assert.Equal(t, tt.wantCaptured, ok)
			if !tt.wantCaptured {
				assert.Nil(t, corr)
				return
			}
			require.NotNil(t, corr)
			assert.Equal(t, tt.wantSeverity, corr.Severity)
			assert.Equal(t, model.CorrectionDraftEdit, corr.Type)
			assert.Equal(t, "corr-1", corr.ID)
			assert.Equal(t, fixedNow, corr.CreatedAt)
			assert.Equal(t, model.CategorySupportAccess, corr.Category)
			assert.Equal(t, tt.draft, corr.Draft)
			assert.Equal(t, tt.sent, corr.Sent)
			assert.Greater(t, corr.EditDistance, 0.0)
		})
	}
}

func TestCapturer_DraftEditRejectsBadInput(t *testing.T) {
	c := newTestCapturer(t)

	_, ok := c.DraftEdit(DraftEditInput{Category: model.CategorySupportAccess, Draft: "a", Sent: "b"})
	assert.False(t, ok, "missing app")

	_, ok = c.DraftEdit(DraftEditInput{AppID: "app", Category: "bogus", Draft: "a", Sent: "b"})
	assert.False(t, ok, "unknown category")
}

func TestCapturer_Reclassification(t *testing.T) {
	tests := []struct {
		name         string
		from         model.Category
		to           model.Category
		wantSeverity model.Severity
		confidence   float64
		wantCaptured bool
	}{
		{name: "same category", from: model.CategorySupportAccess, to: model.CategorySupportAccess, confidence: 0.9},
		{name: "cross family, confident", from: model.CategoryFanMail, to: model.CategorySupportRefund, confidence: 0.9, wantCaptured: true, wantSeverity: model.SeverityMajor},
		{name: "cross family at boundary", from: model.CategoryPresalesFAQ, to: model.CategorySpam, confidence: 0.75, wantCaptured: true, wantSeverity: model.SeverityMajor},
		{name: "cross family, unsure", from: model.CategoryPresalesFAQ, to: model.CategorySupportAccess, confidence: 0.6, wantCaptured: true, wantSeverity: model.SeverityModerate},
		{name: "same family, unsure", from: model.CategorySupportAccess, to: model.CategorySupportTechnical, confidence: 0.6, wantCaptured: true, wantSeverity: model.SeverityMinor},
		{name: "same family, confident", from: model.CategorySupportAccess, to: model.CategorySupportTechnical, confidence: 0.9, wantCaptured: true, wantSeverity: model.SeverityModerate},
		{name: "invalid target", from: model.CategorySupportAccess, to: "bogus", confidence: 0.9},
	}

	c := newTestCapturer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corr, ok := c.Reclassification(ReclassificationInput{
				AppID:          "app",
				ConversationID: "conv",
				From:           tt.from,
				To:             tt.to,
				Confidence:     tt.confidence,
			})
			assert.Equal(t, tt.wantCaptured, ok)
			if !tt.wantCaptured {
				return
			}
			require.NotNil(t, corr)
			assert.Equal(t, tt.wantSeverity, corr.Severity)
			assert.Equal(t, tt.from, corr.Category, "trust of the predicted category erodes")
			assert.Equal(t, tt.from, corr.FromCategory)
			assert.Equal(t, tt.to, corr.ToCategory)
			assert.Equal(t, tt.confidence, corr.OriginalConfidence)
		})
	}
}

func TestCapturer_EscalationOverride(t *testing.T) {
	tests := []struct {
		name         string
		from         model.Action
		to           model.Action
		wantSeverity model.Severity
		wantCaptured bool
	}{
		{name: "same action", from: model.ActionRespond, to: model.ActionRespond},
		{name: "under by one", from: model.ActionRespond, to: model.ActionSupportTeammate, wantCaptured: true, wantSeverity: model.SeverityModerate},
		{name: "under by two", from: model.ActionRespond, to: model.ActionEscalateInstructor, wantCaptured: true, wantSeverity: model.SeverityMajor},
		{name: "under by four", from: model.ActionSilence, to: model.ActionEscalateUrgent, wantCaptured: true, wantSeverity: model.SeverityMajor},
		{name: "over by one", from: model.ActionSupportTeammate, to: model.ActionRespond, wantCaptured: true, wantSeverity: model.SeverityMinor},
		{name: "over by two", from: model.ActionEscalateInstructor, to: model.ActionRespond, wantCaptured: true, wantSeverity: model.SeverityModerate},
		{name: "over by three", from: model.ActionEscalateUrgent, to: model.ActionRespond, wantCaptured: true, wantSeverity: model.SeverityMajor},
		{name: "invalid action", from: "shrug", to: model.ActionRespond},
	}

	c := newTestCapturer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corr, ok := c.EscalationOverride(EscalationOverrideInput{
				AppID:    "app",
				Category: model.CategorySupportTechnical,
				From:     tt.from,
				To:       tt.to,
			})
			assert.Equal(t, tt.wantCaptured, ok)
			if !tt.wantCaptured {
				return
			}
			require.NotNil(t, corr)
			assert.Equal(t, tt.wantSeverity, corr.Severity)
			assert.Equal(t, model.CorrectionEscalationOverride, corr.Type)
			assert.Equal(t, tt.from, corr.FromAction)
			assert.Equal(t, tt.to, corr.ToAction)
		})
	}
}

func TestCapturer_UnderEscalationOutweighsOver(t *testing.T) {
	c := newTestCapturer(t)
	rank := map[model.Severity]int{model.SeverityMinor: 0, model.SeverityModerate: 1, model.SeverityMajor: 2}

	under, ok := c.EscalationOverride(EscalationOverrideInput{AppID: "app", From: model.ActionRespond, To: model.ActionSupportTeammate})
	require.True(t, ok)
	over, ok := c.EscalationOverride(EscalationOverrideInput{AppID: "app", From: model.ActionSupportTeammate, To: model.ActionRespond})
	require.True(t, ok)

	assert.Greater(t, rank[under.Severity], rank[over.Severity])
	assert.Equal(t, model.CategoryUnknown, under.Category)
}

func TestCapturer_CompareAndCapture(t *testing.T) {
	c := newTestCapturer(t)

	t.Run("no stored draft", func(t *testing.T) {
		got := c.CompareAndCapture(CompareInput{AppID: "app", Category: model.CategorySupportAccess, Sent: "anything"})
		assert.False(t, got.Captured)
		assert.Nil(t, got.Correction)
	})

	t.Run("trivial edit", func(t *testing.T) {
		got := c.CompareAndCapture(CompareInput{
			AppID:    "app",
			Category: model.CategorySupportAccess,
			Draft:    "Here is your new login link.",
			Sent:     "Here is your new login link!",
		})
		assert.False(t, got.Captured)
	})

	t.Run("rewrite", func(t *testing.T) {
		got := c.CompareAndCapture(CompareInput{
			AppID:          "app",
			ConversationID: "conv",
			Category:       model.CategorySupportAccess,
			Draft:          "Here is your new login link.",
			Sent:           "Our team is looking into the outage and will follow up today.",
		})
		require.True(t, got.Captured)
		require.NotNil(t, got.Correction)
		assert.Equal(t, model.SeverityMajor, got.Correction.Severity)
		assert.Equal(t, model.OutcomeSentWithMajorEdit, got.Correction.Outcome())
	})
}

func TestNewCapturer_Validation(t *testing.T) {
	_, err := NewCapturer(Config{EditThreshold: 0.1, MinorEditBelow: 0.6, MajorEditAbove: 0.5})
	assert.Error(t, err)

	_, err = NewCapturer(Config{EditThreshold: 2})
	assert.Error(t, err)

	c, err := NewCapturer(DefaultConfig())
	require.NoError(t, err)
	corr, ok := c.Reclassification(ReclassificationInput{AppID: "app", From: model.CategorySpam, To: model.CategoryFanMail, Confidence: 0.9})
	require.True(t, ok)
	assert.Len(t, corr.ID, 36, "uuid")
}

func TestCompareAndCapture_SendIDNamesCorrection(t *testing.T) {
	c := newTestCapturer(t)
	in := CompareInput{
		AppID: "app", ConversationID: "c1", Category: model.CategorySupportTechnical,
		Draft:  "Please clear your browser cache and reload the lesson.",
		Sent:   "Our team is looking into the outage and will follow up today.",
		SendID: "s-1",
	}

	first := c.CompareAndCapture(in)
	second := c.CompareAndCapture(in)
	require.True(t, first.Captured)
	require.True(t, second.Captured)
	assert.Equal(t, first.Correction.ID, second.Correction.ID)
	assert.Equal(t, SendCorrectionID("app", "s-1"), first.Correction.ID)
	assert.NotEqual(t, SendCorrectionID("other-app", "s-1"), first.Correction.ID)

	in.SendID = ""
	assert.Equal(t, "corr-1", c.CompareAndCapture(in).Correction.ID)
}

