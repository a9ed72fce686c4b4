package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_Families(t *testing.T) {
	for _, c := range AllCategories {
		assert.True(t, c.IsValid(), c)
		assert.NotEmpty(t, c.Family(), c)
	}

	assert.Equal(t, FamilySupport, CategorySupportRefund.Family())
	assert.Equal(t, FamilyPresales, CategoryPresalesTeam.Family())
	assert.Equal(t, FamilyNoise, CategorySpam.Family())
	assert.Equal(t, FamilyUnknown, Category("bogus").Family())
	assert.False(t, Category("bogus").IsValid())
}

func TestCategory_NeverAutoSend(t *testing.T) {
	assert.ElementsMatch(t,
		[]Category{CategorySupportRefund, CategorySupportTransfer, CategorySupportBilling},
		NeverAutoSendCategories())

	assert.False(t, CategorySupportAccess.NeverAutoSend())
	assert.False(t, CategoryUnknown.NeverAutoSend())
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("support_transfer")
	require.NoError(t, err)
	assert.Equal(t, CategorySupportTransfer, c)

	c, err = ParseCategory("refunds")
	require.Error(t, err)
	assert.Equal(t, CategoryUnknown, c)
}

func TestAction_EscalationRank(t *testing.T) {
	ordered := []Action{ActionSilence, ActionRespond, ActionSupportTeammate, ActionEscalateInstructor, ActionEscalateUrgent}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].EscalationRank(), ordered[i].EscalationRank())
	}
	assert.Equal(t, -1, Action("shrug").EscalationRank())

	_, err := ParseAction("shrug")
	assert.Error(t, err)
	a, err := ParseAction("escalate_urgent")
	require.NoError(t, err)
	assert.Equal(t, ActionEscalateUrgent, a)
}
