package handler

import (
	"testing"

	"traderefer/internal/domain"
	"traderefer/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMasking(t *testing.T) {
	assert.Equal(t, "0411****89", maskPhone("0411223389"))
	assert.Equal(t, "****", maskPhone("123"))
	assert.Equal(t, "sa***@example.com", maskEmail("sam@example.com"))
	assert.Equal(t, "***", maskEmail("a@b"))
	assert.Equal(t, "Sam ***", maskName("Sam Consumer"))
	assert.Equal(t, "Sam ***", maskName("Sam"))
}

func TestLeadViewMasksUntilUnlocked(t *testing.T) {
	lead := &models.Lead{
		ConsumerName:  "Sam Consumer",
		ConsumerPhone: "0411223389",
		ConsumerEmail: "sam@example.com",
		Status:        domain.LeadStatusVerified,
	}
	view := leadView(lead)
	assert.Equal(t, "Sam ***", view["consumer_name"])
	assert.Equal(t, "0411****89", view["consumer_phone"])

	lead.Status = domain.LeadStatusUnlocked
	view = leadView(lead)
	assert.Equal(t, "Sam Consumer", view["consumer_name"])
	assert.Equal(t, "0411223389", view["consumer_phone"])
	assert.Equal(t, "sam@example.com", view["consumer_email"])
}
