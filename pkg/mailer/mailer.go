package mailer

import (
	"log"
)

// Template names rendered by the (out of scope) email collaborator.
const (
	TplBusinessNewLead          = "business_new_lead"
	TplConsumerLeadConfirmation = "consumer_lead_confirmation"
	TplConsumerOnTheWay         = "consumer_on_the_way"
	TplBusinessLeadUnlocked     = "business_lead_unlocked"
	TplReferrerLeadUnlocked     = "referrer_lead_unlocked"
	TplReferrerEarningAvailable = "referrer_earning_available"
	TplReferrerReviewRequest    = "referrer_review_request"
	TplBusinessDisputeRaised    = "business_dispute_raised"
	TplDisputeResolvedBusiness  = "dispute_resolved_business"
	TplDisputeResolvedReferrer  = "dispute_resolved_referrer"
	TplReferrerPayoutProcessed  = "referrer_payout_processed"
)

// Sender delivers a templated email. Implementations must never panic into
// the caller; send failures are the implementation's problem to log. Callers
// treat every send as fire-and-forget.
type Sender interface {
	Send(template, recipient string, params map[string]interface{}) error
}

// LogSender is the development sender; it only logs.
type LogSender struct{}

func (LogSender) Send(template, recipient string, params map[string]interface{}) error {
	log.Printf("[mailer] %s -> %s %v", template, recipient, params)
	return nil
}
