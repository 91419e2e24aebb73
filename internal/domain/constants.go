package domain

const (
	RoleBusiness = "BUSINESS"
	RoleReferrer = "REFERRER"
	RoleAdmin    = "ADMIN"
)

// Lead lifecycle statuses.
const (
	LeadStatusPending     = "PENDING"
	LeadStatusVerified    = "VERIFIED"
	LeadStatusUnlocked    = "UNLOCKED"
	LeadStatusOnTheWay    = "ON_THE_WAY"
	LeadStatusConfirmed   = "CONFIRMED"
	LeadStatusDisputed    = "DISPUTED"
	LeadStatusExpired     = "EXPIRED"
	LeadStatusUnconfirmed = "UNCONFIRMED"
)

const (
	EarningStatusPending   = "PENDING"
	EarningStatusAvailable = "AVAILABLE"
	EarningStatusCancelled = "CANCELLED"
)

const (
	DisputeStatusOpen     = "OPEN"
	DisputeStatusResolved = "RESOLVED"
)

const (
	DisputeOutcomeConfirm = "confirm"
	DisputeOutcomeReject  = "reject"
)

// payment_transactions audit types
const (
	TxTypeLeadUnlock     = "lead_unlock"
	TxTypeReferrerPayout = "referrer_payout"
)

// wallet_transactions types (business wallet history)
const (
	WalletTxTypeUnlockDebit = "UNLOCK_DEBIT"
	WalletTxTypeTopUp       = "TOPUP"
)

const (
	NotifTypeLeadAccepted     = "lead_accepted"
	NotifTypeEarningAvailable = "earning_available"
	NotifTypeLeadUnlocked     = "lead_unlocked"
	NotifTypeDisputeResolved  = "dispute_resolved"
)

// Revenue split applied once at lead creation. The computed cent amounts are
// snapshotted onto the lead row and never re-derived from these percentages.
const (
	PlatformFeePercent    = 20
	ReferrerPayoutPercent = 70
)

// MaxPinAttempts is the number of failed PIN entries before the PIN locks.
const MaxPinAttempts = 3

// Payment provider webhook event accepted by the unlock boundary.
const EventPaymentIntentSucceeded = "payment_intent.succeeded"
