package models

// DealStatus константы статусов сделок
const (
	DealStatusCreated    = "created"
	DealStatusFunded     = "funded"
	DealStatusInProgress = "in_progress"
	DealStatusDelivered  = "delivered"
	DealStatusCompleted  = "completed"
	DealStatusDisputed   = "disputed"
	DealStatusCancelled  = "cancelled"
	DealStatusRefunded   = "refunded"
)

// DealAction константы действий участников над сделкой
const (
	DealActionFund            = "fund"
	DealActionStartWork       = "start_work"
	DealActionDeliver         = "deliver"
	DealActionApprove         = "approve"
	DealActionRequestRevision = "request_revision"
	DealActionDispute         = "dispute"
	DealActionDelete          = "delete"
)

// AdminAction константы административных действий
const (
	AdminActionForceComplete = "force_complete"
	AdminActionCancelDeal    = "cancel_deal"
)

// Role константы ролей пользователей
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// FeePayer константы плательщика комиссии
const (
	FeePayerClient     = "client"
	FeePayerFreelancer = "freelancer"
	FeePayerSplit      = "split"
)

// DisputeDecision константы решений администратора по спору
const (
	DecisionReleaseToFreelancer = "release_to_freelancer"
	DecisionFullRefund          = "full_refund"
)

// MaxRevisions предельное число запросов доработки по одной сделке.
const MaxRevisions = 3

// ValidDealActions список валидных действий над сделкой
var ValidDealActions = map[string]struct{}{
	DealActionFund:            {},
	DealActionStartWork:       {},
	DealActionDeliver:         {},
	DealActionApprove:         {},
	DealActionRequestRevision: {},
	DealActionDispute:         {},
	DealActionDelete:          {},
}

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleClient:     {},
	RoleFreelancer: {},
	RoleAdmin:      {},
}

// ValidFeePayers список валидных значений плательщика комиссии
var ValidFeePayers = map[string]struct{}{
	FeePayerClient:     {},
	FeePayerFreelancer: {},
	FeePayerSplit:      {},
}

// ValidDecisions список валидных решений по спору
var ValidDecisions = map[string]struct{}{
	DecisionReleaseToFreelancer: {},
	DecisionFullRefund:          {},
}
