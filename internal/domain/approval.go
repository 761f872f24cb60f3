package domain

// ApprovalStatus is the state of a human review.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ApprovalPayload is echoed back unchanged whatever the decision.
type ApprovalPayload struct {
	Title  string `json:"news_title"`
	URL    string `json:"news_url"`
	Drafts Drafts `json:"drafts"`
}

// ApprovalDecision is the handshake value between the coordinator and a reviewer.
type ApprovalDecision struct {
	Status  ApprovalStatus  `json:"status"`
	Payload ApprovalPayload `json:"payload"`
}

// Decide returns a copy of d carrying the final status and the original payload.
func (d ApprovalDecision) Decide(approved bool) ApprovalDecision {
	status := ApprovalRejected
	if approved {
		status = ApprovalApproved
	}
	return ApprovalDecision{Status: status, Payload: d.Payload}
}
