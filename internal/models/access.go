package models

import "time"

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	// RequestPending means the request awaits an admin decision.
	RequestPending RequestStatus = "pending"
	// RequestApproved means an admin approved the request. Terminal.
	RequestApproved RequestStatus = "approved"
	// RequestRejected means an admin rejected the request. Terminal.
	RequestRejected RequestStatus = "rejected"
)

// UserStatus is the provisioning state of an access user.
type UserStatus string

const (
	// UserActive means the user's access code is usable.
	UserActive UserStatus = "active"
	// UserDisabled means the user's access is suspended.
	UserDisabled UserStatus = "disabled"
)

// IsTerminal reports whether the request status admits no further decisions.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// ValidRequestStatus reports whether s is a known request status.
func ValidRequestStatus(s string) bool {
	switch RequestStatus(s) {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// ValidUserStatus reports whether s is a known user status.
func ValidUserStatus(s string) bool {
	switch UserStatus(s) {
	case UserActive, UserDisabled:
		return true
	}
	return false
}

// AccessRequest is a pending or decided request for platform access,
// as served by the access service. Field names match the wire format.
type AccessRequest struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Role         string        `json:"role,omitempty"`
	Organization string        `json:"organization,omitempty"`
	Message      string        `json:"message,omitempty"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	DecisionAt   *time.Time    `json:"decision_at,omitempty"`
	DecisionBy   string        `json:"decision_by,omitempty"`
	DecisionNote string        `json:"decision_note,omitempty"`
	RequesterIP  string        `json:"requester_ip,omitempty"`
	UserAgent    string        `json:"user_agent,omitempty"`
}

// Decided reports whether the request carries a recorded decision.
func (r *AccessRequest) Decided() bool {
	return r.Status.IsTerminal() && r.DecisionAt != nil
}

// AccessUser is a provisioned user created by approving a request.
// AccessCode is minted once by the access service and never regenerated.
type AccessUser struct {
	ID           string     `json:"id"`
	RequestID    string     `json:"request_id,omitempty"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role,omitempty"`
	Organization string     `json:"organization,omitempty"`
	Status       UserStatus `json:"status"`
	AccessCode   string     `json:"access_code"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
	DisabledAt   *time.Time `json:"disabled_at,omitempty"`
	ApprovedBy   string     `json:"approved_by,omitempty"`
}

// RequestInput carries the visitor-supplied fields of a new access request.
type RequestInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role,omitempty"`
	Organization string `json:"organization,omitempty"`
	Message      string `json:"message,omitempty"`
}

// DecisionInput carries the optional metadata recorded with a decision.
type DecisionInput struct {
	Note      string `json:"note"`
	DecidedBy string `json:"decided_by"`
}

// RequestList is the access service response for a request listing.
type RequestList struct {
	Items []AccessRequest `json:"items"`
	Total int             `json:"total"`
}

// UserList is the access service response for a user listing.
type UserList struct {
	Items []AccessUser `json:"items"`
	Total int          `json:"total"`
}

// DecisionResult pairs the decided request with the user an approval created.
// User is nil for rejections.
type DecisionResult struct {
	Request *AccessRequest `json:"request"`
	User    *AccessUser    `json:"user,omitempty"`
}

// AccessStats are counts derived from a full request listing. They are
// always recomputed from loaded rows, never patched incrementally.
type AccessStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// ComputeStats derives per-status counts from a loaded request collection.
func ComputeStats(items []AccessRequest) AccessStats {
	stats := AccessStats{Total: len(items)}
	for i := range items {
		switch items[i].Status {
		case RequestPending:
			stats.Pending++
		case RequestApproved:
			stats.Approved++
		case RequestRejected:
			stats.Rejected++
		}
	}
	return stats
}
