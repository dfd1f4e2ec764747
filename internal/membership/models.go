package membership

import "time"

// Role is a user's capability level within one team.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

// CanRead reports whether the role may read team documents. All roles can.
func (r Role) CanRead() bool {
	return r == RoleAdmin || r == RoleMember || r == RoleViewer
}

// CanWrite reports whether the role may create, edit and lock documents.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleMember
}

// SubscriptionPlan mirrors the team billing tiers.
type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "FREE"
	PlanPro        SubscriptionPlan = "PRO"
	PlanEnterprise SubscriptionPlan = "ENTERPRISE"
)

// Member is one (team, user, role) membership fact.
type Member struct {
	UserID string `json:"userId" bson:"userId"`
	Role   Role   `json:"role" bson:"role"`
}

// Team owns documents and meetings; they cannot outlive it.
type Team struct {
	ID          string           `json:"id" bson:"id"`
	Name        string           `json:"name" bson:"name"`
	Description string           `json:"description,omitempty" bson:"description,omitempty"`
	OwnerID     string           `json:"ownerId" bson:"ownerId"`
	Plan        SubscriptionPlan `json:"subscriptionPlan" bson:"subscriptionPlan"`
	Active      bool             `json:"isActive" bson:"isActive"`
	Members     []Member         `json:"members" bson:"members"`
	CreatedAt   time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// RoleOf resolves a user's role on this team. The owner is always Admin,
// whether or not they appear in the member list.
func (t *Team) RoleOf(userID string) (Role, bool) {
	if userID == t.OwnerID {
		return RoleAdmin, true
	}
	for _, m := range t.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}
