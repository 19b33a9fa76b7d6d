package domain

import "github.com/google/uuid"

// Role is a member's permission level inside an organization
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleEditor Role = "EDITOR"
	RoleViewer Role = "VIEWER"
)

// CanWrite reports whether the role may mutate boards, tasks and comments
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleEditor
}

// Organization groups projects and members
type Organization struct {
	BaseModel
	Name    string               `gorm:"type:varchar(255);not null" json:"name"`
	Members []OrganizationMember `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (Organization) TableName() string {
	return "organizations"
}

// OrganizationMember links a user to an organization
type OrganizationMember struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_org_members_org_user" json:"organizationId"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_org_members_org_user;index:idx_org_members_user_id" json:"userId"`
	Role           Role      `gorm:"type:varchar(20);not null;default:'EDITOR'" json:"role"`
}

func (OrganizationMember) TableName() string {
	return "organization_members"
}

// Project belongs to an organization and owns boards
type Project struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_projects_organization_id" json:"organizationId"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Boards         []Board   `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"boards,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}
