package auth

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScopeAdmin bypasses every scope check.
const (
	ScopeAdmin           = "admin"
	ScopeReadMedicalData = "read:medical_data"
	ScopeReadPatientData = "read:patient_data"
)

// TokenPreviewLen is the number of secret characters ever exposed in listings.
const TokenPreviewLen = 10

// AccessToken is a pre-generated opaque bearer credential stored in Postgres.
// The secret itself is the lookup key; ordinary read endpoints only mutate
// use_count and last_used through the validation side effect.
type AccessToken struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Token       string         `gorm:"uniqueIndex;not null" json:"-"`
	TokenID     string         `gorm:"uniqueIndex;not null;column:token_id" json:"token_id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description,omitempty"`
	Scopes      datatypes.JSON `gorm:"column:scopes" json:"scopes"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	ExpiresAt   *time.Time     `gorm:"column:expires_at" json:"expires_at,omitempty"`
	IsActive    bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	Username    string         `json:"username"`
	FullName    string         `gorm:"column:full_name" json:"full_name"`
	Email       string         `json:"email"`
	UseCount    int64          `gorm:"not null;default:0;column:use_count" json:"use_count"`
	LastUsed    *time.Time     `gorm:"column:last_used" json:"last_used,omitempty"`
	CreatedBy   string         `gorm:"column:created_by" json:"created_by,omitempty"`
}

func (AccessToken) TableName() string { return "access_tokens" }

func (t *AccessToken) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *AccessToken) ScopeList() []string {
	if len(t.Scopes) == 0 {
		return nil
	}
	var scopes []string
	if err := json.Unmarshal(t.Scopes, &scopes); err != nil {
		return nil
	}
	return scopes
}

func (t *AccessToken) SetScopes(scopes []string) error {
	raw, err := json.Marshal(scopes)
	if err != nil {
		return err
	}
	t.Scopes = datatypes.JSON(raw)
	return nil
}

func (t *AccessToken) HasScope(scope string) bool {
	for _, s := range t.ScopeList() {
		if s == scope {
			return true
		}
	}
	return false
}

// Expired compares against now in the stored timestamp's own location.
func (t *AccessToken) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return now.In(t.ExpiresAt.Location()).After(*t.ExpiresAt)
}

// TokenPreview is the only form of the secret allowed in listings.
func (t *AccessToken) TokenPreview() string {
	if len(t.Token) <= TokenPreviewLen {
		return t.Token
	}
	return t.Token[:TokenPreviewLen] + "..."
}
