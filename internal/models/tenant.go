package models

import (
	"strings"
	"time"
)

type Tenant struct {
	ID                 string    `gorm:"primaryKey;type:text;comment:tenant id (uuid)"`
	Email              string    `gorm:"type:text;uniqueIndex;not null;comment:login email"`
	PasswordHash       string    `gorm:"type:text;not null;comment:bcrypt hash" json:"-"`
	ShopName           string    `gorm:"type:text;not null;comment:display name of the shop"`
	ShopifyStoreURL    string    `gorm:"type:text;index;not null;comment:store url, e.g. acme.myshopify.com"`
	ShopifyAccessToken *string   `gorm:"type:text;comment:admin api access token" json:"-"`
	ShopifyAPIKey      *string   `gorm:"type:text;comment:optional api key" json:"-"`
	CreatedAt          time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt          time.Time `gorm:"type:timestamptz;not null"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// HasAccessToken reports whether the tenant can be synced.
func (t *Tenant) HasAccessToken() bool {
	return t != nil && t.ShopifyAccessToken != nil && strings.TrimSpace(*t.ShopifyAccessToken) != ""
}

func (t *Tenant) AccessToken() string {
	if t == nil || t.ShopifyAccessToken == nil {
		return ""
	}
	return strings.TrimSpace(*t.ShopifyAccessToken)
}
