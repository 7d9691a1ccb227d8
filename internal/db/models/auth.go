package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Identity is an authenticated user as known to the identity provider.
// Created on the first successful magic-link exchange and never modified afterwards.
type Identity struct {
	bun.BaseModel `bun:"table:identities,alias:i"`

	ID        string    `bun:"id,pk,type:varchar(36)"`
	Email     string    `bun:"email,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Profile holds application-level attributes of an identity.
// Provisioned out of band; an identity without a profile is treated as a guest.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:p"`

	ID        string    `bun:"id,pk,type:varchar(36)"` // FK to identities(id)
	Role      string    `bun:"role,notnull,default:'guest'"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session tracks a browser session created by a magic-link exchange
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:sess"`

	ID         string    `bun:"id,pk,type:varchar(36)"`
	IdentityID string    `bun:"identity_id,notnull,type:varchar(36)"` // FK to identities(id)
	TokenHash  string    `bun:"token_hash,notnull,unique"`            // SHA256 hash of the cookie token
	ExpiresAt  time.Time `bun:"expires_at,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	LastUsedAt time.Time `bun:"last_used_at,notnull,default:current_timestamp"`
	UserAgent  *string   `bun:"user_agent"`
	IPAddress  *string   `bun:"ip_address"`
	Revoked    bool      `bun:"revoked,notnull,default:false"`
}

// ConsumedLoginCode records magic-link codes that have been exchanged, by their jti claim.
// A code whose jti is present here cannot be exchanged again.
type ConsumedLoginCode struct {
	bun.BaseModel `bun:"table:consumed_login_codes,alias:clc"`

	JTI        string    `bun:"jti,pk"`
	Email      string    `bun:"email,notnull"`
	Exp        time.Time `bun:"exp,notnull"` // Code expiration time (for cleanup)
	ConsumedAt time.Time `bun:"consumed_at,notnull,default:current_timestamp"`
}
