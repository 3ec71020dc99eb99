package models

import "time"

// Role is the authorization level carried in a user's token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// VoteType is the direction of a stored vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Vote is one entry of a user's vote ledger. A user holds at most one vote per
// product; relational stores enforce it with the idx_user_product unique index.
type Vote struct {
	ID        uint      `json:"-" bson:"-" gorm:"primaryKey"`
	UserID    string    `json:"-" bson:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_user_product"`
	ProductID string    `json:"productId" bson:"productId" gorm:"type:varchar(36);not null;uniqueIndex:idx_user_product"`
	VoteType  VoteType  `json:"voteType" bson:"voteType" gorm:"type:varchar(8);not null"`
	CreatedAt time.Time `json:"-" bson:"-"`
}

// TableName keeps the ledger table name explicit.
func (Vote) TableName() string { return "user_votes" }

// User represents an OnlyFails account.
type User struct {
	ID           string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Username     string    `json:"username" bson:"username" gorm:"uniqueIndex;type:varchar(30);not null"`
	Email        string    `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(50);not null"`
	Password     string    `json:"-" bson:"password" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialised
	Role         Role      `json:"role" bson:"role" gorm:"type:varchar(10);index;not null;default:user"`
	IsBanned     bool      `json:"isBanned" bson:"isBanned" gorm:"not null;default:false"`
	Votes        []Vote    `json:"votes" bson:"votes" gorm:"foreignKey:UserID"`
	RegisterDate time.Time `json:"registerDate" bson:"registerDate" gorm:"not null"`
}

// HasVotedOn reports whether the ledger already holds a vote for productID.
func (u *User) HasVotedOn(productID string) bool {
	for _, v := range u.Votes {
		if v.ProductID == productID {
			return true
		}
	}
	return false
}
