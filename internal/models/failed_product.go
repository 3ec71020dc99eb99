package models

import "time"

// Comment is a user remark appended to a failed product.
type Comment struct {
	ID        uint      `json:"-" bson:"-" gorm:"primaryKey"`
	ProductID string    `json:"-" bson:"-" gorm:"type:varchar(36);index;not null"`
	UserID    string    `json:"userId" bson:"userId" gorm:"type:varchar(36);not null"`
	Text      string    `json:"text" bson:"text" gorm:"type:text;not null"`
	Date      time.Time `json:"date" bson:"date" gorm:"not null"`
}

// TableName keeps the comment table name explicit.
func (Comment) TableName() string { return "product_comments" }

// FailedProduct is a catalogued product failure.
type FailedProduct struct {
	ID          string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" bson:"name" gorm:"type:varchar(500);not null"`
	Description string    `json:"description" bson:"description" gorm:"type:varchar(500);not null"`
	DesignedBy  string    `json:"designedBy" bson:"designedBy" gorm:"type:varchar(50);not null"`
	ImageURL    string    `json:"imageURL" bson:"imageURL" gorm:"column:image_url;type:varchar(2048);not null"`
	Category    string    `json:"category" bson:"category" gorm:"type:varchar(100);index;not null"`
	StartDate   time.Time `json:"startDate" bson:"startDate" gorm:"not null"`
	FailureDate time.Time `json:"failureDate" bson:"failureDate" gorm:"not null"`
	Upvotes     int       `json:"upvotes" bson:"upvotes" gorm:"not null;default:0"`
	Downvotes   int       `json:"downvotes" bson:"downvotes" gorm:"not null;default:0"`
	Comments    []Comment `json:"comments" bson:"comments" gorm:"foreignKey:ProductID"`
	CreatedBy   string    `json:"createdBy" bson:"createdBy" gorm:"type:varchar(36);not null"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FailedProductPatch carries the editable fields of a failed product. A nil
// field is left unchanged. CreatedBy, the counters and comments are not
// editable and therefore have no place here.
type FailedProductPatch struct {
	Name        *string
	Description *string
	DesignedBy  *string
	ImageURL    *string
	Category    *string
	StartDate   *time.Time
	FailureDate *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p FailedProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.DesignedBy == nil &&
		p.ImageURL == nil && p.Category == nil && p.StartDate == nil && p.FailureDate == nil
}

// Apply copies the non-nil fields of the patch onto product.
func (p FailedProductPatch) Apply(product *FailedProduct) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.DesignedBy != nil {
		product.DesignedBy = *p.DesignedBy
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.StartDate != nil {
		product.StartDate = *p.StartDate
	}
	if p.FailureDate != nil {
		product.FailureDate = *p.FailureDate
	}
}
