package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a lab account. The lab flags are independent capability bits;
// authorization combines them per route, there is no hierarchy.
type User struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	Email          string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	FullName       *string   `gorm:"size:255" json:"full_name,omitempty"`
	HashedPassword string    `gorm:"not null" json:"-"`
	// No gorm default tags on the booleans: with a default tag gorm
	// drops zero-valued fields from the INSERT, so an explicit false
	// would come back as the column default. Defaults live in the
	// migration SQL and in handler code instead.
	IsActive     bool `gorm:"not null" json:"is_active"`
	IsSuperuser  bool `gorm:"not null" json:"is_superuser"`
	IsPartOfLab  bool `gorm:"not null" json:"is_part_of_lab"`
	CanEditItems bool `gorm:"not null" json:"can_edit_items"`
	CanEditLabs  bool `gorm:"not null" json:"can_edit_labs"`
	CanEditUsers bool `gorm:"not null" json:"can_edit_users"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}

// Item is a piece of lab equipment. A nil CurrentOwnerID means the item
// is not held by anyone. The take operation keeps CurrentOwnerID,
// IsAvailable and TakenAt in step; the store does not enforce it.
type Item struct {
	ItemID         uuid.UUID  `gorm:"type:uuid;primaryKey;column:item_id" json:"item_id"`
	ItemName       string     `gorm:"not null;size:255" json:"item_name"`
	CurrentRoom    *string    `gorm:"size:255" json:"current_room"`
	Table          *string    `gorm:"size:255;column:table_name" json:"table_name"`
	SystemName     *string    `gorm:"size:255" json:"system_name"`
	CurrentOwnerID *uuid.UUID `gorm:"type:uuid" json:"current_owner_id"`
	TakenAt        *time.Time `json:"taken_at"`
	ItemImgURL     *string    `gorm:"size:255" json:"item_img_url"`
	ItemVendor     *string    `gorm:"size:255" json:"item_vendor"`
	ItemParams     *string    `gorm:"size:255" json:"item_params"`
	IsAvailable    bool       `gorm:"not null" json:"is_available"`
}

func (Item) TableName() string { return "item" }

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ItemID == uuid.Nil {
		i.ItemID = uuid.New()
	}
	return nil
}

// Room is a lab room. RoomOwnerID defaults to the creating user when
// not supplied on create.
type Room struct {
	RoomID      uuid.UUID  `gorm:"type:uuid;primaryKey;column:room_id" json:"room_id"`
	RoomNumber  string     `gorm:"not null;size:255" json:"room_number"`
	RoomPlace   string     `gorm:"not null;size:255" json:"room_place"`
	RoomOwnerID *uuid.UUID `gorm:"type:uuid" json:"room_owner_id"`
}

func (Room) TableName() string { return "room" }

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.RoomID == uuid.Nil {
		r.RoomID = uuid.New()
	}
	return nil
}

// AuditLog is an append-only record of mutating operations.
type AuditLog struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string     `gorm:"not null" json:"action"`
	Metadata  JSONB      `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time  `json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
