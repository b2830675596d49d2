package store

import "time"

// UserModel は users テーブルの行です。
type UserModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Nickname     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// PostModel は posts テーブルの行です。
type PostModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;index;not null"`
	User      UserModel `gorm:"foreignKey:UserID"`
	Title     string    `gorm:"not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (PostModel) TableName() string {
	return "posts"
}

// AuditEventModel は audit_events テーブルの行です。
type AuditEventModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	Type      string `gorm:"size:64;not null"`
	UserID    string `gorm:"size:36;index"`
	Nickname  string
	PostID    string `gorm:"size:36"`
	ClientIP  string `gorm:"size:64"`
	CreatedAt time.Time
}

func (AuditEventModel) TableName() string {
	return "audit_events"
}
