// Package models はサービス層で共有するドメインの型を定義します。
package models

import "time"

// User はアカウントです。ニックネームは作成後に変わりません。
type User struct {
	ID           string    `json:"userId"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Post は投稿です。UserID は作成者で、作成後に付け替えられません。
type Post struct {
	ID        string    `json:"postId"`
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostSummary は一覧表示用の投稿です（本文を含みません）。
type PostSummary struct {
	ID        string    `json:"postId"`
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostFields は更新可能な項目です。
type PostFields struct {
	Title   string
	Content string
}

// AuditEvent はセキュリティ上意味のある出来事の記録です。
type AuditEvent struct {
	ID        string    `json:"eventId"`
	Type      string    `json:"type"`
	UserID    string    `json:"userId,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	PostID    string    `json:"postId,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
