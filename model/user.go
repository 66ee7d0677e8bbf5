package model

import "time"

// DeviceInfo is one entry in a user's append-only device history. Entries
// are deduplicated by value via $addToSet, so two logins from the same
// device at the same instant collapse into one entry.
type DeviceInfo struct {
	DeviceName string    `bson:"deviceName" json:"deviceName"`
	LastLogin  time.Time `bson:"lastLogin" json:"lastLogin"`
	IPAddress  string    `bson:"ipAddress" json:"ipAddress"`
	UserAgent  string    `bson:"userAgent" json:"userAgent"`
}

type User struct {
	Username            string       `bson:"username" json:"username" validate:"required"`
	StudentID           string       `bson:"studentId" json:"studentId"`
	Name                string       `bson:"name" json:"name"`
	Email               string       `bson:"email" json:"email"`
	Roles               []string     `bson:"roles" json:"roles"`
	Password            string       `bson:"password,omitempty" json:"-"`
	AccessToken         string       `bson:"accessToken,omitempty" json:"-"`
	DeviceInfo          []DeviceInfo `bson:"deviceInfo" json:"deviceInfo"`
	AccountLocked       bool         `bson:"accountLocked" json:"accountLocked"`
	FailedLoginAttempts int          `bson:"failedLoginAttempts" json:"failedLoginAttempts"`
	IsActive            bool         `bson:"isActive" json:"isActive"`
	LastLogin           time.Time    `bson:"lastLogin" json:"lastLogin"`
	CreatedAt           time.Time    `bson:"createdAt" json:"createdAt"`
}

// LoginUpsert carries everything the login pipeline writes into the users
// collection in a single atomic findOneAndUpdate.
type LoginUpsert struct {
	Username     string
	StudentID    string
	Name         string
	Email        string
	Roles        []string
	PasswordHash string // optional, only written on first insert
	AccessToken  string
	Device       DeviceInfo
}
