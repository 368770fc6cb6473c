package models

import "time"

// UserLogin maps an internal user to portal credentials. The password is
// stored encrypted and only decrypted at login time.
type UserLogin struct {
	InternalUser      string
	PortalUsername    string
	EncryptedPassword string

	CreatedAt      time.Time
	LastModifiedAt time.Time
}
