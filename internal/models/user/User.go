// This file contains the User struct. Users are the pipeline operators who submit scenes; each user owns the runs they
// started.

package user

import (
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User represents an operator in the system
type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty"`
	Username          string               `bson:"username"`
	EncryptedPassword string               `bson:"encrypted_password"`
	RunIDs            []primitive.ObjectID `bson:"run_ids"`
}

// AddRun adds a run ID to the user's list of runs. Adding a run twice is a no-op.
func (u *User) AddRun(runID primitive.ObjectID) {
	if !u.HasRun(runID) {
		u.RunIDs = append(u.RunIDs, runID)
	}
}

// HasRun reports whether the user started the run.
func (u *User) HasRun(runID primitive.ObjectID) bool {
	return slices.Contains(u.RunIDs, runID)
}

// SetPassword sets a new password for the user. Encrypts the password using bcrypt.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.EncryptedPassword = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password is correct.
// Returns nil on success, or error on failure
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.EncryptedPassword), []byte(password))
}
