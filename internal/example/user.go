/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package example

import (
	"sync"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/recordstore"
	"github.com/suparena/recordstore/record"
)

// UserRecordType is the record type tag of User.
const UserRecordType = "User"

// User is an account profile.
type User struct {
	ID          string       `dynamodbav:"-" yaml:"id,omitempty"`
	DisplayName string       `dynamodbav:"displayName" yaml:"display_name"`
	Email       strfmt.Email `dynamodbav:"email,omitempty" yaml:"email,omitempty"`
}

var userMapper = record.NewStructMapper[User](UserRecordType,
	func(u User) string { return u.ID },
	func(u *User, id string) { u.ID = id },
	"displayName",
)

func (User) RecordType() string { return UserRecordType }

func (u User) RecordID() string { return u.ID }

func (User) Mapper() recordstore.Mapper[User] { return userMapper }

var registerOnce sync.Once

// Register adds the example entities to the type registry. It is safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		recordstore.Register[Post]()
		recordstore.Register[User]()
	})
}
