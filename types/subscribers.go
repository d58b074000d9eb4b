// Package types provides common data types for storing and reading newsletter subscribers.
package types

// Attribute names of the canonical subscriber item schema. Items written with
// other casings (for example "Email") are not recognised.
const (
	AttrID         = "id"
	AttrEmail      = "email"
	AttrSubscribed = "subscribed"
)

// Subscriber models a single item in the subscribers table.
type Subscriber struct {
	ID         string `dynamodbav:"id" json:"id"`
	Email      string `dynamodbav:"email" json:"email"`
	Subscribed bool   `dynamodbav:"subscribed" json:"subscribed"`
}
