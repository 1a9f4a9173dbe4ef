// Package handlers contains the capability handlers registered with the
// blackboard dispatcher: Authentication, Authorization, ProductList, and
// OrderPlaced.
//
// Handlers return a failed response for business errors (bad credentials,
// unknown user) and an error for faults (a broken store); the dispatcher
// records either outcome as a failed step. Each handler also records the
// architecture facts it embodies: which backend component provides its
// capability, and which components talk to each other.
package handlers
