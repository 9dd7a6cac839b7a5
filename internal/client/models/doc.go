// Package models defines the client-side representation of meal-tracking
// resources (goals, meals, food components), the typed drafts submitted to
// create or replace them, and the session credential.
//
// JSON field names follow the remote API. Numeric totals are owned by the
// server and are never computed here.
package models
