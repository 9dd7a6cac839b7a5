// Package resources keeps the client-side cache of the user's goals, meals
// and food components in sync with the API.
//
// Every list replaces the cached items wholesale. Mutations are sent to the
// server and, under RelistAfterMutation, followed by a full re-list so the
// cache always reflects server-computed values such as meal totals.
//
// A Collection tracks its load state (Unloaded, Loading, Loaded, Error) and a
// generation number. A response is applied only when its fetch is still the
// latest one started; older responses are dropped and reported as ErrStale.
package resources
