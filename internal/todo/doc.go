// Package todo defines the to-do item entity and the partial update payload
// applied to it. Identity (ID and URL) is owned by the store; everything else
// is client controlled.
package todo
