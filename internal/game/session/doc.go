// Package session defines the game session model: who runs it, who plays in it,
// and whether it is still active.
package session
