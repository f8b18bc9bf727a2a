// Package session tracks per-tenant conversation state: the turn history the
// driver builds model context from, and the active multi-step plan carried
// across turns while it awaits confirmation or missing information.
package session
