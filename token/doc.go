// Package token mints and validates the signed, time-bound access and refresh
// tokens issued by the engine. Access and refresh tokens are signed with
// independent secrets so leaking one key family cannot forge the other, and a
// token of one kind never validates as the other.
package token
