package middleware

import (
	"net/http"

	"github.com/solvrex/authforge"
)

// RequireVerified is [Guard] plus an account lookup: requests from accounts
// whose email has not been verified are rejected with 403.
//
// A valid access token normally implies a verified account, since login and
// federated login refuse to issue tokens beforehand. The lookup closes the
// window where verification state changed after the token was minted.
func RequireVerified(engine *authforge.Engine) func(http.Handler) http.Handler {
	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID, ok := AccountIDFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			acct, err := engine.GetAccount(r.Context(), accountID)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !acct.EmailVerified {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}
