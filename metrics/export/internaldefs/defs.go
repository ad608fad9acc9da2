package internaldefs

import (
	authforge "github.com/solvrex/authforge"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authforge.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   authforge.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: authforge.MetricRegisterCreated, Name: "authforge_register_created_total", Help: "Registrations that created an account."},
	{ID: authforge.MetricRegisterResent, Name: "authforge_register_resent_total", Help: "Registrations that re-issued a challenge for an unverified duplicate."},
	{ID: authforge.MetricRegisterFailure, Name: "authforge_register_failure_total", Help: "Failed registrations."},
	{ID: authforge.MetricLoginSuccess, Name: "authforge_login_success_total", Help: "Logins that issued a token pair."},
	{ID: authforge.MetricLoginFailure, Name: "authforge_login_failure_total", Help: "Rejected logins."},
	{ID: authforge.MetricLoginUnverified, Name: "authforge_login_unverified_total", Help: "Logins pivoted to a verification resend."},
	{ID: authforge.MetricRefreshSuccess, Name: "authforge_refresh_success_total", Help: "Successful access-token refreshes."},
	{ID: authforge.MetricRefreshFailure, Name: "authforge_refresh_failure_total", Help: "Rejected refreshes."},
	{ID: authforge.MetricVerifySuccess, Name: "authforge_verify_success_total", Help: "Redeemed verification challenges."},
	{ID: authforge.MetricVerifyFailure, Name: "authforge_verify_failure_total", Help: "Rejected verification redemptions."},
	{ID: authforge.MetricFederatedSuccess, Name: "authforge_federated_success_total", Help: "Federated logins that issued tokens."},
	{ID: authforge.MetricFederatedFailure, Name: "authforge_federated_failure_total", Help: "Failed federated logins."},
	{ID: authforge.MetricFederatedRedirect, Name: "authforge_federated_redirect_total", Help: "Bare callbacks answered with an authorization URL."},
	{ID: authforge.MetricFederatedAccountCreated, Name: "authforge_federated_account_created_total", Help: "Accounts created from a provider assertion."},
	{ID: authforge.MetricFederatedUnverified, Name: "authforge_federated_unverified_total", Help: "Federated logins pivoted to a verification resend."},
	{ID: authforge.MetricDeliveryFailure, Name: "authforge_delivery_failure_total", Help: "Verification emails that failed to send after durable issuance."},
	{ID: authforge.MetricValidateSuccess, Name: "authforge_validate_success_total", Help: "Successful access-token validations."},
	{ID: authforge.MetricValidateFailure, Name: "authforge_validate_failure_total", Help: "Rejected access-token validations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authforge.MetricValidateLatency, Name: "authforge_validate_latency_seconds", Help: "Access-token validation latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are instrument-name-safe spellings of the bounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or trims a raw snapshot slice to the fixed width.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets folds per-bucket counts into cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
