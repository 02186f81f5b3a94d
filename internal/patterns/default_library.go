package patterns

// DefaultCategories returns the built-in indicator categories. Weights are
// fixed per category: a detected category contributes its DetectedWeight
// to the risk score, an undetected one its IdleWeight.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:           "urgency",
			Label:          "Urgency Language",
			DetectedWeight: 0.85,
			IdleWeight:     0.12,
			Rules: []Rule{
				{Expr: `urgent`},
				{Expr: `immediate action`},
				{Expr: `act now`},
				{Expr: `expires`},
				{Expr: `suspended`},
				{Expr: `locked`},
				{Expr: `verify now`},
				{Expr: `within 24 hours`},
				{Expr: `confirm immediately`},
			},
		},
		{
			Name:           "impersonation",
			Label:          "Impersonation Indicators",
			DetectedWeight: 0.78,
			IdleWeight:     0.10,
			Rules: []Rule{
				{Expr: `dear user`},
				{Expr: `dear customer`},
				{Expr: `dear member`},
				{Expr: `valued customer`},
				{Expr: `account holder`},
				{Expr: `IT department`},
				{Expr: `security team`},
				{Expr: `support team`},
			},
		},
		{
			Name:           "suspicious_url",
			Label:          "Suspicious URL Patterns",
			DetectedWeight: 0.92,
			IdleWeight:     0.15,
			Rules: []Rule{
				{Expr: `bit\.ly`},
				{Expr: `tinyurl`},
				{Expr: `(?:\d{1,3}\.){3}\d{1,3}`},
				{Expr: `-secure-`},
				{Expr: `-login`},
				{Expr: `-verify`},
				{Expr: `[0-9]{5,}`},
			},
		},
		{
			Name:           "financial_trigger",
			Label:          "Financial Keywords",
			DetectedWeight: 0.80,
			IdleWeight:     0.08,
			Rules: []Rule{
				{Expr: `refund`},
				{Expr: `payment failed`},
				{Expr: `unauthorized charge`},
				{Expr: `wire transfer`},
				{Expr: `bank account`},
				{Expr: `credit card`},
				{Expr: `ssn`},
				{Expr: `social security`},
			},
		},
		{
			Name:           "credential_request",
			Label:          "Credential Request",
			DetectedWeight: 0.88,
			IdleWeight:     0.10,
			Rules: []Rule{
				{Expr: `username`},
				{Expr: `password`},
				{Expr: `login credentials`},
				{Expr: `verify your identity`},
				{Expr: `confirm your details`},
				{Expr: `update your information`},
			},
		},
		{
			Name:           "spoofed_domain",
			Label:          "Domain Spoofing",
			DetectedWeight: 0.95,
			IdleWeight:     0.05,
			Rules: []Rule{
				{Expr: `paypa1`},
				{Expr: `g00gle`},
				{Expr: `micros0ft`},
				{Expr: `amaz0n`},
				{Expr: `app1e`},
			},
		},
	}
}

// DefaultLibrary builds the built-in library. It panics on a bad built-in
// rule, which is a programming error caught by tests.
func DefaultLibrary() *Library {
	lib, err := New(DefaultCategories())
	if err != nil {
		panic(err)
	}
	return lib
}
