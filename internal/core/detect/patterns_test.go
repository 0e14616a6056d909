// internal/core/detect/patterns_test.go
package detect

import (
	"strings"
	"testing"

	"trustscan/internal/core/domain"
	"trustscan/internal/testutil"
)

func hasDescription(data domain.PatternsData, desc string) bool {
	for _, m := range data.Matches {
		if m.Description == desc {
			return true
		}
	}
	return false
}

func TestAnalyzePatterns_UnlessSuppression(t *testing.T) {
	const desc = "Claims major tech company as customer"

	testutil.AssertFalse(t, hasDescription(AnalyzePatterns("Sign in with Google"), desc), "sign in with google is suppressed")
	testutil.AssertFalse(t, hasDescription(AnalyzePatterns("Pay with Apple Pay at checkout"), desc), "apple pay is suppressed")
	testutil.AssertTrue(t, hasDescription(AnalyzePatterns("Trusted by Google and Amazon"), desc), "customer claim fires")
}

func TestAnalyzePatterns_APIKeyDeveloperContext(t *testing.T) {
	const desc = "Requests API credentials"

	testutil.AssertTrue(t, hasDescription(AnalyzePatterns("Paste your API key below"), desc), "bare api key request")
	testutil.AssertFalse(t, hasDescription(AnalyzePatterns("Read the docs to create an API key"), desc), "developer docs context")
}

func TestAnalyzePatterns_SignupSuppressesVerification(t *testing.T) {
	const desc = "Phishing verification language"

	testutil.AssertTrue(t, hasDescription(AnalyzePatterns("Please verify your account now"), desc), "phishing language")
	testutil.AssertFalse(t, hasDescription(AnalyzePatterns("Welcome! Verify your account to finish sign up"), desc), "signup flow")
}

func TestAnalyzePatterns_Truncation(t *testing.T) {
	text := "send" + strings.Repeat("a", 133) + "receive" + "double"
	testutil.AssertEqual(t, len(text), 150, "fixture length")

	data := AnalyzePatterns(text)
	testutil.AssertEqual(t, len(data.Matches), 1, "one match")

	m := data.Matches[0]
	testutil.AssertEqual(t, m.Description, "Doubling/multiplier scam", "rule")
	testutil.AssertEqual(t, len(m.Matched), 103, "truncated length")
	testutil.AssertEqual(t, m.Matched, text[:100]+"...", "truncated content")
}

func TestAnalyzePatterns_ShortMatchNotTruncated(t *testing.T) {
	data := AnalyzePatterns("This tool is unhackable")
	testutil.AssertEqual(t, data.Matches[0].Matched, "unhackable", "matched text")
}

func TestAnalyzePatterns_DedupByCategorySeverity(t *testing.T) {
	data := AnalyzePatterns("Get rich today! Your computer is infected.")

	count := 0
	for _, m := range data.Matches {
		if m.Category == domain.CategorySuspiciousPatterns && m.Severity == domain.SeverityCritical {
			count++
			testutil.AssertEqual(t, m.Description, "Get-rich-quick language", "first rule wins")
		}
	}
	testutil.AssertEqual(t, count, 1, "one per category+severity")
}

func TestAnalyzePatterns_SortedBySeverity(t *testing.T) {
	data := AnalyzePatterns("A crypto platform. Limited time offer. Unhackable servers. Call us now!")

	testutil.AssertTrue(t, len(data.Matches) >= 4, "several matches")
	for i := 1; i < len(data.Matches); i++ {
		prev := data.Matches[i-1].Severity.Rank()
		cur := data.Matches[i].Severity.Rank()
		testutil.AssertTrue(t, prev <= cur, "ascending rank")
	}
	testutil.AssertEqual(t, data.Matches[0].Severity, domain.SeverityCritical, "critical first")
}

func TestAnalyzePatterns_WalletAddressCaseSensitive(t *testing.T) {
	addr := "0x" + strings.Repeat("ab", 20)
	testutil.AssertTrue(t, hasDescription(AnalyzePatterns("Send to "+addr), "Ethereum wallet address found"), "lowercase 0x")
	testutil.AssertFalse(t, hasDescription(AnalyzePatterns("Send to 0X"+strings.Repeat("ab", 20)), "Ethereum wallet address found"), "uppercase 0X")
}

func TestAnalyzePatterns_PatternSource(t *testing.T) {
	data := AnalyzePatterns("We are enterprise-grade")
	testutil.AssertEqual(t, len(data.Matches), 1, "one match")
	testutil.AssertEqual(t, data.Matches[0].Pattern, `enterprise[- ]grade|enterprise[- ]level|fortune 500|trusted by.*companies`, "pattern source")
	testutil.AssertEqual(t, data.Matches[0].Category, domain.CategoryFreeHostingEnterprise, "category")
}

func TestAnalyzePatterns_Empty(t *testing.T) {
	data := AnalyzePatterns("")
	testutil.AssertNotNil(t, data.Matches, "never nil")
	testutil.AssertEqual(t, len(data.Matches), 0, "no matches")
	testutil.AssertEqual(t, data.Error, "", "no error")
}

func TestAnalyzeWith_OnlyIf(t *testing.T) {
	rules := []Rule{
		rule(`free trial`, catSuspicious, sevLow, "Free trial", onlyIf(`credit card`, `payment`)),
	}

	testutil.AssertEqual(t, len(analyzeWith(rules, "Start your free trial").Matches), 0, "onlyIf not satisfied")
	testutil.AssertEqual(t, len(analyzeWith(rules, "Start your free trial, credit card required").Matches), 1, "onlyIf satisfied")
}

func TestRules_TableIntegrity(t *testing.T) {
	rules := Rules()
	testutil.AssertTrue(t, len(rules) >= 50, "rule count")
	for _, r := range rules {
		testutil.AssertTrue(t, r.Category.IsValid(), "category of "+r.Source)
		testutil.AssertTrue(t, r.Severity.IsValid(), "severity of "+r.Source)
		testutil.AssertNotEqual(t, r.Description, "", "description of "+r.Source)
	}
}

func TestCheckPatterns_StripsScriptsAndTags(t *testing.T) {
	html := `<html><head><style>.hurry{}</style><script>var s = "get rich";</script></head>
<body><p>Limited</p><p>time</p><!-- unhackable --></body></html>`

	data := CheckPatterns(html)
	testutil.AssertEqual(t, data.Error, "", "no error")
	testutil.AssertTrue(t, hasDescription(data, "Uses urgency tactics"), "tags become spaces")
	testutil.AssertFalse(t, hasDescription(data, "Get-rich-quick language"), "script removed")
	testutil.AssertFalse(t, hasDescription(data, "Claims impossible security"), "comments ignored")
}

func TestHTMLToText(t *testing.T) {
	text, err := HTMLToText("<div>  Hello\n\n<b>world</b>  </div>")
	testutil.AssertNoError(t, err, "convert")
	testutil.AssertEqual(t, text, "Hello world", "collapsed text")
}

func TestCheckPatterns_NoscriptTrackingFallbacks(t *testing.T) {
	html := `<html><head><title>Corner Bakery</title>
<noscript><img height="1" width="1" style="display:none" src="https://www.facebook.com/tr?id=1234567890&ev=PageView&noscript=1"/></noscript>
</head><body>
<noscript><iframe src="https://www.googletagmanager.com/ns.html?id=GTM-ABC123" height="0" width="0" style="display:none;visibility:hidden"></iframe></noscript>
<p>Fresh bread every morning.</p></body></html>`

	text, err := HTMLToText(html)
	testutil.AssertNoError(t, err, "convert")
	testutil.AssertFalse(t, strings.Contains(text, "facebook"), "noscript attributes dropped")

	data := CheckPatterns(html)
	testutil.AssertFalse(t, hasDescription(data, "Claims major tech company as customer"), "pixel fallback is not a customer claim")
	testutil.AssertLen(t, data.Matches, 0, "plain page")
}
