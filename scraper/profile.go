package scraper

// Profile selects what a request wants pulled from the page.
type Profile string

const (
	// ProfileStatement reads the rendered HTML of a problem statement.
	ProfileStatement Profile = "statement"

	// ProfileSubmissionCode reads the plain-text source of a submission.
	ProfileSubmissionCode Profile = "submission_code"
)

// DOM properties read by the extraction profiles.
const (
	PropertyInnerHTML = "innerHTML"
	PropertyInnerText = "innerText"
)

// ExtractionProfile is a (selector, property) pair.
type ExtractionProfile struct {
	Selector string
	Property string
}

var profiles = map[Profile]ExtractionProfile{
	ProfileStatement: {
		Selector: ".problem-statement",
		Property: PropertyInnerHTML,
	},
	ProfileSubmissionCode: {
		Selector: "pre#program-source-text",
		Property: PropertyInnerText,
	},
}

// Lookup returns the extraction profile registered for p.
func (p Profile) Lookup() (ExtractionProfile, bool) {
	ep, ok := profiles[p]
	return ep, ok
}
