package siteconfig

import (
	"testing"

	"sitegen/internal/tester"
)

func TestDiff(t *testing.T) {
	base := Default()
	tester.Eq(t, len(Diff(base, base.Clone())), 0)

	next := base.Clone()
	next.PrimaryColor = "#000000"
	next.KeyPages = append(next.KeyPages, "Blog")
	next.OutputMode = OutputJSON

	changes := Diff(base, next)
	got := make([]string, len(changes))
	for i, c := range changes {
		got[i] = c.Field
	}
	tester.Eq(t, got, []string{"keyPages", "outputMode", "primaryColor"})
	tester.Eq(t, changes[2].Before, any("#3B82F6"))
	tester.Eq(t, changes[2].After, any("#000000"))
}

func TestOverrides(t *testing.T) {
	c := Default()
	tester.Eq(t, Overrides(c), []string{})
	c.WebsiteIdea = "A bakery"
	tester.Eq(t, Overrides(c), []string{"websiteIdea"})
}
