package laget

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
)

// rsvpParamsRe extracts the modal identifiers from an invitation link href.
var rsvpParamsRe = regexp.MustCompile(`pk=(\d+)&childId=(\d+)&site=([^&]+)`)

// parseRegistrationLinks collects the invitation modal links on a page.
func parseRegistrationLinks(doc *goquery.Document) []RegistrationLink {
	var links []RegistrationLink
	doc.Find(config.SelRsvpLink).Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}
		m := rsvpParamsRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		links = append(links, RegistrationLink{PK: m[1], ChildID: m[2], Site: m[3]})
	})
	return links
}

// parseInvitation extracts all raw fields from an invitation modal document.
// Identity fields (pk/childId/site) are filled in by the caller from the link.
func parseInvitation(doc *goquery.Document) engine.RawRegistration {
	var raw engine.RawRegistration

	raw.Title = text(doc.Find(config.SelInviteTitle).First())

	// First subtitle is the team, second names the registered child.
	subtitles := doc.Find(config.SelInviteSubTitle)
	raw.Team = text(subtitles.First())
	if subtitles.Length() > 1 {
		raw.ChildName = strings.TrimPrefix(text(subtitles.Eq(1)), config.PrefixRegistrationFor)
	}

	// Labeled rows: Datum, Tid, Plats, Anmälningsstopp, Samling.
	doc.Find(config.SelInviteLabel).Each(func(_ int, label *goquery.Selection) {
		name := strings.TrimSuffix(strings.TrimSpace(label.Text()), ":")
		value := labelValue(label)

		switch {
		case strings.Contains(name, config.LabelDate):
			raw.Date = value
		case strings.Contains(name, config.LabelTime):
			raw.Time = value
		case strings.Contains(name, config.LabelPlace):
			raw.Location = value
		case strings.Contains(name, config.LabelGathering):
			raw.Samling = value
		}
	})

	raw.Address = text(doc.Find(config.SelInviteAddress).First())
	raw.Description = text(doc.Find(config.SelInviteComment).First())
	raw.MapURL = doc.Find(config.SelMapLink).First().AttrOr("href", "")

	doc.Find(config.SelInviteAttendee).Each(func(_ int, sel *goquery.Selection) {
		if name := strings.TrimSpace(sel.Text()); name != "" {
			raw.Attendees = append(raw.Attendees, name)
		}
	})

	return raw
}

// labelValue reads the value belonging to a label span: the next sibling
// element when present, otherwise the parent's text minus the label itself.
func labelValue(label *goquery.Selection) string {
	if next := label.Next(); next.Length() > 0 {
		return strings.TrimSpace(next.Text())
	}
	parent := label.Parent()
	return strings.TrimSpace(strings.Replace(parent.Text(), label.Text(), "", 1))
}

// text returns the trimmed text content of a selection.
func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
