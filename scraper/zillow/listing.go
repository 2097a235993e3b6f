package zillow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"agentharvest/models"
	"agentharvest/scraper/doc"
	"agentharvest/services"
)

const profileCardType = "AgentDirectoryFinderProfileResultsCard"

var searchResultsPath = []string{
	"props", "pageProps", "displayData", "agentFinderGraphData",
	"agentDirectoryFinderDisplay", "searchResults",
}

// ExtractNextData returns the parsed __NEXT_DATA__ payload of a page. A page
// without the script, or with unparsable JSON in it, is StructureChanged.
func ExtractNextData(html string) (doc.Node, error) {
	page, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return doc.Node{}, models.NewError(models.KindStructureChanged, "read page", err)
	}

	script := page.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return doc.Node{}, models.NewError(models.KindStructureChanged, "find __NEXT_DATA__",
			errors.New("script tag not found, page structure may have changed"))
	}

	root, err := doc.Parse([]byte(script.Text()))
	if err != nil {
		return doc.Node{}, models.NewError(models.KindStructureChanged, "parse __NEXT_DATA__", err)
	}
	return root, nil
}

// ParseListing extracts the summary records and page metadata from a
// directory page.
func (s *Site) ParseListing(html string) ([]models.Agent, models.PageMeta, error) {
	root, err := ExtractNextData(html)
	if err != nil {
		return nil, models.PageMeta{}, err
	}

	results := root.Path(searchResultsPath...)
	cards := results.Path("results", "resultsCards")
	if cards.Kind() != doc.Array {
		return nil, models.PageMeta{}, models.NewError(models.KindStructureChanged, "find results cards",
			fmt.Errorf("searchResults.results.resultsCards is %s", cards.Kind()))
	}

	var agents []models.Agent
	for i, card := range cards.List() {
		if card.Get("__typename").Text() != profileCardType {
			continue
		}
		a, err := s.ParseCard(card)
		if err != nil {
			s.logger.Warn("[zillow] dropping card %d: %v", i, err)
			continue
		}
		agents = append(agents, a)
	}

	return agents, pageMeta(root, results, len(cards.List())), nil
}

func pageMeta(root, results doc.Node, cards int) models.PageMeta {
	meta := models.PageMeta{
		CurrentPage:   1,
		ResultsOnPage: cards,
		Location:      "Unknown",
	}
	if n, ok := results.Get("resultsFound").Int(); ok {
		meta.TotalResults = n
	}
	if n, ok := results.Get("currentPage").Int(); ok {
		meta.CurrentPage = n
	}
	if name := root.Path("props", "pageProps", "region", "name").Text(); name != "" {
		meta.Location = name
	}
	return meta
}

// ParseCard builds a summary record from one profile results card. A card
// without an ID, name, or profile link is MalformedCard. A rating outside
// 0-5 is logged and left absent.
func (s *Site) ParseCard(card doc.Node) (models.Agent, error) {
	a := models.Agent{
		AgentID:    card.Get("encodedZuid").Text(),
		Name:       services.NormaliseText(card.Get("cardTitle").Text()),
		ProfileURL: card.Get("cardActionLink").Text(),
	}
	var missing []string
	if a.AgentID == "" {
		missing = append(missing, "encodedZuid")
	}
	if a.Name == "" {
		missing = append(missing, "cardTitle")
	}
	if a.ProfileURL == "" {
		missing = append(missing, "cardActionLink")
	}
	if len(missing) > 0 {
		return models.Agent{}, models.NewError(models.KindMalformedCard, "parse card",
			fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}

	a.BrokerageName = card.Get("secondaryCardTitle").OptText()
	a.PhotoURL = card.Get("imageUrl").OptText()
	a.LogoURL = card.Get("logoUrl").OptText()
	a.IsTopAgent = card.Get("isTopAgent").BoolOr(false)

	review := card.Get("reviewInformation")
	if r := review.Get("reviewAverage").OptFloat(); r != nil {
		if services.ValidRating(*r) {
			a.Rating = r
		} else {
			s.logger.Warn("[zillow] card %s: ignoring rating %v outside 0-5", a.AgentID, *r)
		}
	}
	a.RatingText = review.Get("reviewAverageText").OptText()
	a.ReviewCount = services.ParseReviewCount(review.Get("reviewCountText").Text())

	for _, item := range card.Get("profileData").List() {
		label := strings.ToLower(item.Get("label").Text())
		value := item.Get("data").Text()
		if value == "" {
			continue
		}
		switch {
		case strings.Contains(label, "price range"):
			a.PriceRange = &value
			a.PriceRangeMin, a.PriceRangeMax = services.ParsePriceRange(value)
		case strings.Contains(label, "last 12 months"):
			a.SalesLast12Months = services.ParseCount(value)
		case strings.Contains(label, "sales in"), strings.Contains(label, "total sales"):
			a.TotalSales = services.ParseCount(value)
		}
	}

	for _, tag := range card.Get("tags").List() {
		if text := tag.Get("text").Text(); text != "" {
			a.Tags = append(a.Tags, text)
		}
	}
	a.IsTeam = services.HasTeamTag(a.Tags)
	a.YearsExperienceMin = services.ParseYearsFromTags(a.Tags)

	return a, nil
}
