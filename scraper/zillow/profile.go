package zillow

import (
	"strings"
	"time"

	"agentharvest/models"
	"agentharvest/scraper/doc"
	"agentharvest/services"
)

// marketExpertiseAreas is how many served areas double as market expertise.
const marketExpertiseAreas = 5

// ParseProfile extracts the profile-tier overlay for a from its profile
// page. The returned record holds only fields found on the page; merge it
// onto a with services.Merge.
func (s *Site) ParseProfile(html string, a models.Agent) (models.Agent, error) {
	root, err := ExtractNextData(html)
	if err != nil {
		return models.Agent{}, err
	}
	props := root.Path("props", "pageProps")
	if props.Kind() != doc.Object {
		return models.Agent{}, models.NewError(models.KindStructureChanged, "find pageProps", nil)
	}
	return s.profileOverlay(props, a), nil
}

func (s *Site) profileOverlay(props doc.Node, a models.Agent) models.Agent {
	var o models.Agent

	user := props.Get("displayUser")
	about := props.Get("getToKnowMe")
	info := props.Get("professionalInformation").List()

	o.AgentType = classify(user.Get("profileTypes").Strings(), a.IsTeam)

	phones := user.Get("phoneNumbers")
	switch phones.Kind() {
	case doc.Object:
		o.Phone = firstText(phones.Get("cell"), phones.Get("brokerage"))
		o.BrokeragePhone = phones.Get("brokerage").OptText()
	case doc.String:
		o.Phone = phones.OptText()
	}
	o.Email = user.Get("email").OptText()

	addr := user.Get("businessAddress")
	var street []string
	for _, key := range []string{"address1", "address2"} {
		if line := addr.Get(key).Text(); line != "" {
			street = append(street, line)
		}
	}
	if len(street) > 0 {
		o.Address = models.Ptr(strings.Join(street, ", "))
	}
	o.City = addr.Get("city").OptText()
	o.State = addr.Get("state").OptText()
	o.ZipCode = addr.Get("postalCode").OptText()

	o.BrokerageName = user.Get("businessName").OptText()
	o.Title = firstText(about.Get("title"), user.Get("title"))
	o.Biography = about.Get("description").OptText()
	o.Website = firstText(about.Get("websiteUrl"), user.Get("website"))
	o.Specialties = about.Get("specialties").Strings()

	for _, item := range info {
		term := strings.ToLower(item.Get("term").Text())
		lines := item.Get("lines").Strings()
		if len(lines) == 0 {
			continue
		}
		switch {
		case strings.Contains(term, "broker address"):
			o.BrokerageAddress = models.Ptr(strings.Join(lines, ", "))
		case strings.Contains(term, "language"):
			o.Languages = append(o.Languages, lines...)
		case strings.Contains(term, "certification"), strings.Contains(term, "designation"), strings.Contains(term, "license"):
			o.Certifications = append(o.Certifications, lines...)
		}
	}

	licenses := props.Get("agentLicenses").List()
	o.Licenses = licenseStrings(licenses)
	o.YearsExperience = about.Get("yearsInIndustry").OptInt()
	if o.YearsExperience == nil || *o.YearsExperience == 0 {
		o.YearsExperience = s.yearsSinceOldestLicense(licenses)
	}

	forSale, _ := props.Path("forSaleListings", "listing_count").Int()
	forRent, _ := props.Path("forRentListings", "listing_count").Int()
	if forSale > 0 {
		o.ForSaleListings = models.Ptr(forSale)
	}
	if forRent > 0 {
		o.ForRentListings = models.Ptr(forRent)
	}
	if active := forSale + forRent; active > 0 {
		o.ActiveListings = models.Ptr(active)
		o.TotalListings = models.Ptr(active)
	}

	for _, area := range props.Get("serviceAreas").List() {
		name := area.Text()
		if name == "" {
			name = firstNonEmpty(area.Get("text").Text(), area.Get("name").Text())
		}
		if name != "" {
			o.NeighborhoodsServed = append(o.NeighborhoodsServed, name)
		}
	}
	if len(o.NeighborhoodsServed) > 0 {
		o.MarketExpertise = o.NeighborhoodsServed[:min(marketExpertiseAreas, len(o.NeighborhoodsServed))]
	}

	o.RecentSales = parseSales(props.Path("pastSales", "past_sales"))
	o.Reviews = parseReviews(props.Path("reviewsData", "reviews"))

	return o
}

// classify derives the agent type from profile role markers: broker beats
// the summary team flag, which beats a plain agent marker.
func classify(profileTypes []string, isTeam bool) *models.AgentType {
	has := func(want string) bool {
		for _, t := range profileTypes {
			if strings.EqualFold(strings.TrimSpace(t), want) {
				return true
			}
		}
		return false
	}
	var t models.AgentType
	switch {
	case has("broker"):
		t = models.AgentTypeBroker
	case isTeam:
		t = models.AgentTypeTeam
	case has("agent"):
		t = models.AgentTypeSolo
	default:
		return nil
	}
	return &t
}

func (s *Site) yearsSinceOldestLicense(licenses []doc.Node) *int {
	var years *int
	thisYear := s.now().Year()
	for _, l := range licenses {
		obtained, ok := l.Get("yearObtained").Int()
		if !ok || obtained <= 0 || obtained > thisYear {
			continue
		}
		if exp := thisYear - obtained; years == nil || exp > *years {
			years = models.Ptr(exp)
		}
	}
	return years
}

func licenseStrings(licenses []doc.Node) []string {
	var out []string
	for _, l := range licenses {
		number := l.Get("licenseNumber").Text()
		if number == "" {
			continue
		}
		if state := firstNonEmpty(l.Get("stateAbbreviation").Text(), l.Get("state").Text()); state != "" {
			number = state + " #" + number
		}
		out = append(out, number)
	}
	return out
}

func parseSales(list doc.Node) []models.Sale {
	var sales []models.Sale
	for _, n := range list.List() {
		sale := models.Sale{
			Address:         firstNonEmpty(n.Get("street_address").Text(), n.Get("address").Text()),
			SalePrice:       n.Get("price").OptInt(),
			PropertyType:    n.Get("home_type").Text(),
			TransactionType: n.Get("represented").Text(),
			City:            n.Get("city").Text(),
			State:           n.Get("state").Text(),
			ZipCode:         n.Get("zipcode").Text(),
			SaleDate:        parseDate(n.Get("sold_date")),
		}
		if sale.SalePrice == nil {
			sale.SalePrice = services.ParseCount(n.Get("price").Text())
		}
		if sale.Address == "" && sale.SalePrice == nil {
			continue
		}
		sales = append(sales, sale)
	}
	return sales
}

func parseReviews(list doc.Node) []models.Review {
	var reviews []models.Review
	for _, n := range list.List() {
		rating, ok := n.Get("rating").Float()
		if !ok || !services.ValidRating(rating) {
			continue
		}
		r := models.Review{
			ReviewerName:    firstNonEmpty(n.Path("reviewer", "screenName").Text(), n.Get("reviewerName").Text()),
			Rating:          rating,
			Text:            firstNonEmpty(n.Get("reviewComment").Text(), n.Get("text").Text()),
			TransactionType: n.Get("workDescription").Text(),
			Date:            parseDate(n.Get("createDate")),
		}
		if verified, ok := n.Get("isVerified").Bool(); ok {
			r.Verified = &verified
		}
		reviews = append(reviews, r)
	}
	return reviews
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "01/02/2006", "Jan 2, 2006"}

// parseDate accepts epoch milliseconds, as a number or a numeric string, or
// one of dateLayouts.
func parseDate(n doc.Node) *time.Time {
	if ms, ok := n.Int(); ok {
		if ms <= 0 {
			return nil
		}
		t := time.UnixMilli(int64(ms)).UTC()
		return &t
	}
	s := n.Text()
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func firstText(nodes ...doc.Node) *string {
	for _, n := range nodes {
		if s := n.OptText(); s != nil {
			return s
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
