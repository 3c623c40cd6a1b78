package parser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/fingerprint"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// ErrIncompleteDetail marks a detail page whose description came back too
// thin to store. Callers may re-attempt the extraction.
var ErrIncompleteDetail = errors.New("detail extraction incomplete")

// minDescriptionLength is the shortest description accepted when the page
// also carries no requirements text.
const minDescriptionLength = 20

// Service turns HTML snapshots into domain records. It never touches the
// browser; the pipeline owns page lifecycle.
type Service struct {
	selectors *common.SelectorsConfig
	markdown  *htmltomd.Converter
	logger    arbor.ILogger
}

// NewService creates a page parser bound to the configured selector overrides
func NewService(selectors *common.SelectorsConfig, logger arbor.ILogger) *Service {
	return &Service{
		selectors: selectors,
		markdown:  htmltomd.NewConverter("", true, nil),
		logger:    logger,
	}
}

var _ interfaces.PageParser = (*Service)(nil)

// chain returns the resolution order for one field: configured selector
// first, then the built-in fallbacks.
func chain(configured common.FieldSelectors, field string, fallbacks []string) []string {
	if primary := strings.TrimSpace(configured[field]); primary != "" {
		out := make([]string, 0, len(fallbacks)+1)
		out = append(out, primary)
		return append(out, fallbacks...)
	}
	return fallbacks
}

// firstText walks a selector chain and returns the first nonempty text.
func (s *Service) firstText(sel *goquery.Selection, field string, selectors []string) string {
	for _, selector := range selectors {
		text := compactText(sel.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	s.logger.Warn().
		Str("field", field).
		Str("tried", strings.Join(selectors, ", ")).
		Msg("No selector in chain matched")
	return ""
}

// ParseSearchPage extracts the listing rows of one results page.
func (s *Service) ParseSearchPage(html string) (*models.SearchPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	container, containerSel := s.findContainer(doc)
	if container == nil {
		s.logger.Warn().
			Str("tried", strings.Join(chain(s.selectors.SearchPage, "container", searchContainerChain), ", ")).
			Msg("No job list container found")
		return &models.SearchPage{}, nil
	}

	items, itemSel := s.findItems(container)
	if items == nil || items.Length() == 0 {
		return &models.SearchPage{RowSelector: containerSel}, nil
	}

	page := &models.SearchPage{
		RowSelector: containerSel + " " + itemSel,
	}

	items.Each(func(i int, item *goquery.Selection) {
		listing := s.parseListing(item)
		if listing == nil {
			return
		}
		listing.DOMIndex = i
		page.Listings = append(page.Listings, listing)
	})

	s.logger.Debug().
		Int("rows", len(page.Listings)).
		Str("row_selector", page.RowSelector).
		Msg("Parsed search page")
	return page, nil
}

func (s *Service) findContainer(doc *goquery.Document) (*goquery.Selection, string) {
	for _, selector := range chain(s.selectors.SearchPage, "container", searchContainerChain) {
		found := doc.Find(selector).First()
		if found.Length() > 0 {
			return found, selector
		}
	}
	return nil, ""
}

func (s *Service) findItems(container *goquery.Selection) (*goquery.Selection, string) {
	for _, selector := range chain(s.selectors.SearchPage, "item", searchItemChain) {
		found := container.Find(selector)
		if found.Length() > 0 {
			return found, selector
		}
	}
	return nil, ""
}

// parseListing extracts one row, filling defaults for missing subfields. A
// row with neither a real title nor a real company is noise and dropped.
func (s *Service) parseListing(item *goquery.Selection) *models.JobListing {
	field := func(name string) string {
		return s.firstText(item, name, chain(s.selectors.SearchPage, name, searchFieldChains[name]))
	}

	listing := &models.JobListing{
		Title:       withDefault(field("title"), common.DefaultTitle),
		Company:     withDefault(field("company"), common.DefaultCompany),
		Salary:      withDefault(field("salary"), common.DefaultSalary),
		Location:    withDefault(field("location"), common.DefaultLocation),
		Experience:  withDefault(field("experience"), common.DefaultExperience),
		Education:   withDefault(field("education"), common.DefaultEducation),
		PublishTime: field("publish_time"),
	}

	if href, ok := item.Find("a[href]").First().Attr("href"); ok {
		listing.DetailURL = strings.TrimSpace(href)
	}

	if listing.Title == common.DefaultTitle && listing.Company == common.DefaultCompany {
		return nil
	}

	listing.Fingerprint = fingerprint.Fingerprint(
		listing.Title, listing.Company, listing.Salary, listing.Location)
	return listing
}

// ParseJobDetail extracts one detail page into a JobDetail record.
func (s *Service) ParseJobDetail(html string, jobID string) (*models.JobDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	root := doc.Selection
	field := func(name string) string {
		return s.firstText(root, name, chain(s.selectors.JobDetail, name, detailFieldChains[name]))
	}

	detail := &models.JobDetail{
		JobID:        jobID,
		Salary:       field("salary"),
		Location:     field("location"),
		Experience:   field("experience"),
		Education:    field("education"),
		Description:  s.extractDescription(root),
		Requirements: field("requirements"),
		Benefits:     field("benefits"),
		PublishTime:  field("publish_time"),
		CompanyScale: field("company_scale"),
		Industry:     field("industry"),
	}

	s.fillFromInfoLine(root, detail)

	if len([]rune(detail.Description)) < minDescriptionLength && detail.Requirements == "" {
		s.logger.Warn().
			Str("job_id", jobID).
			Int("description_length", len([]rune(detail.Description))).
			Msg("Detail description too thin, treating as failed extraction")
		return nil, ErrIncompleteDetail
	}
	return detail, nil
}

// extractDescription tries the description chain, then falls back to the
// candidate container with the most text.
func (s *Service) extractDescription(root *goquery.Selection) string {
	for _, selector := range chain(s.selectors.JobDetail, "description", detailFieldChains["description"]) {
		sel := root.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := s.richText(sel); text != "" {
			return text
		}
	}

	var best *goquery.Selection
	bestLen := 0
	for _, selector := range descriptionFallbackChain {
		root.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if length := len(compactText(sel.Text())); length > bestLen {
				best, bestLen = sel, length
			}
		})
	}
	if best == nil {
		return ""
	}
	return s.richText(best)
}

// richText renders a node's inner HTML as markdown so list structure and
// paragraph breaks survive storage. Plain compacted text is the fallback.
func (s *Service) richText(sel *goquery.Selection) string {
	if html, err := sel.Html(); err == nil {
		if md, err := s.markdown.ConvertString(html); err == nil {
			if text := strings.TrimSpace(md); text != "" {
				return text
			}
		}
	}
	return compactText(sel.Text())
}

// fillFromInfoLine parses the compact "地点｜经验｜学历" strip into any field
// the per-field chains left empty.
func (s *Service) fillFromInfoLine(root *goquery.Selection, detail *models.JobDetail) {
	if detail.Location != "" && detail.Experience != "" && detail.Education != "" {
		return
	}

	var line string
	for _, selector := range detailInfoLineChain {
		line = compactText(root.Find(selector).First().Text())
		if line != "" {
			break
		}
	}
	if line == "" {
		return
	}

	for _, part := range splitInfoLine(line) {
		switch classifyInfoPart(part) {
		case "experience":
			if detail.Experience == "" {
				detail.Experience = part
			}
		case "education":
			if detail.Education == "" {
				detail.Education = part
			}
		case "location":
			if detail.Location == "" {
				detail.Location = part
			}
		case "company_scale":
			if detail.CompanyScale == "" {
				detail.CompanyScale = part
			}
		}
	}
}

// infoLineSeparators deliberately excludes the interpunct, which appears
// inside locations like 深圳·南山区.
var infoLineSeparators = regexp.MustCompile(`[|｜]`)

func splitInfoLine(line string) []string {
	parts := infoLineSeparators.Split(line, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// classifyInfoPart recognizes what one strip segment describes.
func classifyInfoPart(part string) string {
	switch {
	case strings.Contains(part, "经验") || strings.Contains(part, "年") && !strings.Contains(part, "人"):
		return "experience"
	case strings.Contains(part, "本科") || strings.Contains(part, "大专") ||
		strings.Contains(part, "硕士") || strings.Contains(part, "博士") ||
		strings.Contains(part, "学历"):
		return "education"
	case strings.Contains(part, "人"):
		return "company_scale"
	case hasLocationSuffix(part):
		return "location"
	default:
		return ""
	}
}

func hasLocationSuffix(part string) bool {
	for _, suffix := range common.LocationSuffixes {
		if strings.Contains(part, suffix) {
			return true
		}
	}
	return strings.Contains(part, "·")
}

// ClassifyPage detects pages that must not be parsed as results.
func (s *Service) ClassifyPage(html string) models.PageState {
	if strings.TrimSpace(html) == "" {
		return models.PageStateEmpty
	}
	lower := strings.ToLower(html)
	for _, marker := range captchaMarkers {
		if strings.Contains(lower, marker) {
			return models.PageStateCaptcha
		}
	}
	for _, marker := range blockedMarkers {
		if strings.Contains(lower, marker) {
			return models.PageStateBlocked
		}
	}
	for _, marker := range errorMarkers {
		if strings.Contains(lower, marker) {
			return models.PageStateError
		}
	}
	return models.PageStateNormal
}

// HasNextPage reports whether an enabled next-page control exists.
func (s *Service) HasNextPage(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	for _, selector := range s.NextPageSelectors() {
		control := doc.Find(selector).First()
		if control.Length() == 0 {
			continue
		}
		class, _ := control.Attr("class")
		if isDisabled(class) {
			continue
		}
		if disabled, ok := control.Attr("disabled"); ok && disabled != "false" {
			continue
		}
		return true
	}
	return false
}

// NextPageSelectors returns the click chain for advancing a page.
func (s *Service) NextPageSelectors() []string {
	return chain(s.selectors.SearchPage, "next_page", nextPageChain)
}

func isDisabled(class string) bool {
	for _, marker := range disabledMarkers {
		for _, part := range strings.Fields(class) {
			if part == marker {
				return true
			}
		}
	}
	return false
}

var pageParams = []string{"page", "p", "pageNum", "pageIndex", "currentPage"}

// CurrentPageInfo derives the pagination position from URL params, falling
// back to the active pagination element.
func (s *Service) CurrentPageInfo(pageURL string, html string) models.PageInfo {
	info := models.PageInfo{CurrentPage: 1, URL: pageURL}

	if parsed, err := url.Parse(pageURL); err == nil {
		query := parsed.Query()
		for _, param := range pageParams {
			if value := query.Get(param); value != "" {
				if n, err := strconv.Atoi(value); err == nil && n > 0 {
					info.CurrentPage = n
					break
				}
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return info
	}

	info.Title = compactText(doc.Find("title").First().Text())
	info.HasNext = s.HasNextPage(html)

	if info.CurrentPage == 1 {
		active := compactText(doc.Find(".pagination .active, .ui-pager .active, .pager .current").First().Text())
		if n, err := strconv.Atoi(active); err == nil && n > 0 {
			info.CurrentPage = n
		}
	}
	return info
}

// compactText trims and collapses internal whitespace runs to single spaces.
func compactText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
