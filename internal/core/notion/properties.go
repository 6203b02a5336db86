package notion

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// Notion rejects rich text objects longer than this.
const richTextLimit = 2000

// PropertyBuilder renders Notion properties, renaming them through NOTION_PROPERTY_MAP.
type PropertyBuilder struct {
	rename map[string]string
}

func NewPropertyBuilder(rename map[string]string) *PropertyBuilder {
	return &PropertyBuilder{rename: rename}
}

func (b *PropertyBuilder) name(n string) string {
	if v, ok := b.rename[n]; ok && v != "" {
		return v
	}
	return n
}

// textRuns holds s in a single run, cut to richTextLimit characters.
func textRuns(s string) []notionapi.RichText {
	if r := []rune(s); len(r) > richTextLimit {
		s = string(r[:richTextLimit])
	}
	return []notionapi.RichText{{Type: notionapi.RichTextTypeText, Text: &notionapi.Text{Content: s}}}
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: textRuns(s)}
}

func selectOpt(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: name}}
}

func multiSelect(names []string) notionapi.MultiSelectProperty {
	opts := make([]notionapi.Option, len(names))
	for i, n := range names {
		opts[i] = notionapi.Option{Name: n}
	}
	return notionapi.MultiSelectProperty{Type: notionapi.PropertyTypeMultiSelect, MultiSelect: opts}
}

func number(v float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: v}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Build returns the properties of a new analysis page. Decision starts as Pending.
func (b *PropertyBuilder) Build(p models.SubmissionPayload, a *models.AnalysisResult) notionapi.Properties {
	props := notionapi.Properties{
		b.name("Name"):        notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: textRuns(p.ProjectName)},
		b.name("Requester"):   richText(p.TelegramUsername),
		b.name("Feasibility"): selectOpt(string(a.Feasibility)),
		b.name("Confidence"):  number(math.Round(a.Confidence * 100)),
	}
	if a.EstimatedTimeline != "" {
		props[b.name("Timeline")] = richText(a.EstimatedTimeline)
	}
	if a.Process != "" {
		props[b.name("Process")] = richText(a.Process)
	}
	if len(a.DocumentTypes) > 0 {
		props[b.name("Document types")] = multiSelect(a.DocumentTypes)
	}
	if len(a.FieldsToExtract) > 0 {
		props[b.name("Fields to extract")] = richText(strings.Join(a.FieldsToExtract, ", "))
	}
	if a.VolumePages != nil {
		if n, ok := volumeNumber(a.VolumePages.Raw); ok {
			props[b.name("Volume, pages")] = number(float64(n))
		}
	}
	if a.ArrRub != nil {
		props[b.name("ARR (RUB)")] = number(*a.ArrRub)
	}
	if a.AcvRub != nil {
		props[b.name("ACV (RUB)")] = number(*a.AcvRub)
	}
	if a.Placement != "" {
		props[b.name("Placement")] = selectOpt(string(a.Placement))
	}
	if len(a.SecurityTags) > 0 {
		props[b.name("Security / Compliance")] = multiSelect(a.SecurityTags)
	}

	var l models.AnalysisLinks
	if a.Links != nil {
		l = *a.Links
	}
	links := map[string]string{
		"Quota Link":     firstNonEmpty(l.Quota, p.QuotaLink),
		"TZ Link":        firstNonEmpty(l.TZ, p.TZLink),
		"Pipedrive Link": firstNonEmpty(l.Pipedrive, p.PipedriveLink),
		"Examples Link":  firstNonEmpty(l.Examples, p.ExamplesLink),
		"Blob File URL":  firstNonEmpty(l.Blob, p.BlobURL),
	}
	for prop, u := range links {
		if u != "" {
			props[b.name(prop)] = notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: u}
		}
	}

	props[b.name("Decision")] = selectOpt("Pending")
	return props
}

// DecisionUpdate returns the properties changed by a reviewer action.
func (b *PropertyBuilder) DecisionUpdate(decision, action, moderator string, at time.Time) notionapi.Properties {
	start := notionapi.Date(at.UTC())
	return notionapi.Properties{
		b.name("Decision"):    selectOpt(decision),
		b.name("Last Action"): selectOpt(action),
		b.name("Last Action At"): notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &start},
		},
		b.name("Last Moderator (TG)"): richText("@" + moderator),
	}
}

// volumeNumber keeps the digits of raw; ok is false when there are none or they read as zero.
func volumeNumber(raw string) (int64, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// ParagraphBlocks renders text as paragraph blocks of at most 2000 characters each.
func ParagraphBlocks(text string) []notionapi.Block {
	var blocks []notionapi.Block
	runes := []rune(text)
	for len(runes) > 0 {
		n := min(len(runes), richTextLimit)
		blocks = append(blocks, &notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeParagraph,
			},
			Paragraph: notionapi.Paragraph{RichText: textRuns(string(runes[:n]))},
		})
		runes = runes[n:]
	}
	return blocks
}
