package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

const pageJSON = `{"object":"page","id":"page-1","url":"https://notion.so/page-1","properties":{}}`

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func newNotionServer(t *testing.T) (*httptest.Server, *[]recorded) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Notion-Version"))
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recorded{r.Method, r.URL.Path, body})
		mu.Unlock()
		if strings.HasPrefix(r.URL.Path, "/v1/pages") {
			_, _ = w.Write([]byte(pageJSON))
			return
		}
		_, _ = w.Write([]byte(`{"object":"list","results":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func paragraphText(b notionapi.Block) string {
	p, ok := b.(*notionapi.ParagraphBlock)
	if !ok || len(p.Paragraph.RichText) == 0 || p.Paragraph.RichText[0].Text == nil {
		return ""
	}
	return p.Paragraph.RichText[0].Text.Content
}

func TestCreatePageAppendsOverflowBlocks(t *testing.T) {
	srv, calls := newNotionServer(t)
	c := NewClient(srv.URL+"/v1", "secret", "db-1", 5*time.Second)

	blocks := ParagraphBlocks(strings.Repeat("x", 2000*150))
	require.Len(t, blocks, 150)

	ref, err := c.CreatePage(context.Background(), notionapi.Properties{"Name": richText("x")}, blocks)
	require.NoError(t, err)

	assert.Equal(t, &models.PageRef{ID: "page-1", URL: "https://notion.so/page-1"}, ref)
	require.Len(t, *calls, 2)
	first := (*calls)[0]
	assert.Equal(t, http.MethodPost, first.method)
	assert.Equal(t, "/v1/pages", first.path)
	assert.Equal(t, "db-1", first.body["parent"].(map[string]any)["database_id"])
	assert.Len(t, first.body["children"], 100)
	second := (*calls)[1]
	assert.Equal(t, http.MethodPatch, second.method)
	assert.Equal(t, "/v1/blocks/page-1/children", second.path)
	assert.Len(t, second.body["children"], 50)
}

func TestUpdatePage(t *testing.T) {
	srv, calls := newNotionServer(t)
	c := NewClient(srv.URL, "secret", "db-1", 5*time.Second)

	require.NoError(t, c.UpdatePage(context.Background(), "page-9", notionapi.Properties{"Decision": selectOpt("Approved")}))

	require.Len(t, *calls, 1)
	assert.Equal(t, "/v1/pages/page-9", (*calls)[0].path)
	assert.Equal(t, http.MethodPatch, (*calls)[0].method)
	decision := (*calls)[0].body["properties"].(map[string]any)["Decision"].(map[string]any)
	assert.Equal(t, "Approved", decision["select"].(map[string]any)["name"])
}

func TestClientErrors(t *testing.T) {
	_, err := NewClient("", "", "", time.Second).CreatePage(context.Background(), nil, nil)
	assert.True(t, errors.Is(err, models.ErrNotConfigured))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","status":400,"code":"validation_error","message":"Name is not a property"}`))
	}))
	defer srv.Close()
	_, err = NewClient(srv.URL, "t", "db", time.Second).CreatePage(context.Background(), notionapi.Properties{}, nil)
	assert.ErrorContains(t, err, "create page")
	assert.ErrorContains(t, err, "Name is not a property")
}

func ptr(f float64) *float64 { return &f }

func TestBuildProperties(t *testing.T) {
	b := NewPropertyBuilder(map[string]string{"Name": "Проект"})
	payload := models.SubmissionPayload{
		ProjectName:      "Acme OCR",
		TelegramUsername: "@alice",
		QuotaLink:        "https://quota/1",
		TZLink:           "https://tz/1",
		BlobURL:          "https://blob/1.pdf",
	}
	analysis := &models.AnalysisResult{
		Feasibility:       models.FeasibilityHigh,
		Confidence:        0.876,
		EstimatedTimeline: "4 weeks",
		FieldsToExtract:   []string{"INN", "Total"},
		DocumentTypes:     []string{"invoice"},
		VolumePages:       &models.VolumePages{Raw: "10 000 pages / month"},
		AcvRub:            ptr(1500000),
		Links:             &models.AnalysisLinks{Quota: "https://quota/override"},
	}

	props := b.Build(payload, analysis)

	assert.Contains(t, props, "Проект")
	assert.NotContains(t, props, "Name")
	assert.Equal(t, number(88), props["Confidence"])
	assert.Equal(t, number(10000), props["Volume, pages"])
	assert.Equal(t, notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: "https://quota/override"}, props["Quota Link"])
	assert.Equal(t, notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: "https://tz/1"}, props["TZ Link"])
	assert.Equal(t, notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: "https://blob/1.pdf"}, props["Blob File URL"])
	assert.NotContains(t, props, "Pipedrive Link")
	assert.NotContains(t, props, "ARR (RUB)")
	assert.Equal(t, number(1500000), props["ACV (RUB)"])
	assert.Equal(t, richText("INN, Total"), props["Fields to extract"])
	assert.Equal(t, multiSelect([]string{"invoice"}), props["Document types"])
	assert.Equal(t, selectOpt("Pending"), props["Decision"])
}

func TestBuildPropertiesCutsLongText(t *testing.T) {
	long := strings.Repeat("ж", 2500)
	props := NewPropertyBuilder(nil).Build(
		models.SubmissionPayload{ProjectName: long, TelegramUsername: "@a"},
		&models.AnalysisResult{Feasibility: models.FeasibilityLow, Process: long},
	)

	title := props["Name"].(notionapi.TitleProperty).Title
	require.Len(t, title, 1)
	assert.Equal(t, 2000, len([]rune(title[0].Text.Content)))
	process := props["Process"].(notionapi.RichTextProperty).RichText
	assert.Equal(t, strings.Repeat("ж", 2000), process[0].Text.Content)
}

func TestVolumeNumber(t *testing.T) {
	n, ok := volumeNumber("≈ 2 500 стр.")
	assert.True(t, ok)
	assert.EqualValues(t, 2500, n)

	_, ok = volumeNumber("unknown")
	assert.False(t, ok)
}

func TestDecisionUpdate(t *testing.T) {
	at := time.Date(2025, 3, 1, 13, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	props := NewPropertyBuilder(nil).DecisionUpdate("Approved", "approve", "bob", at)

	assert.Equal(t, selectOpt("Approved"), props["Decision"])
	assert.Equal(t, selectOpt("approve"), props["Last Action"])
	date := props["Last Action At"].(notionapi.DateProperty).Date
	require.NotNil(t, date.Start)
	assert.True(t, time.Time(*date.Start).Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, time.Time(*date.Start).Location())
	assert.Equal(t, richText("@bob"), props["Last Moderator (TG)"])
}

func TestParagraphBlocks(t *testing.T) {
	assert.Empty(t, ParagraphBlocks(""))
	blocks := ParagraphBlocks(strings.Repeat("я", 2001))
	require.Len(t, blocks, 2)
	assert.Equal(t, 2000, len([]rune(paragraphText(blocks[0]))))
	assert.Equal(t, "я", paragraphText(blocks[1]))
	assert.Equal(t, notionapi.BlockTypeParagraph, blocks[0].GetType())
}
