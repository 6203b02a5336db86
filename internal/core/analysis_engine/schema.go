package analysis_engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

type object = map[string]json.RawMessage

func invalidJSON(format string, args ...any) error {
	return models.NewAppError(models.CodeModelInvalidJSON, fmt.Errorf(format, args...))
}

// stripFence removes a surrounding markdown code fence such as ```json ... ```.
func stripFence(raw string) []byte {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return []byte(strings.TrimSpace(s))
}

// requireKeys fails when any key is absent or null.
func requireKeys(obj object, keys ...string) error {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return fmt.Errorf("missing %q", k)
		}
	}
	return nil
}

func present(obj object, key string) bool {
	v, ok := obj[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func isAbsURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// ParseImageSelection validates {selected:[{page,reason}], skip?:[{page,reason}]}.
func ParseImageSelection(raw string) ([]models.PageSelection, error) {
	var top object
	if err := json.Unmarshal(stripFence(raw), &top); err != nil {
		return nil, invalidJSON("image selection: %v", err)
	}
	if err := requireKeys(top, "selected"); err != nil {
		return nil, invalidJSON("image selection: %v", err)
	}
	selected, err := parsePageList(top["selected"])
	if err != nil {
		return nil, invalidJSON("image selection: selected: %v", err)
	}
	if present(top, "skip") {
		if _, err := parsePageList(top["skip"]); err != nil {
			return nil, invalidJSON("image selection: skip: %v", err)
		}
	}
	return selected, nil
}

func parsePageList(raw json.RawMessage) ([]models.PageSelection, error) {
	var items []object
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]models.PageSelection, 0, len(items))
	for i, it := range items {
		if err := requireKeys(it, "page", "reason"); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		var sel models.PageSelection
		if err := json.Unmarshal(it["page"], &sel.Page); err != nil {
			return nil, fmt.Errorf("item %d: page: %w", i, err)
		}
		if sel.Page < 1 {
			return nil, fmt.Errorf("item %d: page %d < 1", i, sel.Page)
		}
		if err := json.Unmarshal(it["reason"], &sel.Reason); err != nil {
			return nil, fmt.Errorf("item %d: reason: %w", i, err)
		}
		out = append(out, sel)
	}
	return out, nil
}

// ParseChunkSelection validates {selected:[{id,reason}]}.
func ParseChunkSelection(raw string) ([]models.ChunkSelection, error) {
	var top object
	if err := json.Unmarshal(stripFence(raw), &top); err != nil {
		return nil, invalidJSON("chunk selection: %v", err)
	}
	if err := requireKeys(top, "selected"); err != nil {
		return nil, invalidJSON("chunk selection: %v", err)
	}
	var items []object
	if err := json.Unmarshal(top["selected"], &items); err != nil {
		return nil, invalidJSON("chunk selection: selected: %v", err)
	}
	out := make([]models.ChunkSelection, 0, len(items))
	for i, it := range items {
		if err := requireKeys(it, "id", "reason"); err != nil {
			return nil, invalidJSON("chunk selection: item %d: %v", i, err)
		}
		var sel models.ChunkSelection
		if err := json.Unmarshal(it["id"], &sel.ID); err != nil {
			return nil, invalidJSON("chunk selection: item %d: id: %v", i, err)
		}
		if err := json.Unmarshal(it["reason"], &sel.Reason); err != nil {
			return nil, invalidJSON("chunk selection: item %d: reason: %v", i, err)
		}
		out = append(out, sel)
	}
	return out, nil
}

// ParseFindings accepts a bare array, {"findings": [...]}, or an object whose only array-valued key
// holds the findings. JSON-object-only backends pick their own wrapper key.
func ParseFindings(raw string) ([]models.DiagramFinding, error) {
	items, err := findingItems(stripFence(raw))
	if err != nil {
		return nil, invalidJSON("diagram findings: %v", err)
	}
	out := make([]models.DiagramFinding, 0, len(items))
	for i, it := range items {
		f, err := parseFinding(it)
		if err != nil {
			return nil, invalidJSON("diagram findings: item %d: %v", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func findingItems(body []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var top object
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	if v, ok := top["findings"]; ok {
		if err := json.Unmarshal(v, &items); err != nil {
			return nil, fmt.Errorf("findings: %w", err)
		}
		return items, nil
	}
	arrays := 0
	for _, v := range top {
		if isArray(v) {
			arrays++
			items = nil
			if err := json.Unmarshal(v, &items); err != nil {
				return nil, err
			}
		}
	}
	if arrays != 1 {
		return nil, fmt.Errorf("expected one array of findings, got %d", arrays)
	}
	return items, nil
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

func parseFinding(raw json.RawMessage) (models.DiagramFinding, error) {
	var f models.DiagramFinding
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return f, err
	}
	if err := requireKeys(obj, "page", "type", "description", "implications"); err != nil {
		return f, err
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, err
	}
	switch f.Type {
	case models.DiagramTypeDiagram, models.DiagramTypeChart, models.DiagramTypeTable, models.DiagramTypeUnknown:
	default:
		return f, fmt.Errorf("type %q", f.Type)
	}
	if f.ImageURL != "" && !isAbsURL(f.ImageURL) {
		return f, fmt.Errorf("imageUrl %q is not a URL", f.ImageURL)
	}
	if present(obj, "bbox") {
		var box object
		if err := json.Unmarshal(obj["bbox"], &box); err != nil {
			return f, fmt.Errorf("bbox: %w", err)
		}
		if err := requireKeys(box, "x", "y", "w", "h"); err != nil {
			return f, fmt.Errorf("bbox: %w", err)
		}
	}
	return f, nil
}

var analysisRequired = []string{
	"feasibility", "comments", "missingRequirements", "estimatedTimeline", "confidence", "documentSummary",
}

// ParseAnalysis decodes and strictly validates an analysis result. Unknown keys are ignored.
func ParseAnalysis(raw string) (*models.AnalysisResult, error) {
	body := stripFence(raw)

	var obj object
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, invalidJSON("analysis: %v", err)
	}
	if err := requireKeys(obj, analysisRequired...); err != nil {
		return nil, invalidJSON("analysis: %v", err)
	}

	var res models.AnalysisResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, invalidJSON("analysis: %v", err)
	}
	if err := validateAnalysis(&res, obj); err != nil {
		return nil, invalidJSON("analysis: %v", err)
	}
	return &res, nil
}

func validateAnalysis(res *models.AnalysisResult, obj object) error {
	switch res.Feasibility {
	case models.FeasibilityHigh, models.FeasibilityMedium, models.FeasibilityLow, models.FeasibilityUnknown:
	default:
		return fmt.Errorf("feasibility %q", res.Feasibility)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", res.Confidence)
	}
	if present(obj, "diagramFindings") {
		var items []json.RawMessage
		if err := json.Unmarshal(obj["diagramFindings"], &items); err != nil {
			return fmt.Errorf("diagramFindings: %w", err)
		}
		for i, it := range items {
			if _, err := parseFinding(it); err != nil {
				return fmt.Errorf("diagramFindings[%d]: %w", i, err)
			}
		}
	}
	if present(obj, "volumePages") {
		var vp object
		if err := json.Unmarshal(obj["volumePages"], &vp); err != nil {
			return fmt.Errorf("volumePages: %w", err)
		}
		if err := requireKeys(vp, "raw"); err != nil {
			return fmt.Errorf("volumePages: %w", err)
		}
	}
	if present(obj, "placement") {
		switch res.Placement {
		case models.PlacementCloud, models.PlacementOnPrem, models.PlacementHybrid, models.PlacementUnknown:
		default:
			return fmt.Errorf("placement %q", res.Placement)
		}
	}
	if l := res.Links; l != nil {
		for name, v := range map[string]string{
			"quota": l.Quota, "tz": l.TZ, "pipedrive": l.Pipedrive, "examples": l.Examples, "blob": l.Blob,
		} {
			if v != "" && !isAbsURL(v) {
				return fmt.Errorf("links.%s %q is not a URL", name, v)
			}
		}
	}
	return nil
}
