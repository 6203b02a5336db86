package analysis_engine

import (
	"fmt"
	"strings"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

func imageSelectionPrompt(pages []models.PageInfo, maxImages int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Вам передан список страниц PDF с количеством символов текста и URL изображения страницы. "+
		"Ваша задача выбрать до %d страниц с диаграммами/схемами, наиболее полезными для анализа. "+
		`Верните JSON формата { "selected": [ { "page": <num>, "reason": <string> } ], "skip": [ { "page": <num>, "reason": <string> } ] }`,
		maxImages)
	b.WriteString("\n\nPages:\n")
	for i, p := range pages {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "Page %d (textChars=%d) -> %s", p.Page, p.TextChars, p.ThumbnailURL)
	}
	return b.String()
}

func chunkSelectionPrompt(chunks []models.ChunkMeta) string {
	var b strings.Builder
	b.WriteString("Выберите релевантные чанки документации из ниже приведённого списка. " +
		`Верните JSON { "selected": [ { "id": <string>, "reason": <string> } ] }`)
	b.WriteString("\n\nChunks:\n")
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s: %s (%d chars)\n%s...", c.ID, c.Title, c.Size, c.Preview)
	}
	return b.String()
}

const diagramPrompt = "Вы эксперт по технической документации. Для каждой переданной страницы определи, " +
	"содержит ли она диаграмму / схему / таблицу, коротко опиши её и поясни, чем она полезна для анализа ТЗ. " +
	"Страницы переданы в порядке: %s. Верни STRICT JSON объект с массивом в ключе \"findings\":\n" +
	"{\"findings\": [{\n  \"page\": <number>,\n  \"type\": \"diagram|chart|table|unknown\",\n  \"description\": <string>,\n  \"implications\": <string>\n}]}"

func diagramDetectionPrompt(pages []DiagramPage) string {
	nums := make([]string, len(pages))
	for i, p := range pages {
		nums[i] = fmt.Sprint(p.Index)
	}
	return fmt.Sprintf(diagramPrompt, strings.Join(nums, ", "))
}

const analysisSchema = `{
  feasibility: "high" | "medium" | "low" | "unknown";
  comments: string;
  missingRequirements: string[];
  estimatedTimeline: string;
  confidence: number; // 0..1
  documentSummary: string;
  diagramFindings?: { page: number; type: "diagram" | "chart" | "table" | "unknown"; description: string; implications: string; imageUrl?: string; bbox?: { x: number; y: number; w: number; h: number } }[];
  process?: string;
  documentTypes?: string[];
  fieldsToExtract?: string[];
  volumePages?: { min?: number; max?: number; raw: string };
  arrRub?: number | null;
  acvRub?: number | null;
  placement?: "Cloud" | "On-prem" | "Hybrid" | "Unknown";
  securityTags?: string[];
  links?: { quota?: string; tz?: string; pipedrive?: string; examples?: string; blob?: string };
}`

func analysisPrompt(docSummary string, chunks []models.DocChunk, images []models.SelectedImage) string {
	sections := make([]string, len(chunks))
	for i, c := range chunks {
		sections[i] = fmt.Sprintf("### Chunk %d: %s\n%s", i+1, c.Title, c.Content)
	}
	chunkText := strings.Join(sections, "\n\n")
	if chunkText == "" {
		chunkText = "None"
	}

	lines := make([]string, len(images))
	for i, img := range images {
		lines[i] = fmt.Sprintf("Page %d: %s", img.Page, img.URL)
	}
	imageText := strings.Join(lines, "\n")
	if imageText == "" {
		imageText = "None"
	}

	return "You are an expert business analyst working with engineering requirements.\n\n" +
		"## Document Summary\n" + docSummary + "\n\n" +
		"## Selected Documentation Chunks\n" + chunkText + "\n\n" +
		"## Selected Images\n" + imageText + "\n\n" +
		"---\n" +
		"Return STRICT JSON matching the following TypeScript type (do NOT wrap in markdown):\n" + analysisSchema
}
