package telegram

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

var markdownEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	"`", "\\`",
	`[`, `\[`,
	`]`, `\]`,
)

// SanitizeMarkdown escapes the characters legacy Telegram Markdown treats as markup.
func SanitizeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// ReviewKeyboard is the approve / reject / add-info keyboard attached to a review post.
func ReviewKeyboard(requestID string) *models.InlineKeyboard {
	return &models.InlineKeyboard{InlineKeyboard: [][]models.InlineButton{{
		{Text: "✅ Одобрить", CallbackData: actionData(requestID, ActionApprove)},
		{Text: "❌ Отклонить", CallbackData: actionData(requestID, ActionReject)},
		{Text: "➕ Нужна информация", CallbackData: actionData(requestID, ActionAdd)},
	}}}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return SanitizeMarkdown(s)
}

func rub(v *float64) string {
	if v == nil || *v == 0 {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// BuildChannelPost renders the review post. User-supplied text is escaped; links are kept as given.
func BuildChannelPost(p models.SubmissionPayload, a *models.AnalysisResult, notionURL string) string {
	volume := ""
	if a.VolumePages != nil {
		volume = a.VolumePages.Raw
	}
	risks := a.MissingRequirements
	if len(risks) > 3 {
		risks = risks[:3]
	}
	blob := p.BlobURL
	if a.Links != nil && a.Links.Blob != "" {
		blob = a.Links.Blob
	}

	lines := []string{
		"🔍 *Новая заявка на анализ документов*",
		"",
		"*Проект:* " + SanitizeMarkdown(p.ProjectName),
		"*Заявитель:* " + SanitizeMarkdown(p.TelegramUsername),
		"",
		"*📋 Детали:*",
		"• *Процесс:* " + orDash(a.Process),
		"• *Типы документов:* " + orDash(strings.Join(a.DocumentTypes, ", ")),
		"• *Объём:* " + orDash(volume),
		"• *ARR:* " + rub(a.ArrRub) + " ₽",
		"• *ACV:* " + rub(a.AcvRub) + " ₽",
		"• *Размещение:* " + orDash(string(a.Placement)),
		"",
		"*🎯 Оценка:*",
		fmt.Sprintf("• *Реализуемость:* %s (%d%% уверенность)", a.Feasibility, int(math.Round(a.Confidence*100))),
		"• *Сроки:* " + orDash(a.EstimatedTimeline),
		"• *Основные риски:* " + orDash(strings.Join(risks, ", ")),
		"",
		"*🔗 Ссылки:*",
		fmt.Sprintf("• [Квота](%s)", p.QuotaLink),
	}
	if p.TZLink != "" {
		lines = append(lines, fmt.Sprintf("• [ТЗ](%s)", p.TZLink))
	}
	if p.PipedriveLink != "" {
		lines = append(lines, fmt.Sprintf("• [Pipedrive](%s)", p.PipedriveLink))
	}
	if p.ExamplesLink != "" {
		lines = append(lines, fmt.Sprintf("• [Примеры](%s)", p.ExamplesLink))
	}
	lines = append(lines,
		fmt.Sprintf("• [Исходный файл](%s)", blob),
		"",
		"📊 *Подробности:* "+notionURL,
	)
	return strings.Join(lines, "\n")
}
