package models

// SubmissionPayload is what the requester fills in alongside the uploaded file.
type SubmissionPayload struct {
	ProjectName       string   `json:"projectName"`
	TelegramUsername  string   `json:"telegramUsername"` // "@nick" or "nick"
	DocumentationURLs []string `json:"documentationUrls"`
	TZLink            string   `json:"tzLink,omitempty"`
	QuotaLink         string   `json:"quotaLink"`
	PipedriveLink     string   `json:"pipedriveLink,omitempty"`
	ExamplesLink      string   `json:"examplesLink,omitempty"`
	BlobURL           string   `json:"blobUrl"`
	FileName          string   `json:"fileName"`
}

// UploadedFile is the binary document submitted for analysis.
type UploadedFile struct {
	Name string
	Type string // MIME type
	Data []byte
}

// DocChunk is one heading-aligned, size-bounded piece of documentation markdown.
type DocChunk struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
	Content string `json:"content"`
}

// ChunkMeta is the part of a chunk offered to the reasoning service during selection.
type ChunkMeta struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
}

// Meta strips the content from a chunk.
func (c DocChunk) Meta() ChunkMeta {
	return ChunkMeta{ID: c.ID, Title: c.Title, Size: c.Size, Preview: c.Preview}
}

// PageInfo describes one processed PDF page.
type PageInfo struct {
	Page         int    `json:"page"` // 1-based
	TextChars    int    `json:"textChars"`
	ThumbnailURL string `json:"url"`
}

// PageSelection references a page picked by the reasoning service.
type PageSelection struct {
	Page   int    `json:"page"`
	Reason string `json:"reason"`
}

// ChunkSelection references a documentation chunk picked by the reasoning service.
type ChunkSelection struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// SelectedImage is a page image that goes into the analysis prompt.
type SelectedImage struct {
	Page   int    `json:"page"`
	URL    string `json:"url"`
	Reason string `json:"reason,omitempty"`
}

// AnalysisInput is the exact material the analysis prompt is built from.
type AnalysisInput struct {
	DocSummary     string
	SelectedChunks []DocChunk
	Images         []SelectedImage
}

type Feasibility string

const (
	FeasibilityHigh    Feasibility = "high"
	FeasibilityMedium  Feasibility = "medium"
	FeasibilityLow     Feasibility = "low"
	FeasibilityUnknown Feasibility = "unknown"
)

type Placement string

const (
	PlacementCloud   Placement = "Cloud"
	PlacementOnPrem  Placement = "On-prem"
	PlacementHybrid  Placement = "Hybrid"
	PlacementUnknown Placement = "Unknown"
)

type DiagramType string

const (
	DiagramTypeDiagram DiagramType = "diagram"
	DiagramTypeChart   DiagramType = "chart"
	DiagramTypeTable   DiagramType = "table"
	DiagramTypeUnknown DiagramType = "unknown"
)

// BBox is a region on a page image, in pixels.
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DiagramFinding is one diagram/chart/table spotted on a page thumbnail.
type DiagramFinding struct {
	Page         int         `json:"page"`
	Type         DiagramType `json:"type"`
	Description  string      `json:"description"`
	Implications string      `json:"implications"`
	ImageURL     string      `json:"imageUrl,omitempty"`
	BBox         *BBox       `json:"bbox,omitempty"`
}

// VolumePages is the expected document volume as stated by the model.
type VolumePages struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
	Raw string   `json:"raw"`
}

// AnalysisLinks are links the model chose to surface.
type AnalysisLinks struct {
	Quota     string `json:"quota,omitempty"`
	TZ        string `json:"tz,omitempty"`
	Pipedrive string `json:"pipedrive,omitempty"`
	Examples  string `json:"examples,omitempty"`
	Blob      string `json:"blob,omitempty"`
}

// AnalysisResult is the validated structured answer of the analysis stage.
// It is the only artifact that gets persisted and published.
type AnalysisResult struct {
	Feasibility         Feasibility      `json:"feasibility"`
	Comments            string           `json:"comments"`
	MissingRequirements []string         `json:"missingRequirements"`
	EstimatedTimeline   string           `json:"estimatedTimeline"`
	Confidence          float64          `json:"confidence"` // 0..1
	DocumentSummary     string           `json:"documentSummary"`
	DiagramFindings     []DiagramFinding `json:"diagramFindings,omitempty"`
	Process             string           `json:"process,omitempty"`
	DocumentTypes       []string         `json:"documentTypes,omitempty"`
	FieldsToExtract     []string         `json:"fieldsToExtract,omitempty"`
	VolumePages         *VolumePages     `json:"volumePages,omitempty"`
	ArrRub              *float64         `json:"arrRub,omitempty"`
	AcvRub              *float64         `json:"acvRub,omitempty"`
	Placement           Placement        `json:"placement,omitempty"`
	SecurityTags        []string         `json:"securityTags,omitempty"`
	Links               *AnalysisLinks   `json:"links,omitempty"`
}

// TokenEstimate is the heuristic footprint of the analysis prompt.
type TokenEstimate struct {
	Input  int `json:"input"`
	Output int `json:"output,omitempty"`
}

// PromptContextLog records what material the analysis actually used.
type PromptContextLog struct {
	DocSummaryUsed    string          `json:"docSummaryUsed"`
	SelectedDocChunks []ChunkLogEntry `json:"selectedDocChunks"`
	SelectedImages    []SelectedImage `json:"selectedImages"`
	TokenEstimate     TokenEstimate   `json:"tokenEstimate"`
	CostEstimateUSD   float64         `json:"costEstimateUsd,omitempty"`
	Truncated         bool            `json:"truncated,omitempty"`
}

type ChunkLogEntry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type ReviewStatus string

const (
	ReviewPending   ReviewStatus = "pending"
	ReviewApproved  ReviewStatus = "approved"
	ReviewRejected  ReviewStatus = "rejected"
	ReviewNeedsInfo ReviewStatus = "needs-info"
	ReviewCompleted ReviewStatus = "completed"
	ReviewError     ReviewStatus = "error"
)

type Requester struct {
	Username string `json:"username"`
	UserID   int64  `json:"userId,omitempty"`
}

type TelegramRefs struct {
	ChannelMessageID int64 `json:"channelMessageId,omitempty"`
	ThreadID         int64 `json:"threadId,omitempty"`
}

// ReviewRequest is the persisted lifecycle record of one submission.
type ReviewRequest struct {
	SubmissionPayload

	ID            string          `json:"id"`
	CreatedAt     int64           `json:"createdAt"` // unix millis
	Status        ReviewStatus    `json:"status"`
	NotionPageID  string          `json:"notionPageId,omitempty"`
	NotionURL     string          `json:"notionUrl,omitempty"`
	Analysis      *AnalysisResult `json:"analysis,omitempty"`
	Requester     Requester       `json:"requester"`
	Telegram      TelegramRefs    `json:"telegram"`
	Decision      string          `json:"decision,omitempty"`
	LastAction    string          `json:"lastAction,omitempty"`
	LastModerator string          `json:"lastModerator,omitempty"`
}

type Stage string

const (
	StageUploading       Stage = "uploading"
	StageProcessingPDF   Stage = "processing-pdf"
	StageProcessingDOCX  Stage = "processing-docx"
	StageFetchingDocs    Stage = "fetching-docs"
	StageSelectingImages Stage = "selecting-images"
	StageSelectingChunks Stage = "selecting-chunks"
	StageAnalyzing       Stage = "analyzing"
	StageCreatingNotion  Stage = "creating-notion"
	StagePostingTelegram Stage = "posting-telegram"
	StageCompleted       Stage = "completed"
	StageError           Stage = "error"
)

// Terminal reports whether no further status may follow this stage.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageError
}

type StatusError struct {
	Code    ErrorCode `json:"code"`
	Details string    `json:"details,omitempty"`
}

// ProcessingStatus is a progress event streamed to the caller.
type ProcessingStatus struct {
	Stage    Stage        `json:"stage"`
	Progress int          `json:"progress"`
	Message  string       `json:"message"`
	Error    *StatusError `json:"error,omitempty"`
}

// AnalyzeResultEvent is the payload of the terminal "result" event.
type AnalyzeResultEvent struct {
	BlobURL      string          `json:"blobUrl"`
	NotionPageID string          `json:"notionPageId"`
	NotionURL    string          `json:"notionUrl"`
	Analysis     *AnalysisResult `json:"analysis"`
	RequestID    string          `json:"requestId"`
}

// PageRef identifies a created Notion page.
type PageRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SentMessage identifies a delivered Telegram message.
type SentMessage struct {
	MessageID int64 `json:"message_id"`
	ThreadID  int64 `json:"message_thread_id,omitempty"`
}

type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// InlineKeyboard is a Telegram reply_markup with inline buttons.
type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}
