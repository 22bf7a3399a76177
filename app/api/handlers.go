package api

import (
	"cmp"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/database"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/feed"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/llm"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/pipeline"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/prompt"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/review"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/tasks"
)

const feedItemLimit = 50

// Deps are the collaborators of the dashboard API.
type Deps struct {
	Catalog          CatalogInterface
	ContentRepo      database.ContentRepository
	ChannelRepo      database.ChannelRepository
	Pipeline         PipelineInterface
	Usage            UsageInterface
	UsageStore       HealthChecker // nil unless daily usage goes to Redis
	ConfigCache      *feed.ConfigCache
	Fetcher          *tasks.Fetcher
	Parser           *feed.Parser
	Filterer         *feed.Filterer
	ContentExtractor *feed.ContentExtractor
	Scheduler        tasks.TaskSchedulerInterface
	PublicURL        string
	Version          string
}

type Handler struct {
	Deps
	generator GeneratorInterface
	version   string
	now       func() time.Time
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		Deps:      deps,
		generator: feed.NewGenerator(),
		version:   cmp.Or(deps.Version, "dev"),
		now:       time.Now,
	}
}

// GetChannelFeed serves the published texts of one channel as RSS.
func (h *Handler) GetChannelFeed(c *gin.Context) {
	id := c.Param("channel")

	ch, err := h.Catalog.Channel(id)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	entries, err := h.ChannelRepo.ListPublished(c.Request.Context(), ch.ID, feedItemLimit)
	if err != nil {
		slog.Error("Database error", "operation", "list_published", "channel", ch.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	base := strings.TrimRight(h.PublicURL, "/")
	rss, err := h.generator.Run(feed.ChannelFeed{
		Title:       "BRITZMEDI " + ch.Name,
		Link:        base + "/",
		SelfURL:     base + "/feeds/" + ch.ID,
		Description: ch.Name + " 채널 발행 콘텐츠",
		Language:    "ko",
		Generator:   "britzmedi-contents-ops " + h.version,
	}, entries)
	if err != nil {
		slog.Error("RSS generation error", "channel", ch.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(entries)))
	c.Header("X-Feed-Channel", ch.ID)

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": h.now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"channels":  len(h.Catalog.Channels()),
	}

	if count, err := h.ContentRepo.GetContentCount(c.Request.Context()); err == nil {
		health["contents"] = count
	}
	if h.ConfigCache != nil {
		health["loaded_sources"] = h.ConfigCache.GetConfigCount()
	}
	if h.UsageStore != nil {
		health["usage_store"] = h.UsageStore.Health(c.Request.Context())
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListChannels(c *gin.Context) {
	channels := h.Catalog.Channels()
	c.JSON(http.StatusOK, gin.H{"channels": channels, "total": len(channels)})
}

func (h *Handler) ListContentTypes(c *gin.Context) {
	types := h.Catalog.ContentTypes()
	c.JSON(http.StatusOK, gin.H{"contentTypes": types, "total": len(types)})
}

func (h *Handler) CreateContent(c *gin.Context) {
	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.Catalog.ContentType(req.SourceType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown content type", "details": req.SourceType})
		return
	}
	for _, id := range req.Channels {
		if _, err := h.Catalog.Channel(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown channel", "details": id})
			return
		}
	}

	content := &database.Content{
		Title:           req.Title,
		SourceType:      req.SourceType,
		Body:            req.Body,
		AIDraft:         req.AIDraft,
		Category:        req.Category,
		Channels:        req.Channels,
		ConfirmedFields: req.ConfirmedFields,
		SourceURL:       req.SourceURL,
	}
	if err := h.ContentRepo.CreateContent(c.Request.Context(), content); err != nil {
		slog.Error("Database error", "operation", "create_content", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, content)
}

func (h *Handler) ListContents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	status := c.Query("status")
	if status != "" && !database.ValidStage(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "details": status})
		return
	}

	contents, err := h.ContentRepo.ListContents(c.Request.Context(), database.ContentFilter{Status: status, Limit: limit})
	if err != nil {
		slog.Error("Database error", "operation", "list_contents", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if contents == nil {
		contents = []database.Content{}
	}

	c.JSON(http.StatusOK, gin.H{"contents": contents, "total": len(contents)})
}

func (h *Handler) GetContent(c *gin.Context) {
	content, ok := h.loadContent(c)
	if !ok {
		return
	}

	channels, err := h.ChannelRepo.ListChannels(c.Request.Context(), content.ID)
	if err != nil {
		slog.Error("Database error", "operation", "list_channels", "content_id", content.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if channels == nil {
		channels = []database.ChannelContent{}
	}

	c.JSON(http.StatusOK, gin.H{"content": content, "channels": channels})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := c.Param("id")
	err := h.ContentRepo.UpdateStatus(c.Request.Context(), id, req.Status)
	switch {
	case errors.Is(err, database.ErrInvalidStage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "details": req.Status})
		return
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	case err != nil:
		slog.Error("Database error", "operation", "update_status", "content_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info("Content status updated", "content_id", id, "status", req.Status)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id, "status": req.Status})
}

// GenerateContent runs the pipeline for a stored content item. Results are
// persisted by the pipeline hooks.
func (h *Handler) GenerateContent(c *gin.Context) {
	var req generateRequest
	// the body is optional
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	content, ok := h.loadContent(c)
	if !ok {
		return
	}

	channels := req.Channels
	if len(channels) == 0 {
		channels = content.Channels
	}
	if len(channels) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No channels selected"})
		return
	}

	opts := req.Options
	if len(opts.ConfirmedFields) == 0 {
		opts.ConfirmedFields = content.ConfirmedFields
	}

	h.runPipeline(c, pipeline.Request{
		ContentID: content.ID,
		Source:    SourceFromContent(content),
		Channels:  channels,
		Options:   opts,
		Review:    req.Review || req.AutoFix,
		AutoFix:   req.AutoFix,
	})
}

// Generate runs the pipeline on an ad-hoc source that is not stored.
func (h *Handler) Generate(c *gin.Context) {
	var req adHocGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Source.Body) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source body is required"})
		return
	}

	h.runPipeline(c, pipeline.Request{
		Source:   req.Source,
		Channels: req.Channels,
		Options:  req.Options,
		Review:   req.Review || req.AutoFix,
		AutoFix:  req.AutoFix,
	})
}

func (h *Handler) runPipeline(c *gin.Context, req pipeline.Request) {
	res := h.Pipeline.Run(c.Request.Context(), req)

	if len(res.Succeeded()) == 0 && len(res.Channels) > 0 {
		err := res.Channels[0].Err
		status := llm.HTTPStatus(err)
		if errors.Is(err, pipeline.ErrUnknownChannel) {
			status = http.StatusBadRequest
		}
		slog.Error("Generation failed for every channel", "content_id", req.ContentID, "error", err)
		c.JSON(status, gin.H{"error": "Generation failed", "result": res})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListChannelContents(c *gin.Context) {
	content, ok := h.loadContent(c)
	if !ok {
		return
	}

	channels, err := h.ChannelRepo.ListChannels(c.Request.Context(), content.ID)
	if err != nil {
		slog.Error("Database error", "operation", "list_channels", "content_id", content.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if channels == nil {
		channels = []database.ChannelContent{}
	}

	c.JSON(http.StatusOK, gin.H{"channels": channels, "total": len(channels)})
}

// EditChannelContent stores a user edit and logs it to the edit history.
func (h *Handler) EditChannelContent(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, channel := c.Param("id"), c.Param("channel")
	rec, err := h.ChannelRepo.ApplyEdit(c.Request.Context(), id, channel, req.Text, req.Reason)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel content not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "apply_edit", "content_id", id, "channel", channel, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info("Channel content edited",
		"content_id", id,
		"channel", channel,
		"edit_type", rec.EditType,
		"changes", rec.Changes)

	c.JSON(http.StatusOK, rec)
}

func (h *Handler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.Catalog.Channel(req.Channel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown channel", "details": req.Channel})
		return
	}

	issues := h.Pipeline.Reviewer().Review(c.Request.Context(), req.Content, req.Channel, req.Source, req.ConfirmedFields)
	if issues == nil {
		issues = []review.Issue{}
	}

	c.JSON(http.StatusOK, gin.H{
		"issues":   issues,
		"blocking": review.HasBlocking(issues),
	})
}

// AutoFix repairs content for the given issues. A model failure still
// returns the deterministic repair, with a warning.
func (h *Handler) AutoFix(c *gin.Context) {
	var req autoFixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.Catalog.Channel(req.Channel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown channel", "details": req.Channel})
		return
	}

	reviewer := h.Pipeline.Reviewer()
	fixed, err := reviewer.AutoFix(c.Request.Context(), req.Content, req.Channel, req.Issues, req.ConfirmedFields)

	resp := gin.H{
		"content":   fixed,
		"changed":   fixed != req.Content,
		"remaining": nonNilIssues(reviewer.Check(fixed, req.ConfirmedFields)),
	}
	if err != nil {
		slog.Warn("Auto-fix fell back to deterministic repair", "channel", req.Channel, "error", err)
		resp["warning"] = err.Error()
	}

	c.JSON(http.StatusOK, resp)
}

// ImportURL imports one article page as a draft content item.
func (h *Handler) ImportURL(c *gin.Context) {
	var req importURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ContentType != "" {
		if _, err := h.Catalog.ContentType(req.ContentType); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown content type", "details": req.ContentType})
			return
		}
	}

	task := tasks.NewImportURLTask(req.URL, req.ContentType, h.Fetcher, h.ContentExtractor, h.ContentRepo)
	err := task.Execute(c.Request.Context())
	if errors.Is(err, database.ErrDuplicate) {
		c.JSON(http.StatusConflict, gin.H{"error": "Already imported", "details": req.URL})
		return
	}
	if err != nil {
		slog.Error("Import failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Import failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, task.Content)
}

func (h *Handler) ListSources(c *gin.Context) {
	configs := h.ConfigCache.GetEnabledConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))
	for _, sc := range configs {
		sources = append(sources, map[string]interface{}{
			"name":             sc.Name,
			"url":              sc.URL,
			"max_items":        sc.Settings.MaxItems,
			"refresh_interval": (time.Duration(sc.Settings.RefreshInterval) * time.Second).String(),
			"extract_content":  sc.Settings.ExtractContent,
			"content_type":     sc.Settings.ContentType,
			"filters":          len(sc.Filters),
		})
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources, "total": len(sources)})
}

// ImportSource reloads one source file and queues an import run for it.
func (h *Handler) ImportSource(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.ConfigCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	sourceConfig, err := h.ConfigCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	task := tasks.NewImportFeedTask(sourceConfig, h.Fetcher, h.Parser, h.Filterer, h.ContentExtractor, h.ContentRepo)
	if err := h.Scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing import task", "source", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue import task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"source":  gin.H{"name": name, "url": sourceConfig.URL},
		"task":    gin.H{"id": task.ID, "type": task.Type},
	})
}

func (h *Handler) ListEdits(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	edits, err := h.ChannelRepo.ListEdits(c.Request.Context(), c.Query("channel"), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_edits", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if edits == nil {
		edits = []database.EditRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"edits": edits, "total": len(edits)})
}

// GetUsage reports the process totals and one day's counters.
func (h *Handler) GetUsage(c *gin.Context) {
	day := h.now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date", "details": raw})
			return
		}
		day = parsed
	}

	daily, err := h.Usage.Daily(c.Request.Context(), day)
	if err != nil {
		slog.Error("Usage store error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Usage store error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": h.Usage.Summary(),
		"daily":   daily,
	})
}

func (h *Handler) loadContent(c *gin.Context) (*database.Content, bool) {
	id := c.Param("id")

	content, err := h.ContentRepo.GetContent(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return nil, false
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_content", "content_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	return content, true
}

// SourceFromContent builds the generation input of a stored item. The AI
// draft stands in when no body was written.
func SourceFromContent(content *database.Content) prompt.Source {
	src := prompt.Source{
		Type:     content.SourceType,
		Title:    content.Title,
		Body:     cmp.Or(strings.TrimSpace(content.Body), strings.TrimSpace(content.AIDraft)),
		Category: content.Category,
		Date:     content.CreatedAt.Format("2006-01-02"),
	}
	if content.SourceURL != "" {
		src.Metadata = map[string]string{"link": content.SourceURL}
	}
	return src
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}

func nonNilIssues(issues []review.Issue) []review.Issue {
	if issues == nil {
		return []review.Issue{}
	}
	return issues
}
