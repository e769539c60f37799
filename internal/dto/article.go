package dto

import "github.com/ai-wes/fhj-content-api/internal/models"

// CreateArticleRequest describes the create payload. The server assigns the id.
type CreateArticleRequest struct {
	Title     string   `json:"title" validate:"required"`
	Slug      string   `json:"slug" validate:"omitempty,max=200"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content" validate:"required"`
	Category  string   `json:"category" validate:"required"`
	Tags      []string `json:"tags"`
	Status    string   `json:"status" validate:"omitempty,article_status"`
	ReadTime  int      `json:"read_time" validate:"omitempty,min=0"`
	HeroImage *string  `json:"hero_image"`
}

// UpdateArticleRequest describes a full update of an article's content fields.
type UpdateArticleRequest struct {
	Title     string   `json:"title" validate:"required"`
	Slug      string   `json:"slug" validate:"omitempty,max=200"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content" validate:"required"`
	Category  string   `json:"category" validate:"required"`
	Tags      []string `json:"tags"`
	ReadTime  int      `json:"read_time" validate:"omitempty,min=0"`
	HeroImage *string  `json:"hero_image"`
}

// UpdateArticleStatusRequest transitions an article's lifecycle status only.
type UpdateArticleStatusRequest struct {
	Status string `json:"status" validate:"required,article_status"`
}

// ArticleListQuery filters article listings.
type ArticleListQuery struct {
	Status   string `form:"status"`
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ArticleDraft is an unsaved article embedded in a scheduling request. It is
// persisted (status scheduled) before any calendar event references it, so a
// client-side placeholder id never crosses the API boundary.
type ArticleDraft struct {
	Title     string   `json:"title" validate:"required"`
	Slug      string   `json:"slug" validate:"omitempty,max=200"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content" validate:"required"`
	Category  string   `json:"category" validate:"required"`
	Tags      []string `json:"tags"`
	ReadTime  int      `json:"read_time" validate:"omitempty,min=0"`
	HeroImage *string  `json:"hero_image"`
}

// ToCreateRequest converts the draft into a create payload with the given status.
func (d ArticleDraft) ToCreateRequest(status models.ArticleStatus) CreateArticleRequest {
	return CreateArticleRequest{
		Title:     d.Title,
		Slug:      d.Slug,
		Excerpt:   d.Excerpt,
		Content:   d.Content,
		Category:  d.Category,
		Tags:      d.Tags,
		Status:    string(status),
		ReadTime:  d.ReadTime,
		HeroImage: d.HeroImage,
	}
}
