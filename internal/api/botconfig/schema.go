package botconfig

import "github.com/vipogroup/vipo-api/internal/types"

type ScopeQuery struct {
	OwnerType  string `form:"ownerType" json:"ownerType"`
	BusinessID string `form:"businessId" json:"businessId"`
}

type UpdateRequest struct {
	ScopeQuery
	Texts        *types.BotTexts        `json:"texts"`
	Buttons      *types.BotButtons      `json:"buttons"`
	Placeholders *types.BotPlaceholders `json:"placeholders"`
	Categories   *[]types.BotCategory   `json:"categories"`
	Settings     *types.BotSettings     `json:"settings"`
}

type Action string

const (
	ActionAddCategory    Action = "addCategory"
	ActionAddQuestion    Action = "addQuestion"
	ActionDeleteCategory Action = "deleteCategory"
	ActionDeleteQuestion Action = "deleteQuestion"
)

type AddData struct {
	Name      string `json:"name"`
	IsContact bool   `json:"isContact"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

type AddRequest struct {
	ScopeQuery
	Action     Action  `json:"action" binding:"required,oneof=addCategory addQuestion"`
	CategoryID string  `json:"categoryId"`
	Data       AddData `json:"data"`
}

type DeleteQuery struct {
	ScopeQuery
	Action     Action `form:"action" binding:"required,oneof=deleteCategory deleteQuestion"`
	CategoryID string `form:"categoryId" binding:"required"`
	QuestionID string `form:"questionId"`
}

type ImportRequest struct {
	ScopeQuery
	Markdown string `json:"markdown" binding:"required,max=200000"`
	// Replace drops existing categories instead of appending to them.
	Replace bool `json:"replace"`
}

type ConfigResponse struct {
	Success bool             `json:"success"`
	Config  *types.BotConfig `json:"config"`
}
