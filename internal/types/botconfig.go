package types

import "time"

type OwnerType string

const (
	OwnerAdmin    OwnerType = "admin"
	OwnerBusiness OwnerType = "business"
)

type BotTexts struct {
	Title        string `json:"title" yaml:"title"`
	Subtitle     string `json:"subtitle" yaml:"subtitle"`
	Welcome1     string `json:"welcome1" yaml:"welcome1"`
	Welcome2     string `json:"welcome2" yaml:"welcome2"`
	HappyHelp    string `json:"happyHelp" yaml:"happyHelp"`
	WriteMessage string `json:"writeMessage" yaml:"writeMessage"`
	WhatKnow     string `json:"whatKnow" yaml:"whatKnow"`
	AnythingElse string `json:"anythingElse" yaml:"anythingElse"`
	NoAnswer     string `json:"noAnswer" yaml:"noAnswer"`
	WhatDo       string `json:"whatDo" yaml:"whatDo"`
	Goodbye      string `json:"goodbye" yaml:"goodbye"`
	SentSuccess  string `json:"sentSuccess" yaml:"sentSuccess"`
	TeamReply    string `json:"teamReply" yaml:"teamReply"`
	SendError    string `json:"sendError" yaml:"sendError"`
	MoreHelp     string `json:"moreHelp" yaml:"moreHelp"`
	ChooseTopic  string `json:"chooseTopic" yaml:"chooseTopic"`
}

type BotButtons struct {
	OtherTopic string `json:"otherTopic" yaml:"otherTopic"`
	TalkAgent  string `json:"talkAgent" yaml:"talkAgent"`
	Thanks     string `json:"thanks" yaml:"thanks"`
	BackTopics string `json:"backTopics" yaml:"backTopics"`
	Send       string `json:"send" yaml:"send"`
	Sending    string `json:"sending" yaml:"sending"`
	Cancel     string `json:"cancel" yaml:"cancel"`
}

type BotPlaceholders struct {
	Message  string `json:"message" yaml:"message"`
	Agent    string `json:"agent" yaml:"agent"`
	Question string `json:"question" yaml:"question"`
}

type BotQuestion struct {
	ID       string `json:"id" yaml:"id"`
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
	Order    int    `json:"order" yaml:"order"`
	IsActive bool   `json:"isActive" yaml:"isActive"`
}

type BotCategory struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	IsContact bool          `json:"isContact" yaml:"isContact"`
	Order     int           `json:"order" yaml:"order"`
	IsActive  bool          `json:"isActive" yaml:"isActive"`
	Questions []BotQuestion `json:"questions" yaml:"questions"`
}

type BotSettings struct {
	IsActive       bool   `json:"isActive" yaml:"isActive"`
	ShowOnAllPages bool   `json:"showOnAllPages" yaml:"showOnAllPages"`
	Position       string `json:"position" yaml:"position"`
	PrimaryColor   string `json:"primaryColor" yaml:"primaryColor"`
	SecondaryColor string `json:"secondaryColor" yaml:"secondaryColor"`
}

// BotConfig is stored as one JSONB document per (ownerType, businessId).
type BotConfig struct {
	ID           string          `json:"id" yaml:"-"`
	OwnerType    OwnerType       `json:"ownerType" yaml:"-"`
	BusinessID   *string         `json:"businessId" yaml:"-"`
	Texts        BotTexts        `json:"texts" yaml:"texts"`
	Buttons      BotButtons      `json:"buttons" yaml:"buttons"`
	Placeholders BotPlaceholders `json:"placeholders" yaml:"placeholders"`
	Categories   []BotCategory   `json:"categories" yaml:"categories"`
	Settings     BotSettings     `json:"settings" yaml:"settings"`
	CreatedAt    time.Time       `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time       `json:"updatedAt" yaml:"-"`
}

func (b *BotConfig) Category(id string) *BotCategory {
	for i := range b.Categories {
		if b.Categories[i].ID == id {
			return &b.Categories[i]
		}
	}
	return nil
}

// BotScope identifies one config document.
type BotScope struct {
	OwnerType  OwnerType
	BusinessID string
}

func (s BotScope) Key() string {
	if s.OwnerType == OwnerBusiness {
		return string(s.OwnerType) + ":" + s.BusinessID
	}
	return string(OwnerAdmin)
}
