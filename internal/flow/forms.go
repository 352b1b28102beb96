package flow

import (
	"errors"
	"fmt"
	"time"

	"github.com/vestnik-bot/vestnik/internal/store"
	"github.com/vestnik-bot/vestnik/pkg/message"
)

// Per-type maximum text lengths in runes.
const (
	maxCongratText      = 300
	maxAnnouncementText = 1000
	maxNewsText         = 4000
)

// Callback data values used by form keyboards.
const (
	choiceCustomText = "greet:custom"
	choiceDateToday  = "date:today"
)

// holidayTemplates maps a greeting choice to a ready-made text. The
// recipient's name is prepended when the application is rendered.
var holidayTemplates = map[string]string{
	"greet:birthday": "С днём рождения! Желаем крепкого здоровья, счастья и всего самого наилучшего!",
	"greet:jubilee":  "С юбилеем! Пусть каждый день приносит радость и тепло близких!",
	"greet:holiday":  "С праздником! Мира, добра и благополучия вашему дому!",
}

// Step is a single question of a form.
type Step struct {
	// Field names the session value the answer is stored under.
	Field string

	// Prompt is the question shown to the user.
	Prompt string

	// Keyboard, if set, offers inline buttons; their callback data is
	// treated as the user's input.
	Keyboard [][]message.Button

	// Validate normalizes and checks the input. nil accepts anything.
	Validate func(input string, now time.Time) (string, error)

	// SkipIf skips the step when it returns true for the session.
	SkipIf func(sess *Session) bool
}

// Form is an ordered list of steps producing one application type.
type Form struct {
	Type  store.Type
	Title string
	Steps []Step
}

// Forms returns the form registry keyed by application type.
func Forms() map[string]*Form {
	return map[string]*Form{
		string(store.TypeCongrat):      congratForm(),
		string(store.TypeAnnouncement): announcementForm(),
		string(store.TypeNews):         newsForm(),
		string(store.TypeCarpool):      carpoolForm(),
	}
}

func congratForm() *Form {
	return &Form{
		Type:  store.TypeCongrat,
		Title: "Поздравление",
		Steps: []Step{
			{
				Field:  "from_name",
				Prompt: "От кого поздравление? Укажите имя.",
				Validate: func(input string, _ time.Time) (string, error) {
					return ValidateName(input)
				},
			},
			{
				Field:  "to_name",
				Prompt: "Кого поздравляем? Укажите имя.",
				Validate: func(input string, _ time.Time) (string, error) {
					return ValidateName(input)
				},
			},
			{
				Field:  "greeting",
				Prompt: "Выберите готовый шаблон или напишите свой текст.",
				Keyboard: [][]message.Button{
					message.Row(message.Button{Text: "С днём рождения", Data: "greet:birthday"}),
					message.Row(message.Button{Text: "С юбилеем", Data: "greet:jubilee"}),
					message.Row(message.Button{Text: "С праздником", Data: "greet:holiday"}),
					message.Row(message.Button{Text: "Свой текст", Data: choiceCustomText}),
				},
				Validate: validateGreetingChoice,
			},
			{
				Field:  "text",
				Prompt: fmt.Sprintf("Напишите текст поздравления (до %d символов).", maxCongratText),
				Validate: func(input string, _ time.Time) (string, error) {
					return ValidateText(input, maxCongratText)
				},
				SkipIf: func(sess *Session) bool {
					return sess.Values["greeting"] != choiceCustomText
				},
			},
			{
				Field:  "publish_date",
				Prompt: "Когда опубликовать? Укажите дату в формате ДД.ММ.ГГГГ или нажмите «Сегодня».",
				Keyboard: [][]message.Button{
					message.Row(message.Button{Text: "Сегодня", Data: choiceDateToday}),
				},
				Validate: func(input string, now time.Time) (string, error) {
					if input == choiceDateToday {
						return "", nil
					}
					return ValidateDate(input, now)
				},
			},
		},
	}
}

func announcementForm() *Form {
	return &Form{
		Type:  store.TypeAnnouncement,
		Title: "Объявление",
		Steps: []Step{
			{
				Field:  "subtype",
				Prompt: "Выберите тип объявления.",
				Keyboard: [][]message.Button{
					message.Row(
						message.Button{Text: "Куплю", Data: "sub:buy"},
						message.Button{Text: "Продам", Data: "sub:sell"},
					),
					message.Row(
						message.Button{Text: "Услуги", Data: "sub:service"},
						message.Button{Text: "Другое", Data: "sub:other"},
					),
				},
				Validate: validateSubtypeChoice,
			},
			phoneStep(),
			textStep(maxAnnouncementText),
		},
	}
}

func newsForm() *Form {
	return &Form{
		Type:  store.TypeNews,
		Title: "Новость",
		Steps: []Step{
			phoneStep(),
			textStep(maxNewsText),
		},
	}
}

func carpoolForm() *Form {
	return &Form{
		Type:  store.TypeCarpool,
		Title: "Попутчики",
		Steps: []Step{
			phoneStep(),
			textStep(maxNewsText),
		},
	}
}

func phoneStep() Step {
	return Step{
		Field:  "phone",
		Prompt: "Укажите контактный телефон (+7XXXXXXXXXX или 8XXXXXXXXXX).",
		Validate: func(input string, _ time.Time) (string, error) {
			return ValidatePhone(input)
		},
	}
}

func textStep(maxLen int) Step {
	return Step{
		Field:  "text",
		Prompt: fmt.Sprintf("Напишите текст (до %d символов). Можно приложить фото.", maxLen),
		Validate: func(input string, _ time.Time) (string, error) {
			return ValidateText(input, maxLen)
		},
	}
}

func validateGreetingChoice(input string, _ time.Time) (string, error) {
	if input == choiceCustomText {
		return input, nil
	}
	if _, ok := holidayTemplates[input]; ok {
		return input, nil
	}
	return "", errors.New("flow: выберите вариант кнопкой")
}

func validateSubtypeChoice(input string, _ time.Time) (string, error) {
	switch input {
	case "sub:buy", "sub:sell", "sub:service", "sub:other":
		return input[4:], nil
	}
	return "", errors.New("flow: выберите вариант кнопкой")
}
