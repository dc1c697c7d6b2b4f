package bot

import "context"

type Button struct {
	Text string
	Data string
}

// Keyboard is a grid of inline buttons, one slice per row.
type Keyboard [][]Button

type Reply struct {
	Text     string
	Markdown bool
	Keyboard Keyboard
}

type Document struct {
	Name    string
	Data    []byte
	Caption string
}

// Messenger отправляет ответы в чат-транспорт.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, reply Reply) error
	EditText(ctx context.Context, chatID int64, messageID int, reply Reply) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	SendDocument(ctx context.Context, chatID int64, doc Document) error
}

// Event is one inbound message or button press.
type Event struct {
	ChatID int64
	UserID int64
	Text   string

	CallbackID string
	MessageID  int
	Data       string
}

// IsCallback сообщает, что событие пришло от нажатия кнопки.
func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}

// Input возвращает текст сообщения или данные кнопки.
func (e Event) Input() string {
	if e.IsCallback() {
		return e.Data
	}
	return e.Text
}
