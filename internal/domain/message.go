package domain

import "time"

// BlockKind identifies a rich message block layout.
type BlockKind string

const (
	BlockSection BlockKind = "section"
	BlockContext BlockKind = "context"
)

// Block is a backend-neutral rich text block. Text is markdown.
type Block struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// Section returns a section block with markdown text.
func Section(text string) Block { return Block{Kind: BlockSection, Text: text} }

// Context returns a context block with markdown text.
func Context(text string) Block { return Block{Kind: BlockContext, Text: text} }

// IntentKind tags a MessageIntent.
type IntentKind string

const (
	IntentIntro IntentKind = "intro"
	IntentFile  IntentKind = "file"
	IntentChat  IntentKind = "chat"
)

// IntroMessage opens the conversation; every threaded follow-up replies to it.
type IntroMessage struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// FileUpload is a local file to upload.
type FileUpload struct {
	Path          string `json:"path"`
	Title         string `json:"title"`
	Caption       string `json:"caption,omitempty"`
	ThreadToIntro bool   `json:"threadToIntro"`
}

// ChatMessage is a follow-up text message.
type ChatMessage struct {
	Text          string  `json:"text"`
	Blocks        []Block `json:"blocks,omitempty"`
	ThreadToIntro bool    `json:"threadToIntro"`
}

// MessageIntent is one queued message. Exactly one payload matching Kind is set.
type MessageIntent struct {
	Kind  IntentKind    `json:"kind"`
	Intro *IntroMessage `json:"intro,omitempty"`
	File  *FileUpload   `json:"file,omitempty"`
	Chat  *ChatMessage  `json:"chat,omitempty"`
}

// Threaded reports whether the intent should be posted as a reply to the intro.
func (m MessageIntent) Threaded() bool {
	switch m.Kind {
	case IntentFile:
		return m.File != nil && m.File.ThreadToIntro
	case IntentChat:
		return m.Chat != nil && m.Chat.ThreadToIntro
	default:
		return false
	}
}

// ArtifactDescriptor describes one rendered or downloaded asset.
type ArtifactDescriptor struct {
	Title     string `json:"title"`
	LocalPath string `json:"localPath"`
	Caption   string `json:"caption,omitempty"`
}

// PostedMessage is a message read back from a channel.
type PostedMessage struct {
	Timestamp string    `json:"ts"`
	Text      string    `json:"text,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	HasFiles  bool      `json:"hasFiles,omitempty"`
	Time      time.Time `json:"time"`
}
