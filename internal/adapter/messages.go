package adapter

import "fmt"

// UIEmoji: 사용자 메시지에 사용하는 이모지 모음입니다.
type UIEmoji struct {
	Brand   string
	Success string
	Error   string
	Hint    string
	Time    string
	Info    string
	Data    string
	Stats   string
	Rank    string
	Comp    string
}

// DefaultEmoji: 모든 사용자 메시지에 사용되는 이모지 단일 정의다.
var DefaultEmoji = UIEmoji{
	Brand:   "🎯",
	Success: "✅",
	Error:   "❌",
	Hint:    "💡",
	Time:    "⏰",
	Info:    "ℹ️",
	Data:    "📋",
	Stats:   "📊",
	Rank:    "🏆",
	Comp:    "🧩",
}

// MessageBuilder: 공통 메시지 패턴을 생성합니다.
type MessageBuilder struct {
	emoji UIEmoji
}

// NewMessageBuilder: 새로운 MessageBuilder 인스턴스를 생성한다.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{emoji: DefaultEmoji}
}

// ErrorMessage: 에러 메시지를 생성합니다.
func (mb *MessageBuilder) ErrorMessage(message string) string {
	return fmt.Sprintf("%s %s", mb.emoji.Error, message)
}

// SuccessMessage: 성공 메시지를 생성합니다.
func (mb *MessageBuilder) SuccessMessage(message string) string {
	return fmt.Sprintf("%s %s", mb.emoji.Success, message)
}

// HintMessage: 힌트 메시지를 생성합니다.
func (mb *MessageBuilder) HintMessage(message string) string {
	return fmt.Sprintf("%s %s", mb.emoji.Hint, message)
}

var defaultMessageBuilder = NewMessageBuilder()

// ErrorMessage: 전역 MessageBuilder로 에러 메시지를 생성합니다.
func ErrorMessage(message string) string {
	return defaultMessageBuilder.ErrorMessage(message)
}

// SuccessMessage: 전역 MessageBuilder로 성공 메시지를 생성합니다.
func SuccessMessage(message string) string {
	return defaultMessageBuilder.SuccessMessage(message)
}
