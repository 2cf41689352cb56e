// Package platform describes the chat-platform capabilities the bot core
// depends on. The Discord adapter lives in internal/transport/discord.
package platform

import (
	"context"
)

// ChannelKind distinguishes the channel types the core cares about
type ChannelKind int

const (
	ChannelKindOther ChannelKind = iota
	ChannelKindText
	ChannelKindVoice
	ChannelKindCategory
)

// Channel is a platform channel or category
type Channel struct {
	ID       string
	Name     string
	Kind     ChannelKind
	ParentID string
}

// Member is a guild member
type Member struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

// CreateVoiceChannelParams describes a voice channel to create.
// UserLimit of zero means unlimited.
type CreateVoiceChannelParams struct {
	Name      string
	ParentID  string
	UserLimit int
}

// MessageRef is an opaque handle to a posted message
type MessageRef struct {
	ChannelID string
	MessageID string
	URL       string
}

// Field is one name/value pair of a Payload
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Payload is a structured, renderable message body
type Payload struct {
	Title       string
	Description string
	Color       int
	Fields      []Field
	Footer      string
	FooterIcon  string
}

// Client is the outbound capability set the core requires.
// Implementations return errors wrapping errors.ErrNotFound for missing
// entities and errors.ErrTransientPlatform for failed calls.
type Client interface {
	Channel(ctx context.Context, channelID string) (*Channel, error)
	Member(ctx context.Context, userID string) (*Member, error)

	// VoiceChannelOf returns the voice channel the user is connected to, if any.
	VoiceChannelOf(ctx context.Context, userID string) (string, bool)
	// ChannelMembers lists user ids currently connected to a voice channel.
	ChannelMembers(ctx context.Context, channelID string) ([]string, error)

	CreateVoiceChannel(ctx context.Context, params CreateVoiceChannelParams) (*Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	MoveMember(ctx context.Context, userID, channelID string) error

	SendMessage(ctx context.Context, channelID string, payload Payload) (MessageRef, error)
	EditMessage(ctx context.Context, ref MessageRef, payload Payload) error
	SendDirect(ctx context.Context, userID, text string) error
}
