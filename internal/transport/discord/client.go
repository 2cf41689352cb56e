package discord

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/reshetovitsme/squad-bot/internal/platform"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const messageURLFormat = "https://discord.com/channels/%s/%s/%s"

// Client implements platform.Client on a discordgo session bound to one guild.
// Reads prefer the gateway state cache and fall back to REST.
type Client struct {
	session *discordgo.Session
	guildID string
}

// NewClient creates a platform client for guildID
func NewClient(session *discordgo.Session, guildID string) *Client {
	return &Client{session: session, guildID: guildID}
}

func (c *Client) Channel(ctx context.Context, channelID string) (*platform.Channel, error) {
	ch, err := c.session.State.Channel(channelID)
	if err != nil {
		ch, err = c.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap(err, "channel_id", channelID)
		}
	}
	return toChannel(ch), nil
}

func (c *Client) Member(ctx context.Context, userID string) (*platform.Member, error) {
	m, err := c.session.State.Member(c.guildID, userID)
	if err != nil {
		m, err = c.session.GuildMember(c.guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrap(err, "user_id", userID)
		}
	}
	return ToMember(m), nil
}

func (c *Client) VoiceChannelOf(_ context.Context, userID string) (string, bool) {
	vs, err := c.session.State.VoiceState(c.guildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return "", false
	}
	return vs.ChannelID, true
}

// ChannelMembers reads voice occupancy from the gateway cache, which is the
// only source the platform offers for it.
func (c *Client) ChannelMembers(_ context.Context, channelID string) ([]string, error) {
	guild, err := c.session.State.Guild(c.guildID)
	if err != nil {
		return nil, wrap(err, "guild_id", c.guildID)
	}

	c.session.State.RLock()
	defer c.session.State.RUnlock()
	return lo.FilterMap(guild.VoiceStates, func(vs *discordgo.VoiceState, _ int) (string, bool) {
		return vs.UserID, vs.ChannelID == channelID
	}), nil
}

func (c *Client) CreateVoiceChannel(ctx context.Context, params platform.CreateVoiceChannelParams) (*platform.Channel, error) {
	ch, err := c.session.GuildChannelCreateComplex(c.guildID, discordgo.GuildChannelCreateData{
		Name:      params.Name,
		Type:      discordgo.ChannelTypeGuildVoice,
		UserLimit: params.UserLimit,
		ParentID:  params.ParentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrap(err, "name", params.Name)
	}
	return toChannel(ch), nil
}

func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := c.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "channel_id", channelID)
	}
	return nil
}

func (c *Client) MoveMember(ctx context.Context, userID, channelID string) error {
	if err := c.session.GuildMemberMove(c.guildID, userID, &channelID, discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "user_id", userID, "channel_id", channelID)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, channelID string, payload platform.Payload) (platform.MessageRef, error) {
	msg, err := c.session.ChannelMessageSendEmbed(channelID, ToEmbed(payload), discordgo.WithContext(ctx))
	if err != nil {
		return platform.MessageRef{}, wrap(err, "channel_id", channelID)
	}
	return platform.MessageRef{
		ChannelID: msg.ChannelID,
		MessageID: msg.ID,
		URL:       fmt.Sprintf(messageURLFormat, c.guildID, msg.ChannelID, msg.ID),
	}, nil
}

func (c *Client) EditMessage(ctx context.Context, ref platform.MessageRef, payload platform.Payload) error {
	if _, err := c.session.ChannelMessageEditEmbed(ref.ChannelID, ref.MessageID, ToEmbed(payload), discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "channel_id", ref.ChannelID, "message_id", ref.MessageID)
	}
	return nil
}

func (c *Client) SendDirect(ctx context.Context, userID, text string) error {
	dm, err := c.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return wrap(err, "user_id", userID)
	}
	if _, err := c.session.ChannelMessageSend(dm.ID, text, discordgo.WithContext(ctx)); err != nil {
		return wrap(err, "user_id", userID, "channel_id", dm.ID)
	}
	return nil
}

// ToEmbed converts a payload into a Discord embed
func ToEmbed(p platform.Payload) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       p.Title,
		Description: p.Description,
		Color:       p.Color,
		Fields: lo.Map(p.Fields, func(f platform.Field, _ int) *discordgo.MessageEmbedField {
			return &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline}
		}),
	}
	if p.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: p.Footer, IconURL: p.FooterIcon}
	}
	return embed
}

// ToMember converts a guild member
func ToMember(m *discordgo.Member) *platform.Member {
	if m == nil || m.User == nil {
		return nil
	}
	return &platform.Member{
		ID:          m.User.ID,
		DisplayName: m.DisplayName(),
		AvatarURL:   m.AvatarURL(""),
	}
}

func toChannel(ch *discordgo.Channel) *platform.Channel {
	kind := platform.ChannelKindOther
	switch ch.Type {
	case discordgo.ChannelTypeGuildText:
		kind = platform.ChannelKindText
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		kind = platform.ChannelKindVoice
	case discordgo.ChannelTypeGuildCategory:
		kind = platform.ChannelKindCategory
	}
	return &platform.Channel{ID: ch.ID, Name: ch.Name, Kind: kind, ParentID: ch.ParentID}
}

// wrap classifies a discordgo failure: missing entities become ErrNotFound,
// everything else ErrTransientPlatform.
func wrap(err error, attrs ...any) error {
	sentinel := errors.ErrTransientPlatform

	var restErr *discordgo.RESTError
	switch {
	case stderrors.Is(err, discordgo.ErrStateNotFound):
		sentinel = errors.ErrNotFound
	case stderrors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound:
		sentinel = errors.ErrNotFound
	}

	return oops.With(attrs...).Wrapf(stderrors.Join(sentinel, err), "discord request failed")
}

var _ platform.Client = (*Client)(nil)
