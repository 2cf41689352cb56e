package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	timerService "github.com/reshetovitsme/squad-bot/internal/modules/timer/service"
	userService "github.com/reshetovitsme/squad-bot/internal/modules/user/service"
	voiceService "github.com/reshetovitsme/squad-bot/internal/modules/voice/service"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/reshetovitsme/squad-bot/internal/shared/metrics"
	"github.com/samber/lo"
)

const (
	requestTimeout = 10 * time.Second
	snippetLength  = 100

	msgSomethingWrong = "Something went wrong. Please try again."
	msgUnauthorized   = "You are not authorized to run this command."
	msgUnknownCommand = "Unknown command."
)

// Handler routes Discord interactions and voice events into the services
type Handler struct {
	cfg          *config.Config
	voiceService *voiceService.Service
	timerService *timerService.Service
	userService  *userService.Service
	metrics      *metrics.Metrics
}

// New creates a new Discord handler
func New(cfg *config.Config, voiceService *voiceService.Service, timerService *timerService.Service, userService *userService.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		cfg:          cfg,
		voiceService: voiceService,
		timerService: timerService,
		userService:  userService,
		metrics:      m,
	}
}

// RegisterHandlers attaches the event handlers to the session
func (h *Handler) RegisterHandlers(s *discordgo.Session) {
	s.AddHandler(h.handleReady)
	s.AddHandler(h.HandleInteraction)
	s.AddHandler(h.HandleVoiceStateUpdate)
}

// handleReady syncs the slash commands every time the gateway session is established
func (h *Handler) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Connected to Discord", "user", r.User.Username, "guilds", len(r.Guilds))

	appID := r.User.ID
	if r.Application != nil && r.Application.ID != "" {
		appID = r.Application.ID
	}

	synced, err := SyncCommands(s, appID, h.cfg.GuildID)
	if err != nil {
		slog.Error("Failed to sync commands", "guild_id", h.cfg.GuildID, "error", err)
		return
	}
	slog.Info("Synced commands", "count", len(synced), "guild_id", h.cfg.GuildID)
}

// HandleVoiceStateUpdate forwards "member left channel X" transitions
func (h *Handler) HandleVoiceStateUpdate(_ *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.BeforeUpdate == nil || v.BeforeUpdate.ChannelID == "" {
		return
	}
	current := ""
	if v.VoiceState != nil {
		current = v.ChannelID
	}
	if v.BeforeUpdate.ChannelID == current {
		return
	}
	h.voiceService.OnMemberLeft(v.BeforeUpdate.ChannelID)
}

// InteractionSession is the slice of the session API used to answer interactions
type InteractionSession interface {
	CommandRegistry
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ InteractionSession = (*discordgo.Session)(nil)

// HandleInteraction answers slash commands
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.Answer(s, i)
}

// Answer acknowledges the interaction before any platform work, as the
// acknowledgement must land within three seconds, then edits the reply into it.
// Every acknowledged interaction gets a reply, including ones that panic.
func (h *Handler) Answer(s InteractionSession, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	command := i.ApplicationCommandData().Name

	if err := s.InteractionRespond(i.Interaction, deferred()); err != nil {
		slog.Error("Failed to acknowledge interaction", "command", command, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	reply := h.Dispatch(ctx, s, i)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &reply}); err != nil {
		slog.Error("Failed to respond to interaction", "command", command, "error", err)
	}
}

// Dispatch runs the command and returns the reply text
func (h *Handler) Dispatch(ctx context.Context, registry CommandRegistry, i *discordgo.InteractionCreate) (reply string) {
	data := i.ApplicationCommandData()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while handling command", "command", data.Name, "panic", r)
			h.metrics.Rejected(data.Name, errors.ErrorKindFatal.String())
			reply = msgSomethingWrong
		}
	}()

	switch data.Name {
	case CommandRequest:
		return h.requestChannel(ctx, i, options(data))
	case CommandTimer:
		return h.scheduleTimer(ctx, i, options(data))
	case CommandResync:
		return h.resync(registry, i)
	default:
		return msgUnknownCommand
	}
}

func (h *Handler) requestChannel(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	user := interactionUser(i)

	req := voiceService.CreateRequest{
		RequesterID:     user.ID,
		SourceChannelID: i.ChannelID,
	}
	if opt, ok := opts["channel_name"]; ok {
		req.Name = opt.StringValue()
	}
	if opt, ok := opts["capacity"]; ok {
		req.Capacity = lo.ToPtr(int(opt.IntValue()))
	}
	for _, name := range []string{"teammate1", "teammate2"} {
		if opt, ok := opts[name]; ok {
			req.TeammateIDs = append(req.TeammateIDs, opt.UserValue(nil).ID)
		}
	}

	res, err := h.voiceService.Create(ctx, req)
	if err != nil {
		kind := errors.Kind(err)
		h.metrics.Rejected(CommandRequest, kind.String())
		logRejection(CommandRequest, user.ID, kind, err)
		return requestRejection(kind)
	}

	reply := fmt.Sprintf("Created channel '%s' and moved %d of %d members.", res.Channel.Name, res.Moved, res.Requested)
	if res.Failed > 0 {
		reply += fmt.Sprintf(" %d could not be moved.", res.Failed)
	}
	return reply
}

func requestRejection(kind errors.ErrorKind) string {
	switch kind {
	case errors.ErrorKindWrongContext:
		return "Please use this command in the LFG channel."
	case errors.ErrorKindMisconfigured:
		return "Bot misconfiguration: channel requests are not set up. Please tell an admin."
	case errors.ErrorKindInvalidName:
		return fmt.Sprintf("Channel name must be between 1 and %d characters.", voiceService.MaxNameLength)
	case errors.ErrorKindInvalidCapacity:
		return fmt.Sprintf("Capacity must be between 1 and %d.", voiceService.MaxCapacity)
	case errors.ErrorKindNotFound:
		return "Category channel not found."
	default:
		return "Failed to create voice channel. Please try again."
	}
}

func (h *Handler) scheduleTimer(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	user := interactionUser(i)

	req := timerService.ScheduleRequest{
		OwnerID:         user.ID,
		OwnerName:       user.DisplayName,
		OwnerAvatar:     user.AvatarURL,
		SourceChannelID: i.ChannelID,
	}
	if opt, ok := opts["days"]; ok {
		req.Days = int(opt.IntValue())
	}
	if opt, ok := opts["hours"]; ok {
		req.Hours = int(opt.IntValue())
	}
	if opt, ok := opts["minutes"]; ok {
		req.Minutes = int(opt.IntValue())
	}
	if opt, ok := opts["description"]; ok {
		req.Description = opt.StringValue()
	}

	res, err := h.timerService.Schedule(ctx, req)
	if err != nil {
		kind := errors.Kind(err)
		h.metrics.Rejected(CommandTimer, kind.String())
		logRejection(CommandTimer, user.ID, kind, err)
		return h.timerRejection(kind)
	}

	return fmt.Sprintf("Timer created and posted in <#%s>", res.DisplayChannelID)
}

func (h *Handler) timerRejection(kind errors.ErrorKind) string {
	switch kind {
	case errors.ErrorKindWrongContext:
		return fmt.Sprintf("Please use this command in <#%s>", h.cfg.TimerChannelID)
	case errors.ErrorKindMisconfigured:
		return "Timer channel not configured."
	case errors.ErrorKindInvalidDuration:
		return "Invalid time fields. Use non-negative values; hours 0-23, minutes 0-59."
	case errors.ErrorKindZeroDuration:
		return "Duration must be greater than zero."
	default:
		return "Failed to create timer. Please try again."
	}
}

func (h *Handler) resync(registry CommandRegistry, i *discordgo.InteractionCreate) string {
	user := interactionUser(i)
	if !h.userService.IsAdmin(user.ID) {
		h.metrics.Rejected(CommandResync, errors.ErrorKindUnauthorized.String())
		slog.Warn("Unauthorized resync attempt", "user_id", user.ID)
		return msgUnauthorized
	}

	synced, err := SyncCommands(registry, i.AppID, h.cfg.GuildID)
	if err != nil {
		slog.Error("Resync failed", "user_id", user.ID, "error", err)
		return fmt.Sprintf("❌ Resync failed: %s", lo.Substring(err.Error(), 0, snippetLength))
	}

	slog.Info("Resynced commands", "count", len(synced), "guild_id", h.cfg.GuildID, "user_id", user.ID)
	if h.cfg.GuildID == "" {
		return fmt.Sprintf("✅ Cleared and synced %d global commands", len(synced))
	}
	return fmt.Sprintf("✅ Cleared and synced %d commands for guild %s", len(synced), h.cfg.GuildID)
}

func logRejection(command, userID string, kind errors.ErrorKind, err error) {
	level := slog.LevelInfo
	switch kind {
	case errors.ErrorKindMisconfigured, errors.ErrorKindTransientPlatformFailure, errors.ErrorKindFatal:
		level = slog.LevelError
	case errors.ErrorKindWrongContext:
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "Command rejected", "command", command, "user_id", userID, "kind", kind, "error", err)
}

type invoker struct {
	ID          string
	DisplayName string
	AvatarURL   string
}

func interactionUser(i *discordgo.InteractionCreate) invoker {
	if i.Member != nil {
		if m := ToMember(i.Member); m != nil {
			return invoker{ID: m.ID, DisplayName: m.DisplayName, AvatarURL: m.AvatarURL}
		}
	}
	if i.User != nil {
		return invoker{ID: i.User.ID, DisplayName: i.User.Username, AvatarURL: i.User.AvatarURL("")}
	}
	return invoker{}
}

func options(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	return lo.SliceToMap(data.Options, func(opt *discordgo.ApplicationCommandInteractionDataOption) (string, *discordgo.ApplicationCommandInteractionDataOption) {
		return opt.Name, opt
	})
}

func deferred() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}
}
