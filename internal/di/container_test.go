package di

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	timerService "github.com/reshetovitsme/squad-bot/internal/modules/timer/service"
	voiceService "github.com/reshetovitsme/squad-bot/internal/modules/voice/service"
	"github.com/reshetovitsme/squad-bot/internal/platform"
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	discordTransport "github.com/reshetovitsme/squad-bot/internal/transport/discord"
	httpServer "github.com/reshetovitsme/squad-bot/internal/transport/http"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_ResolvesGraph(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKEN", "test-token")
	t.Setenv("GUILD", "42")

	injector, err := Setup()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, Shutdown(injector)) })

	cfg := do.MustInvoke[*config.Config](injector)
	assert.Equal(t, "test-token", cfg.Token)

	session := do.MustInvoke[*discordgo.Session](injector)
	assert.Equal(t, "Bot test-token", session.Token)
	assert.NotZero(t, session.Identify.Intents&discordgo.IntentsGuildVoiceStates)

	_, err = do.Invoke[platform.Client](injector)
	assert.NoError(t, err)
	_, err = do.Invoke[*voiceService.Service](injector)
	assert.NoError(t, err)
	_, err = do.Invoke[*timerService.Service](injector)
	assert.NoError(t, err)
	_, err = do.Invoke[*discordTransport.Handler](injector)
	assert.NoError(t, err)
	_, err = do.Invoke[*httpServer.Server](injector)
	assert.NoError(t, err)
}

func TestSetup_MissingToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKEN", "")

	injector, err := Setup()
	require.NoError(t, err, "config is loaded lazily")

	_, err = do.Invoke[*config.Config](injector)
	assert.Error(t, err)
}
