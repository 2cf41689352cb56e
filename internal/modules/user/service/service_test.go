package service

import (
	"testing"

	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	svc := New(&config.Config{AdminUsers: []string{"279763886134132736"}})

	assert.True(t, svc.IsAdmin("279763886134132736"))
	assert.False(t, svc.IsAdmin("1"))
	assert.False(t, svc.IsAdmin(""))
}

func TestIsAdmin_NoAdminsConfigured(t *testing.T) {
	svc := New(&config.Config{})

	assert.False(t, svc.IsAdmin("279763886134132736"))
}
