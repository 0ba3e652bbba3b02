package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huellitas/huellitas-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := newClient(nil, "huellitas-prod", config.PubSubConfig{})

	assert.Equal(t, "projects/huellitas-prod/topics/domain", c.topicResourceName("domain"))
	assert.Equal(t, "projects/other/topics/x", c.topicResourceName("projects/other/topics/x"))
	assert.Empty(t, c.topicResourceName("  "))

	noProject := newClient(nil, "", config.PubSubConfig{})
	assert.Empty(t, noProject.topicResourceName("domain"))
}

func TestTopicNamesSkipsBlank(t *testing.T) {
	assert.Equal(t, []string{"d", "n"}, topicNames(config.PubSubConfig{DomainTopic: " d ", NotificationTopic: "n"}))
	assert.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("domain"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{DomainTopic: "d"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}
