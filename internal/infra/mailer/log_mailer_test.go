package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"perfumeshop/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMailer_SendPasswordReset(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(logger.New(logger.Options{ServiceName: "api", Output: &buf}))

	require.NoError(t, m.SendPasswordReset(context.Background(), "a@example.com", "http://fe/reset-password?token=x"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "a@example.com", line["mail_to"])
	assert.Equal(t, "http://fe/reset-password?token=x", line["reset_url"])
}
