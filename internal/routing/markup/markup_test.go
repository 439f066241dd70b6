package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerCallRendersSayBeforeConnect(t *testing.T) {
	doc, err := AnswerCall("Hi, you have reached Acme Dental.", "wss://media.example.com/agent/1").Render()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<?xml"))
	assert.Contains(t, doc, "<Say>Hi, you have reached Acme Dental.</Say>")
	assert.Contains(t, doc, `<Stream url="wss://media.example.com/agent/1">`)
	assert.Less(t, strings.Index(doc, "<Say>"), strings.Index(doc, "<Connect>"))
	assert.NotContains(t, doc, "<Hangup>")
}

func TestRejectCallHangsUp(t *testing.T) {
	doc, err := RejectCall("This number is not in service.").Render()
	require.NoError(t, err)

	assert.Contains(t, doc, "<Say>This number is not in service.</Say>")
	assert.Contains(t, doc, "<Hangup>")
	assert.NotContains(t, doc, "<Connect>")
}

func TestRenderEscapesCallerText(t *testing.T) {
	doc, err := RejectCall(`Closed <today> & "tomorrow"`).Render()
	require.NoError(t, err)

	assert.Contains(t, doc, "Closed &lt;today&gt; &amp;")
}
