package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jundoHeo/vikunja-mcp/internal/apierr"
	"github.com/jundoHeo/vikunja-mcp/internal/session"
	"github.com/jundoHeo/vikunja-mcp/internal/vikunja"
)

// contentText decodes an Execute result and returns the single text block.
func contentText(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(raw, &content))
	require.Len(t, content, 1)
	require.Equal(t, "text", content[0].Type)
	return content[0].Text
}

func authedSession() session.Provider {
	return session.NewStatic("https://vikunja.local/api/v1", "tk_test", "")
}

func anonSession() session.Provider {
	return session.NewStatic("https://vikunja.local/api/v1", "", "")
}

type fakeLabelAPI struct {
	labels    []any
	label     any
	err       error
	gotID     int64
	gotFields map[string]any
}

func (f *fakeLabelAPI) ListLabels(context.Context) ([]any, error) { return f.labels, f.err }
func (f *fakeLabelAPI) GetLabel(_ context.Context, id int64) (any, error) {
	f.gotID = id
	return f.label, f.err
}
func (f *fakeLabelAPI) CreateLabel(_ context.Context, payload map[string]any) (any, error) {
	f.gotFields = payload
	return f.label, f.err
}
func (f *fakeLabelAPI) UpdateLabel(_ context.Context, id int64, payload map[string]any) (any, error) {
	f.gotID, f.gotFields = id, payload
	return f.label, f.err
}
func (f *fakeLabelAPI) DeleteLabel(_ context.Context, id int64) error {
	f.gotID = id
	return f.err
}

func execLabels(t *testing.T, api LabelAPI, s session.Provider, args string) (json.RawMessage, error) {
	t.Helper()
	return NewLabelsTool(api, s).Execute(context.Background(), json.RawMessage(args))
}

func TestLabelsListRendersEnvelope(t *testing.T) {
	api := &fakeLabelAPI{labels: []any{
		map[string]any{"id": 1, "title": "bug"},
		map[string]any{"id": 2, "title": "feature"},
	}}
	out, err := execLabels(t, api, authedSession(), `{"action":"list"}`)
	require.NoError(t, err)

	text := contentText(t, out)
	assert.Contains(t, text, "### labels.list")
	assert.Contains(t, text, "Retrieved 2 labels")
	assert.Contains(t, text, "- count: 2")
}

func TestLabelsRequireAuth(t *testing.T) {
	_, err := execLabels(t, &fakeLabelAPI{}, anonSession(), `{"action":"list"}`)
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.AuthRequired))
}

func TestLabelsGetValidatesIDBeforeIO(t *testing.T) {
	api := &fakeLabelAPI{err: errors.New("must not be called")}
	tests := []string{
		`{"action":"get"}`,
		`{"action":"get","id":"abc"}`,
		`{"action":"get","id":-1}`,
		`{"action":"get","id":1.5}`,
	}
	for _, args := range tests {
		t.Run(args, func(t *testing.T) {
			_, err := execLabels(t, api, authedSession(), args)
			require.Error(t, err)
			assert.True(t, apierr.IsKind(err, apierr.ValidationError))
			assert.Zero(t, api.gotID, "validation must fail before any API call")
		})
	}
}

func TestLabelsGetClassifiesUpstreamError(t *testing.T) {
	api := &fakeLabelAPI{err: &vikunja.HTTPError{Status: 404, Message: "The label does not exist."}}
	_, err := execLabels(t, api, authedSession(), `{"action":"get","id":9}`)
	require.Error(t, err)

	var te *apierr.Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, apierr.NotFound, te.Kind, "upstream 404 classifies as NotFound")
	assert.Contains(t, te.Message, "labels.get")
	assert.Contains(t, te.Message, "id 9")
	assert.Contains(t, te.Message, "The label does not exist.")
	assert.Equal(t, int64(9), te.Context["entityId"])
}

func TestLabelsCreate(t *testing.T) {
	api := &fakeLabelAPI{label: map[string]any{"id": 3, "title": "urgent"}}
	out, err := execLabels(t, api, authedSession(),
		`{"action":"create","title":"urgent","hexColor":"e8590c"}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"title": "urgent", "hex_color": "e8590c"}, api.gotFields)
	text := contentText(t, out)
	assert.Contains(t, text, `Created label "urgent"`)
	assert.Contains(t, text, "- affectedFields: title, hex_color")
}

func TestLabelsCreateRequiresTitle(t *testing.T) {
	_, err := execLabels(t, &fakeLabelAPI{}, authedSession(), `{"action":"create"}`)
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.ValidationError))
	assert.Contains(t, err.Error(), "title is required")
}

func TestLabelsUpdateRequiresSomeField(t *testing.T) {
	_, err := execLabels(t, &fakeLabelAPI{}, authedSession(), `{"action":"update","id":4}`)
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.ValidationError))
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestLabelsDelete(t *testing.T) {
	api := &fakeLabelAPI{}
	out, err := execLabels(t, api, authedSession(), `{"action":"delete","id":5}`)
	require.NoError(t, err)
	assert.Equal(t, int64(5), api.gotID)
	assert.Contains(t, contentText(t, out), "Deleted label 5")
}

func TestLabelsUnknownAction(t *testing.T) {
	_, err := execLabels(t, &fakeLabelAPI{}, authedSession(), `{"action":"explode"}`)
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.ValidationError))
	assert.Contains(t, err.Error(), `"explode"`)
}

func TestLabelsMalformedArguments(t *testing.T) {
	_, err := execLabels(t, &fakeLabelAPI{}, authedSession(), `{"action":`)
	require.Error(t, err)
	assert.True(t, apierr.IsKind(err, apierr.InvalidPayload))
}

func TestLabelsNoRawErrorEscapes(t *testing.T) {
	// Whatever the API throws, the returned error is already taxonomy.
	api := &fakeLabelAPI{err: errors.New("dial tcp 10.0.0.1:443: i/o timeout")}
	_, err := execLabels(t, api, authedSession(), `{"action":"list"}`)
	require.Error(t, err)

	var te *apierr.Error
	require.True(t, errors.As(err, &te), "boundary must only emit taxonomy errors")
	assert.Equal(t, apierr.ApiError, te.Kind)
}
