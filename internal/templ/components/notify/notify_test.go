package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToast_EscapesMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Toast(Flash{Kind: Failure, Message: `<script>alert(1)</script>`}).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `data-kind="error"`)
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "5000")
}

func TestToast_Defaults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Toast(Flash{Title: "Saved", Message: "Blog updated", AutoDismiss: 3}).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `data-kind="info"`)
	assert.Contains(t, out, "Saved")
	assert.Contains(t, out, "3000")
}

func TestToastOOB_TargetsContainer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ToastOOB(Flash{Kind: Success, Message: "ok"}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `hx-swap-oob="beforeend:#toast-container"`)
}

func TestSuccessModal(t *testing.T) {
	var buf bytes.Buffer
	m := Modal{Title: "You're on the list!", Message: "We'll be in touch.", ActionLabel: "Back home", ActionURL: "/"}
	require.NoError(t, SuccessModal(m).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `role="dialog"`)
	assert.Contains(t, out, "You&#39;re on the list!")
	assert.Contains(t, out, `href="/"`)
}

func TestSuccessModal_RejectsScriptURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SuccessModal(Modal{Title: "t", ActionLabel: "go", ActionURL: "javascript:alert(1)"}).Render(context.Background(), &buf))
	assert.NotContains(t, buf.String(), "javascript:")
}
