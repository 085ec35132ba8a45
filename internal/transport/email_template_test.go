package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReviewEmail(t *testing.T) {
	subject, html, err := BuildReviewEmail(ReviewEmailData{
		BusinessName: "Boulangerie Martin",
		Intro:        "Bonjour Marie, merci pour votre visite !",
		ReviewURL:    "https://app.example.com/review/AbC23xyzKLmn",
	})
	require.NoError(t, err)

	assert.Equal(t, "Votre avis sur Boulangerie Martin nous intéresse !", subject)
	assert.Contains(t, html, `href="https://app.example.com/review/AbC23xyzKLmn"`)
	assert.Contains(t, html, "Bonjour Marie")
	assert.NotContains(t, html, "<img")
}

func TestBuildReviewEmailEscapesInput(t *testing.T) {
	_, html, err := BuildReviewEmail(ReviewEmailData{
		BusinessName: "Chez <b>Paul</b>",
		Intro:        "<script>alert(1)</script>",
		ReviewURL:    "https://app.example.com/review/x",
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;b&gt;Paul&lt;/b&gt;")
}

func TestBuildFeedbackAlertEmail(t *testing.T) {
	subject, html, err := BuildFeedbackAlertEmail(FeedbackAlertData{
		BusinessName: "Cafe",
		CustomerName: "Jean",
		Score:        2,
		Category:     "attente",
		Message:      "slow service",
		DashboardURL: "https://app.example.com/dashboard/feedbacks",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nouveau retour client (2/5) - Cafe", subject)
	assert.Contains(t, html, "slow service")
	assert.Contains(t, html, "attente")
}
