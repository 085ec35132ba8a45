package transport

import (
	"bytes"
	"fmt"
	"html/template"
)

var reviewEmailTmpl = template.Must(template.New("review").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Votre avis compte !</title>
  <style>
    body { font-family: Inter, Arial, sans-serif; background: #F9FAFB; margin: 0; padding: 0; }
    .container { max-width: 600px; margin: 40px auto; background: white; border-radius: 16px; overflow: hidden; }
    .header { background: linear-gradient(135deg, #3B82F6, #8B5CF6); padding: 40px 32px; text-align: center; }
    .header h1 { color: white; margin: 0; font-size: 24px; }
    .body { padding: 40px 32px; }
    .body p { color: #374151; font-size: 16px; line-height: 1.6; }
    .cta { display: block; background: #3B82F6; color: white; text-decoration: none; padding: 16px 32px; border-radius: 12px; font-size: 18px; font-weight: 600; text-align: center; margin: 32px 0; }
    .footer { padding: 24px 32px; border-top: 1px solid #F3F4F6; text-align: center; color: #9CA3AF; font-size: 14px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      {{if .LogoURL}}<img src="{{.LogoURL}}" alt="{{.BusinessName}}" style="height:48px;margin-bottom:16px;border-radius:8px;">{{end}}
      <h1>Votre avis nous tient à coeur</h1>
    </div>
    <div class="body">
      <p>{{.Intro}}</p>
      <p>Cela ne prend que 30 secondes !</p>
      <a href="{{.ReviewURL}}" class="cta">Donner mon avis</a>
      <p style="font-size:14px;color:#9CA3AF;">Si vous avez des questions, n'hésitez pas à nous contacter directement.</p>
    </div>
    <div class="footer">
      <p>Propulsé par ProReview · Vous recevez cet email car vous êtes client de {{.BusinessName}}</p>
    </div>
  </div>
</body>
</html>
`))

var feedbackAlertTmpl = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Inter, Arial, sans-serif; color: #374151;">
  <h2>Nouveau retour privé ({{.Score}}/5)</h2>
  <p><strong>{{.CustomerName}}</strong> a laissé un retour pour {{.BusinessName}}.</p>
  <p>Catégorie : {{.Category}}</p>
  <blockquote style="border-left: 4px solid #F59E0B; padding-left: 12px;">{{.Message}}</blockquote>
  <p><a href="{{.DashboardURL}}">Voir dans le tableau de bord</a></p>
</body>
</html>
`))

type ReviewEmailData struct {
	BusinessName string
	Intro        string
	ReviewURL    string
	LogoURL      string
}

// BuildReviewEmail renders the review request email. Intro is the
// business's interpolated email template.
func BuildReviewEmail(data ReviewEmailData) (subject, html string, err error) {
	var buf bytes.Buffer
	if err := reviewEmailTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render review email: %w", err)
	}
	return fmt.Sprintf("Votre avis sur %s nous intéresse !", data.BusinessName), buf.String(), nil
}

type FeedbackAlertData struct {
	BusinessName string
	CustomerName string
	Score        int
	Category     string
	Message      string
	DashboardURL string
}

func BuildFeedbackAlertEmail(data FeedbackAlertData) (subject, html string, err error) {
	var buf bytes.Buffer
	if err := feedbackAlertTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render feedback alert: %w", err)
	}
	return fmt.Sprintf("Nouveau retour client (%d/5) - %s", data.Score, data.BusinessName), buf.String(), nil
}
