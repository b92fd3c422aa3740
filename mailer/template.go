package mailer

import (
	"html/template"
	"log"
	"strings"
)

// TemplateAction is an optional call-to-action block inside an alert email.
type TemplateAction struct {
	Title       string
	URL         string
	Description string
}

// TemplateData fills the alert email layout.
type TemplateData struct {
	Title       string
	Banner      string
	Subtitle    string
	Content     string
	Description string
	Action      *TemplateAction
	Footer      string
}

const alertTemplateHTML = `
<html>
<head>
	<meta http-equiv="Content-Type" content="text/html; charset=utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<style type="text/css">
		body, table, td, a {
			-webkit-text-size-adjust: 100%;
			-ms-text-size-adjust: 100%;
		}
		table {
			border-collapse: collapse !important;
		}
		body {
			height: 100% !important;
			margin: 0 !important;
			padding: 0 !important;
			width: 100% !important;
			font-family: sans-serif;
		}
	</style>
</head>
<body style="background-color: #f4f4f4; margin: 0 !important; padding: 0 !important;">
	<table border="0" cellpadding="0" cellspacing="0" width="100%" style="border-top: 6px solid #06853C; border-bottom: 6px solid #06853C;">
		<tr>
			<td align="center" style="padding: 0 1rem;">
				<table border="0" cellpadding="0" cellspacing="0" width="480">
					<tr>
						<td bgcolor="#fefefe" align="center" valign="top" style="padding: 2rem 1rem; border-radius: 2rem 2rem 0 0;">
							<h1 style="font-size: 36px; font-weight: 900; margin: 0;">{{.Title}}</h1>
						</td>
					</tr>
				</table>
			</td>
		</tr>
		{{if .Banner}}
		<tr>
			<td align="center" style="padding: 0 1rem;">
				<table border="0" cellpadding="0" cellspacing="0" width="480">
					<tr>
						<td bgcolor="#fefefe" align="center" valign="top" style="padding: 0 1rem 2rem">
							<img alt="banner" src="{{.Banner}}" width="100%" style="display: block; border-radius: 1.5rem;" border="0">
						</td>
					</tr>
				</table>
			</td>
		</tr>
		{{end}}
		<tr>
			<td align="center" style="padding: 0 1rem;">
				<table border="0" cellpadding="0" cellspacing="0" width="480">
					<tr>
						<td bgcolor="#fefefe" align="center" style="padding: 1rem;">
							<p style="margin: 0; text-align: center; font-size: 18px; font-weight: 400;">{{.Subtitle}}</p>
						</td>
					</tr>
					<tr>
						<td bgcolor="#fefefe" align="center" style="padding: 2rem 1rem;">
							{{if .Content}}
							<h2 style="font-size: 30px; line-height: 36px; font-weight: 700; text-align: center; margin: 0 0 .5rem; color: #06853C">{{.Content}}</h2>
							{{end}}
							<p style="margin: 0; text-align: center; font-size: 14px;">{{.Description}}</p>
						</td>
					</tr>
					{{if .Action}}
					<tr>
						<td bgcolor="#fefefe" align="center" style="padding: 2rem 1rem;">
							<h4 style="margin: 0 0 .5rem; text-align: center;">{{.Action.Title}}</h4>
							<p style="margin: 0; text-align: center; font-size: 14px;">
								Use <a href="{{.Action.URL}}" target="_blank" style="color: #06853C;">este enlace</a> {{.Action.Description}}
							</p>
						</td>
					</tr>
					{{end}}
				</table>
			</td>
		</tr>
		<tr>
			<td align="center" style="padding: 2rem 1rem;">
				<table border="0" cellpadding="0" cellspacing="0" width="480">
					<tr>
						<td bgcolor="#06853C" align="center" style="padding: 2rem; border-radius: 2rem;">
							<h2 style="font-size: 24px; font-weight: 700; color: #000; margin: 0 0 .5rem;">¿Necesitas ayuda?</h2>
							<a href="mailto:soporte@sedecam.local" style="color: #000;">Soporte técnico</a>
						</td>
					</tr>
				</table>
			</td>
		</tr>
		<tr>
			<td align="center" style="padding: 0 1rem;">
				<table border="0" cellpadding="0" cellspacing="0" width="480">
					<tr>
						<td align="center" style="padding: 0 2rem 2rem; color: #555555; font-size: 14px;">
							<p style="margin: 0 0 2rem;">{{.Footer}}</p>
						</td>
					</tr>
				</table>
			</td>
		</tr>
	</table>
</body>
</html>
`

var alertTemplate = template.Must(template.New("alert").Parse(alertTemplateHTML))

// RenderTemplate renders the alert email layout with the given data.
func (m *SMTPMailer) RenderTemplate(data TemplateData) string {
	return RenderTemplate(data)
}

// RenderTemplate renders the alert email layout with the given data.
func RenderTemplate(data TemplateData) string {
	var out strings.Builder
	if err := alertTemplate.Execute(&out, data); err != nil {
		log.Printf("mailer : error rendering alert template: %v", err)
		return data.Description
	}
	return out.String()
}
