package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// convertHTMLToText flattens an HTML body to plain text so the same message
// can go out to clients that do not render HTML.
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	return strings.TrimSpace(result)
}

// EmailService sends operational notification emails over SMTP.
type EmailService struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewEmailService builds an email service from SMTP_* environment variables.
func NewEmailService() *EmailService {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}
	return &EmailService{
		host: host,
		port: port,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: from,
	}
}

// Configured reports whether SMTP credentials are present. Callers skip
// sending (without treating it as an error) when they are not.
func (es *EmailService) Configured() bool {
	return es.user != "" && es.pass != "" && es.from != ""
}

// SendImportCompletionEmail notifies a user that a budget workbook finished
// importing, including the validation outcome.
func (es *EmailService) SendImportCompletionEmail(to, projectName, batchID string, lineItems int, warnings, errs []string) error {
	subject := fmt.Sprintf("Budget import completed: %s", projectName)

	var body strings.Builder
	body.WriteString("<p>The budget workbook import for <b>" + projectName + "</b> has finished.</p>")
	body.WriteString(fmt.Sprintf("<p>Batch %s<br>%d line items committed on %s.</p>",
		batchID, lineItems, time.Now().Format("Jan 2, 2006 at 15:04 MST")))
	if len(errs) > 0 {
		body.WriteString("<p>Errors:</p><ul>")
		for _, e := range errs {
			body.WriteString("<li>" + e + "</li>")
		}
		body.WriteString("</ul>")
	}
	if len(warnings) > 0 {
		body.WriteString("<p>Warnings:</p><ul>")
		for _, w := range warnings {
			body.WriteString("<li>" + w + "</li>")
		}
		body.WriteString("</ul>")
	}

	return es.sendEmail(to, subject, convertHTMLToText(body.String()))
}

// SendWeeklySnapshotEmail sends the scheduled labor summary to a project
// controller.
func (es *EmailService) SendWeeklySnapshotEmail(to, projectName string, weekEnding time.Time, totalHours, totalCost float64) error {
	subject := fmt.Sprintf("Weekly labor snapshot: %s (w/e %s)", projectName, weekEnding.Format("Jan 2"))
	body := fmt.Sprintf(
		"<p>Labor summary for <b>%s</b>, week ending %s:</p><p>Total hours: %.1f<br>Total cost: $%.2f</p>",
		projectName, weekEnding.Format("January 2, 2006"), totalHours, totalCost)
	return es.sendEmail(to, subject, convertHTMLToText(body))
}

func (es *EmailService) sendEmail(to, subject, body string) error {
	if !es.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	auth := smtp.PlainAuth("", es.user, es.pass, es.host)

	headers := []string{
		"From: " + es.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	return smtp.SendMail(es.host+":"+es.port, auth, es.from, []string{to}, msg)
}
