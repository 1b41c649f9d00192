package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/Celag1/logicqp-sub003/internal/models"
	"github.com/Celag1/logicqp-sub003/internal/render"
	"github.com/slack-go/slack"
	"gopkg.in/gomail.v2"
)

type Config struct {
	SMTPHost     string
	SMTPPort     int
	EmailFrom    string
	Password     string
	SlackToken   string
	SlackChannel string
}

const emailBodyTemplate = `
<html>
<body>
<h2>{{.Title}}</h2>
<p>Your scheduled report <strong>{{.Name}}</strong> has been generated.</p>
<table>
<tr><td>Period</td><td>{{.Period}}</td></tr>
<tr><td>Records</td><td>{{.TotalRecords}}</td></tr>
{{if .TotalAmount}}<tr><td>Total</td><td>{{.TotalAmount}} {{.Currency}}</td></tr>{{end}}
<tr><td>Generated</td><td>{{.GeneratedAt}}</td></tr>
</table>
<p>The report file is attached.</p>
</body>
</html>
`

// Notifier delivers completed reports to their recipients by e-mail and
// raises Slack alerts for failed executions. Either channel is disabled when
// its configuration is empty; delivery problems are logged and never fail the
// execution that triggered them.
type Notifier struct {
	emailDialer *gomail.Dialer
	slackClient *slack.Client
	config      Config
	bodyTmpl    *template.Template
}

func NewNotifier(config Config) (*Notifier, error) {
	tmpl, err := template.New("report_email").Parse(emailBodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report email template: %v", err)
	}

	n := &Notifier{config: config, bodyTmpl: tmpl}
	if config.SMTPHost != "" {
		n.emailDialer = gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.EmailFrom, config.Password)
	}
	if config.SlackToken != "" {
		n.slackClient = slack.New(config.SlackToken)
	}
	return n, nil
}

// ReportCompleted e-mails the rendered artifact to the report's recipients.
func (n *Notifier) ReportCompleted(report *models.ScheduledReport, data *models.ReportData, artifact *render.Artifact) {
	if n.emailDialer == nil || len(report.Recipients) == 0 {
		return
	}

	body, err := n.renderBody(report, data)
	if err != nil {
		log.Printf("[Notify] failed to render email body for %s: %v", report.ID, err)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.config.EmailFrom)
	m.SetHeader("To", report.Recipients...)
	m.SetHeader("Subject", fmt.Sprintf("Report: %s (%s)", report.Name, data.Period))
	m.SetBody("text/html", body)
	m.Attach(artifact.Path)

	if err := n.emailDialer.DialAndSend(m); err != nil {
		log.Printf("[Notify] failed to deliver report %s: %v", report.ID, err)
	}
}

// ReportFailed posts a Slack alert for a failed execution. No report delivery
// happens for failed runs.
func (n *Notifier) ReportFailed(report *models.ScheduledReport, cause error) {
	if n.slackClient == nil {
		return
	}

	attachment := slack.Attachment{
		Color: "#ff0000",
		Title: fmt.Sprintf("Scheduled report failed: %s", report.Name),
		Fields: []slack.AttachmentField{
			{Title: "Report", Value: report.Name, Short: true},
			{Title: "Owner", Value: report.UserID, Short: true},
			{Title: "Error", Value: cause.Error()},
			{Title: "Time", Value: time.Now().Format(time.RFC3339), Short: true},
		},
		Footer: "LogicQP Report Engine",
	}

	if _, _, err := n.slackClient.PostMessage(n.config.SlackChannel, slack.MsgOptionAttachments(attachment)); err != nil {
		log.Printf("[Notify] failed to post slack alert for %s: %v", report.ID, err)
	}
}

func (n *Notifier) renderBody(report *models.ScheduledReport, data *models.ReportData) (string, error) {
	var totalAmount string
	if data.Summary.TotalAmount != nil {
		totalAmount = data.Summary.TotalAmount.StringFixed(2)
	}

	var buf bytes.Buffer
	err := n.bodyTmpl.Execute(&buf, map[string]interface{}{
		"Title":        data.Title,
		"Name":         report.Name,
		"Period":       data.Period,
		"TotalRecords": data.Summary.TotalRecords,
		"TotalAmount":  totalAmount,
		"Currency":     data.Summary.Currency,
		"GeneratedAt":  data.GeneratedAt.Format("2006-01-02 15:04"),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
