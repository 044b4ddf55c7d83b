package mailer

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// body is an error-latching HTML writer for email components. Text goes
// through templ escaping, URLs through templ sanitization.
type body struct {
	w   io.Writer
	err error
}

func (b *body) raw(s string) {
	if b.err != nil {
		return
	}
	_, b.err = io.WriteString(b.w, s)
}

func (b *body) text(s string) {
	b.raw(templ.EscapeString(s))
}

func (b *body) heading(s string) {
	b.raw("<h2>")
	b.text(s)
	b.raw("</h2>")
}

func (b *body) paragraph(s string) {
	b.raw("<p>")
	b.text(s)
	b.raw("</p>")
}

func (b *body) link(url, label string) {
	if url == "" {
		return
	}
	b.raw(`<p><a href="`)
	b.text(string(templ.URL(url)))
	b.raw(`">`)
	b.text(label)
	b.raw("</a></p>")
}

// component wraps a body-writing function as a templ component with the
// shared html/body envelope.
func component(write func(b *body)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := &body{w: w}
		b.raw("<html><body>")
		write(b)
		b.raw("</body></html>")
		return b.err
	})
}

func actionLabel(data TemplateData, fallback string) string {
	if data.ActionLabel != "" {
		return data.ActionLabel
	}
	return fallback
}

func fallbackBody(data TemplateData) templ.Component {
	return component(func(b *body) {
		b.heading(data.Title)
		b.paragraph(data.Message)
	})
}

func moduleAssignmentBody(data TemplateData) templ.Component {
	return component(func(b *body) {
		b.heading(data.Title)
		greeting := "Hi there,"
		if data.RecipientName != "" {
			greeting = "Hi " + data.RecipientName + ","
		}
		b.paragraph(greeting)
		b.paragraph(data.Message)
		b.link(data.ActionURL, actionLabel(data, "Start module"))
	})
}

func achievementBody(data TemplateData) templ.Component {
	return component(func(b *body) {
		b.raw("<h2>&#127942; ")
		b.text(data.Title)
		b.raw("</h2>")
		congrats := "Congratulations!"
		if data.RecipientName != "" {
			congrats = "Congratulations, " + data.RecipientName + "!"
		}
		b.paragraph(congrats)
		b.paragraph(data.Message)
		b.link(data.ActionURL, actionLabel(data, "View achievement"))
	})
}

func reminderBody(data TemplateData) templ.Component {
	return component(func(b *body) {
		b.heading(data.Title)
		b.paragraph(data.Message)
		if due, ok := data.Fields["dueDate"]; ok {
			b.paragraph(fmt.Sprintf("Due: %v", due))
		}
		b.link(data.ActionURL, actionLabel(data, "Open"))
	})
}

func passwordResetBody(data TemplateData) templ.Component {
	return component(func(b *body) {
		b.heading(data.Title)
		b.paragraph(data.Message)
		b.link(data.ActionURL, actionLabel(data, "Reset password"))
		b.paragraph("If you did not request this, you can safely ignore this email.")
	})
}

func welcomeBody(data TemplateData) templ.Component {
	return component(func(b *body) {
		b.heading(data.Title)
		welcome := "Welcome!"
		if data.RecipientName != "" {
			welcome = "Welcome, " + data.RecipientName + "!"
		}
		b.paragraph(welcome)
		b.paragraph(data.Message)
		b.link(data.ActionURL, actionLabel(data, "Get started"))
	})
}

var builtinBodies = map[string]ComponentBuilder{
	TemplateModuleAssignment: moduleAssignmentBody,
	TemplateAchievement:      achievementBody,
	TemplateReminder:         reminderBody,
	TemplatePasswordReset:    passwordResetBody,
	TemplateWelcome:          welcomeBody,
}
