package render

import (
	"fmt"
	"io"
	"strings"

	"profile-viewer/viewer"
)

func Text(w io.Writer, view viewer.View) error {
	var b strings.Builder

	switch view.Kind {
	case viewer.ViewIdle:
		fmt.Fprintf(&b, "Enter a username. Demo usernames: %s\n", strings.Join(view.DemoUsernames, ", "))
	case viewer.ViewLoading:
		b.WriteString("Searching...\n")
	case viewer.ViewError:
		fmt.Fprintf(&b, "Error: %s\n", view.Message)
	case viewer.ViewResultPrivate, viewer.ViewResultPublic:
		writeProfile(&b, view)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeProfile(b *strings.Builder, view viewer.View) {
	p := view.Profile
	if p == nil {
		return
	}

	fmt.Fprintf(b, "@%s", p.Username)
	if p.IsVerified {
		b.WriteString(" [verified]")
	}
	if p.IsPrivate {
		b.WriteString(" [private]")
	}
	fmt.Fprintf(b, "\n%s\n%s Account\n", p.FullName, p.AccountType)

	if p.IsPrivate {
		fmt.Fprintf(b, "\n%s\n", view.Message)
		return
	}

	b.WriteString("\n")
	for _, stat := range p.Stats {
		fmt.Fprintf(b, "%-10s %s\n", stat.Label, stat.Value)
	}
	if p.Biography != "" {
		fmt.Fprintf(b, "\nBiography\n%s\n", p.Biography)
	}
	b.WriteString("\nTechnical Details\n")
	for _, detail := range p.Details {
		fmt.Fprintf(b, "%s: %s\n", detail.Label, detail.Value)
	}
}
