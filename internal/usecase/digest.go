package usecase

import (
	"fmt"
	"strings"

	"DailyBrief/internal/domain"
)

// RenderDigest formats a brief as a plain-text message for notifiers and the CLI.
func RenderDigest(brief domain.Brief) string {
	if len(brief.Items) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Daily brief (%s, ~%d min)\n\n", brief.Mode.Name, (brief.TotalReadTimeSeconds+59)/60)

	for _, item := range brief.Items {
		fmt.Fprintf(&b, "%d. %s\n[%s · %s · %s]\n",
			item.Priority+1,
			item.Content.Title,
			item.Category,
			item.Content.SourceID,
			item.Reason)
		if item.Summary != "" && item.Summary != item.Content.Title {
			b.WriteString(item.Summary)
			b.WriteString("\n")
		}
		if item.Content.URL != "" {
			b.WriteString(item.Content.URL)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
