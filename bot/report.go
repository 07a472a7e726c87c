package bot

import "strings"

const bullet = "•"

// FormatReport renders report as a Slack message framed by pre and post:
//
//	<pre>
//
//	*org/repo*
//	• https://github.com/org/repo/pull/1
//
//	<post>
func FormatReport(pre, post string, report *Report) string {
	var b strings.Builder
	b.WriteString(pre)
	b.WriteString("\n\n")

	repos := report.Repositories()
	for _, repo := range repos {
		b.WriteString("*" + repo + "*\n")
		for _, pr := range report.PullRequests(repo) {
			b.WriteString(bullet + " " + pr.URL + "\n")
		}
		b.WriteString("\n")
	}
	if len(repos) == 0 {
		// empty reports render as "<pre>\n\n\n\n<post>": one blank line
		// stands in for the missing repository blocks
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(post)
	return b.String()
}
