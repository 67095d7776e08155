// Package rewrite builds the optimization prompt, parses the model's reply and
// formats the published body with its references section.
package rewrite

import (
    "fmt"
    "strings"

    "github.com/hyperifyio/gooptimize/internal/article"
    "github.com/hyperifyio/gooptimize/internal/extract"
)

// MinWords is the length the model is asked to reach.
const MinWords = 800

// BuildPrompt renders the single user prompt for one article and its
// extracted references. Reference order is preserved and numbered from 1.
func BuildPrompt(a article.Article, refs []extract.Content) string {
    var sb strings.Builder
    sb.WriteString("You are an expert content optimizer and SEO specialist. Your task is to rewrite and optimize an article to match the style, formatting, and quality of top-ranking articles on Google.\n\n")

    sb.WriteString("## Original Article to Optimize:\n")
    fmt.Fprintf(&sb, "Title: %s\n", a.Title)
    fmt.Fprintf(&sb, "Content: %s\n", a.Description)
    fmt.Fprintf(&sb, "URL: %s\n\n", a.URL)

    sb.WriteString("## Top-Ranking Reference Articles from Google:\n")
    for i, r := range refs {
        headings := "N/A"
        if len(r.Headings) > 0 {
            headings = strings.Join(r.Headings, ", ")
        }
        fmt.Fprintf(&sb, "\n### Reference Article %d: %s\n", i+1, r.Title)
        fmt.Fprintf(&sb, "URL: %s\n", r.URL)
        fmt.Fprintf(&sb, "Content: %s\n", r.Text)
        fmt.Fprintf(&sb, "Headings: %s\n", headings)
    }

    sb.WriteString("\n## Your Task:\n")
    sb.WriteString("1. Analyze the structure, formatting, and writing style of the reference articles\n")
    sb.WriteString("2. Rewrite the original article to match the quality and style of the top-ranking articles\n")
    sb.WriteString("3. Improve the content by incorporating:\n")
    sb.WriteString("   - Similar heading structure and formatting\n")
    sb.WriteString("   - Writing tone and style\n")
    sb.WriteString("   - Content depth and comprehensiveness\n")
    sb.WriteString("   - SEO-friendly language\n")
    sb.WriteString("   - Clear, engaging narrative\n")
    sb.WriteString("4. Keep the core message of the original article but enhance it significantly\n")
    sb.WriteString("5. Make it detailed, informative, and reader-friendly\n")
    sb.WriteString("6. Include proper paragraph breaks and formatting\n\n")

    sb.WriteString("## Output Format:\n")
    sb.WriteString("Provide the optimized article in the following format:\n\n")
    sb.WriteString("TITLE: [Your optimized title here]\n\n")
    sb.WriteString("CONTENT:\n")
    sb.WriteString("[Your optimized content here - make it comprehensive, well-structured, and engaging. Include multiple paragraphs with clear headings where appropriate.]\n\n")

    sb.WriteString("## Requirements:\n")
    fmt.Fprintf(&sb, "- Minimum %d words\n", MinWords)
    sb.WriteString("- Use markdown-style headings (##, ###)\n")
    sb.WriteString("- Make it conversational yet professional\n")
    sb.WriteString("- Focus on value for the reader\n")
    sb.WriteString("- Match the style of the reference articles\n\n")
    sb.WriteString("Generate the optimized article now:")
    return sb.String()
}
