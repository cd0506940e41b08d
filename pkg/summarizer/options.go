package summarizer

import (
	"fmt"
	"strings"

	"podsumgo/pkg/model"
)

// systemPrompts hold the role instruction per summary format. The chain of
// thought steps keep the model from front-loading conclusions.
var systemPrompts = map[model.Format]string{
	model.FormatBulletPoints: `You are an expert podcast content analyst specializing in creating structured, hierarchical bullet-point summaries. Your task is to:
1. Identify main themes and categorize information
2. Extract key points and supporting details
3. Maintain logical flow and hierarchy
4. Include specific examples and quotes when relevant
5. Focus on actionable insights and practical applications

Follow this chain of thought:
1. First, identify the main themes and topics
2. Then, extract key points for each theme
3. Add supporting details and examples
4. Finally, organize into a clear hierarchy

Example format:
• Main Theme 1
  - Key Point 1
    * Supporting detail or example
  - Key Point 2
    * Supporting detail or example
• Main Theme 2
  ...`,

	model.FormatParagraph: `You are an expert podcast content writer specializing in creating engaging, well-structured narrative summaries. Your task is to:
1. Create a compelling opening that captures the essence
2. Develop a logical flow of ideas
3. Include specific examples and quotes
4. Maintain a professional yet engaging tone
5. End with key takeaways or implications

Follow this chain of thought:
1. First, identify the core message and main themes
2. Then, structure the narrative flow
3. Add supporting details and examples
4. Finally, craft a cohesive paragraph

Example format:
[Engaging opening that captures the essence] [Main themes and topics] [Supporting details and examples] [Key takeaways and implications]`,

	model.FormatKeyTakeaways: `You are an expert podcast content analyst specializing in extracting actionable insights and key learnings. Your task is to:
1. Identify core insights and lessons
2. Extract practical applications
3. Highlight unique perspectives
4. Include specific examples
5. Focus on actionable takeaways

Follow this chain of thought:
1. First, identify the main insights
2. Then, analyze their practical applications
3. Add supporting examples and context
4. Finally, organize by impact and relevance

Example format:
Key Insight 1: [Main learning]
• Practical Application: [How to apply]
• Example: [Specific instance]
• Impact: [Potential results]

Key Insight 2: [Main learning]
...`,

	model.FormatExecutiveSummary: `You are an expert business analyst specializing in creating executive-level podcast summaries. Your task is to:
1. Focus on business impact and ROI
2. Highlight strategic implications
3. Include market context
4. Extract actionable recommendations
5. Consider implementation challenges

Follow this chain of thought:
1. First, identify business implications
2. Then, analyze strategic value
3. Add market context and examples
4. Finally, provide actionable recommendations

Example format:
Business Context: [Market situation]
Strategic Implications: [Key impacts]
Implementation Considerations: [Practical aspects]
Recommendations: [Action items]
ROI Potential: [Expected outcomes]`,
}

// formatInstructions are the one-line style reminders embedded in the
// requirements block of every prompt.
var formatInstructions = map[model.Format]string{
	model.FormatBulletPoints:     "as a hierarchical bullet-point summary with main themes, key points, and supporting details",
	model.FormatParagraph:        "as a well-structured narrative paragraph with clear flow and supporting examples",
	model.FormatKeyTakeaways:     "as actionable insights with practical applications and specific examples",
	model.FormatExecutiveSummary: "as a business-focused summary with strategic implications and ROI considerations",
}

// promptMeta describes the episode for the prompt. Zero values fall back
// to neutral placeholders so the model never sees empty fields.
type promptMeta struct {
	Title    string
	Category string
	Host     string
	Duration string
}

func metaFromEpisode(ep model.Episode) promptMeta {
	return promptMeta{
		Title:    ep.Title,
		Category: ep.Category,
		Host:     ep.Host,
		Duration: ep.Duration,
	}
}

func (m promptMeta) withDefaults() promptMeta {
	if m.Title == "" {
		m.Title = "Unknown Episode"
	}
	if m.Category == "" {
		m.Category = "General"
	}
	if m.Host == "" {
		m.Host = "Unknown Host"
	}
	if m.Duration == "" {
		m.Duration = "Unknown Duration"
	}
	return m
}

// buildTextPrompt assembles the full prompt for description and article
// content.
func buildTextPrompt(content string, opts model.Options, meta promptMeta) string {
	meta = meta.withDefaults()

	var b strings.Builder
	b.WriteString(systemPrompts[opts.Format])
	b.WriteString("\n\nPodcast Details:\n")
	fmt.Fprintf(&b, "- Title: %q\n", meta.Title)
	fmt.Fprintf(&b, "- Category: %s\n", meta.Category)
	fmt.Fprintf(&b, "- Host: %s\n", meta.Host)
	fmt.Fprintf(&b, "- Duration: %s\n", meta.Duration)
	// The content markers let the history log truncate the bulk of the
	// prompt without losing the instructions around it.
	b.WriteString("\nEpisode Content:\n<start of content>\n")
	b.WriteString(content)
	b.WriteString("\n<end of content>\n\nRequirements:\n")
	fmt.Fprintf(&b, "- Target length: approximately %d characters\n", opts.Length.TargetChars())
	fmt.Fprintf(&b, "- Format: %s\n", formatInstructions[opts.Format])
	b.WriteString("- Focus on the main topics, insights, and key information\n")
	b.WriteString("- Make it engaging and informative for listeners\n")
	b.WriteString("- Include specific examples and quotes when relevant\n")
	b.WriteString("- If the content seems incomplete or promotional, work with what's available\n")
	fmt.Fprintf(&b, "- Consider the podcast category (%s) for context-appropriate analysis\n", meta.Category)
	b.WriteString("\nPlease provide only the summary without any meta-commentary.")
	return b.String()
}

// buildAudioPrompt assembles the instruction sent alongside the raw audio.
func buildAudioPrompt(opts model.Options) string {
	instruction := formatInstructions[opts.Format]

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert podcast content analyzer. Please transcribe and summarize this audio content %s.\n", instruction)
	b.WriteString("\nRequirements:\n")
	fmt.Fprintf(&b, "- Target length: approximately %d characters\n", opts.Length.TargetChars())
	fmt.Fprintf(&b, "- Format: %s\n", instruction)
	b.WriteString("- Focus on the main topics, insights, and key information discussed\n")
	b.WriteString("- Make it engaging and informative for listeners\n")
	b.WriteString("- Extract the most valuable content and insights from the conversation\n")
	b.WriteString("\nPlease provide only the summary without any transcription or meta-commentary.")
	return b.String()
}

// buildMinimalPrompt covers the last-resort path where the description is
// too thin to summarize. Only metadata goes into the prompt, with an
// explicit instruction not to fabricate specifics.
func buildMinimalPrompt(opts model.Options, meta promptMeta) string {
	meta = meta.withDefaults()

	var b strings.Builder
	b.WriteString("You are an expert podcast content writer. This episode has no usable description. ")
	b.WriteString("Using only the metadata below, write a brief, honest preview of what a listener can expect. ")
	b.WriteString("Do not invent specific claims, quotes, or guests.\n")
	b.WriteString("\nPodcast Details:\n")
	fmt.Fprintf(&b, "- Title: %q\n", meta.Title)
	fmt.Fprintf(&b, "- Host: %s\n", meta.Host)
	fmt.Fprintf(&b, "- Duration: %s\n", meta.Duration)
	b.WriteString("\nRequirements:\n")
	fmt.Fprintf(&b, "- Target length: approximately %d characters\n", opts.Length.TargetChars())
	fmt.Fprintf(&b, "- Format: %s\n", formatInstructions[opts.Format])
	b.WriteString("\nPlease provide only the summary without any meta-commentary.")
	return b.String()
}
